package specification

import (
	"enculture-be/internal/entity"
	"enculture-be/pkg/docstore"
)

type (
	SurveySpecification     = docstore.Specification[entity.Survey]
	ChatThreadSpecification = docstore.Specification[entity.ChatThread]
)
