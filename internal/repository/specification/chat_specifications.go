package specification

import (
	"strings"

	"enculture-be/internal/entity"
)

// ThreadActive excludes soft-deleted threads.
type ThreadActive struct{}

func (ThreadActive) IsSatisfiedBy(t entity.ChatThread) bool {
	return t.IsActive
}

// ThreadOwnedBy matches threads of one user. An empty value matches all.
type ThreadOwnedBy struct {
	UserId string
}

func (s ThreadOwnedBy) IsSatisfiedBy(t entity.ChatThread) bool {
	return s.UserId == "" || t.Owner() == s.UserId
}

// ThreadMatches does a case-insensitive substring search over the title and
// every message.
type ThreadMatches struct {
	Query string
}

func (s ThreadMatches) IsSatisfiedBy(t entity.ChatThread) bool {
	q := strings.ToLower(strings.TrimSpace(s.Query))
	if q == "" {
		return false
	}
	if strings.Contains(strings.ToLower(t.TitleOrEmpty()), q) {
		return true
	}
	for _, m := range t.Messages {
		if strings.Contains(strings.ToLower(m.Content), q) {
			return true
		}
	}
	return false
}
