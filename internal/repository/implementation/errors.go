package implementation

import (
	"errors"
	"fmt"

	"enculture-be/internal/pkg/apperror"
	"enculture-be/pkg/docstore"
)

// translate maps store errors onto the application's error kinds.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, docstore.ErrNotFound) {
		return fmt.Errorf("%w: %v", apperror.ErrNotFound, err)
	}
	return err
}

func ptrs[T any](in []T) []*T {
	out := make([]*T, len(in))
	for i := range in {
		out[i] = &in[i]
	}
	return out
}
