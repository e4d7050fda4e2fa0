package annotation

import "fmt"

// NotInitializedError reports a store operation before Init.
type NotInitializedError struct {
	Op string
}

func (e *NotInitializedError) Error() string {
	return fmt.Sprintf("annotation store: %s before Init", e.Op)
}
