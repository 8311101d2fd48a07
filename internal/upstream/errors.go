package upstream

import "fmt"

// Error is a non-200 answer from the backend or the object store. The status and
// body are kept verbatim so the response layer can decide how much of them the
// caller gets to see.
type Error struct {
	Status int
	Body   []byte
}

func (e *Error) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.Status, e.Body)
}
