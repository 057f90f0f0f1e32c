package chat

import "fmt"

// ExtractionError means the model reply could not be turned into a command:
// either the delimiter was missing or the payload after it was not valid
// JSON. Detail tells the two apart; the kind does not.
type ExtractionError struct {
	Detail string
}

func (e *ExtractionError) Error() string {
	return "extract command: " + e.Detail
}

// ValidationError means a required command field was missing or malformed.
// It keeps the offending payload so the client response can echo it.
type ValidationError struct {
	Action  string
	Field   string
	Payload *RawCommand
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("action %q: missing or invalid field %q", e.Action, e.Field)
}

// AmbiguousDeleteError means the delete-by-title fallback found no entry
// with the given title on the given date.
type AmbiguousDeleteError struct {
	Title string
	Date  string
}

func (e *AmbiguousDeleteError) Error() string {
	return fmt.Sprintf("no entry titled %q on %s to delete", e.Title, e.Date)
}

// NotFoundError means an id did not resolve for the requesting owner.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("entry %s not found", e.ID)
}

// StorageError wraps a repository failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ModelUnavailableError wraps a language-model client failure.
type ModelUnavailableError struct {
	Err error
}

func (e *ModelUnavailableError) Error() string {
	return fmt.Sprintf("model unavailable: %v", e.Err)
}

func (e *ModelUnavailableError) Unwrap() error { return e.Err }
