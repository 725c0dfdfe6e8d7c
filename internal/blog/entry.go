package blog

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var (
	ErrEntryNotFound      = errors.New("blog entry not found")
	ErrEntryAlreadyExists = errors.New("blog entry already exists")
)

// ValidationError marks a request rejected because of a bad field value.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

type Status string

const (
	StatusDraft     Status = "Draft"
	StatusPublished Status = "Published"
)

func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

type Entry struct {
	ID           string `json:"id"`
	Title        string `json:"title" validate:"min=2"`
	Content      string `json:"content" validate:"min=10"`
	Author       string `json:"author" validate:"min=2"`
	LastEditDate string `json:"last_edit_date"`
	Status       Status `json:"status"`
}

var entryValidator = validator.New()

// Validate checks field constraints and reports the first violation.
func (e *Entry) Validate() error {
	if !e.Status.Valid() {
		return &ValidationError{Field: "status", Reason: fmt.Sprintf("must be %s or %s", StatusDraft, StatusPublished)}
	}

	err := entryValidator.Struct(e)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		fieldErr := validationErrs[0]
		switch fieldErr.Field() {
		case "Title":
			return &ValidationError{Field: "title", Reason: "must be at least 2 characters"}
		case "Content":
			return &ValidationError{Field: "content", Reason: "must be at least 10 characters"}
		case "Author":
			return &ValidationError{Field: "author", Reason: "must be at least 2 characters"}
		}
	}

	return err
}

// Visible tells whether the entry can be served to readers without
// editor access. Drafts stay hidden.
func (e *Entry) Visible(isEditor bool) bool {
	return isEditor || e.Status == StatusPublished
}
