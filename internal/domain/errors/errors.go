package errors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalid            = errors.New("invalid")
	ErrInvalidFrontmatter = errors.New("invalid front matter")
	ErrNotFound           = errors.New("not found")
)

type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type ValidationError struct {
	Items []FieldError
}

func (e ValidationError) Error() string {
	if len(e.Items) == 0 {
		return "validation failed"
	}

	var b strings.Builder
	b.WriteString("validation failed:\n")
	for _, item := range e.Items {
		b.WriteString(" - ")
		b.WriteString(item.Error())
		b.WriteString("\n")
	}
	return b.String()
}

func (e *ValidationError) Add(field, msg string) {
	e.Items = append(e.Items, FieldError{
		Field:   field,
		Message: msg,
	})
}

func (e ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

func (e ValidationError) HasAny() bool {
	return len(e.Items) > 0
}

// FrontmatterError reports the first front matter field that failed validation.
// Index is the offending element for list fields, -1 otherwise.
type FrontmatterError struct {
	Field   string
	Index   int
	Message string
}

func NewFrontmatterError(field, msg string) *FrontmatterError {
	return &FrontmatterError{Field: field, Index: -1, Message: msg}
}

func NewFrontmatterIndexError(field string, index int, msg string) *FrontmatterError {
	return &FrontmatterError{Field: field, Index: index, Message: msg}
}

func (e *FrontmatterError) Error() string {
	switch {
	case e.Field == "":
		return "front matter: " + e.Message
	case e.Index >= 0:
		return fmt.Sprintf("front matter: %s[%d] %s", e.Field, e.Index, e.Message)
	default:
		return fmt.Sprintf("front matter: %s %s", e.Field, e.Message)
	}
}

func (e *FrontmatterError) Is(target error) bool {
	return target == ErrInvalidFrontmatter
}
