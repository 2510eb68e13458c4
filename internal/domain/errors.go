package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error kinds. Match them with errors.Is.
var (
	ErrInvalidName  = errors.New("invalid name")
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrTypeMismatch = errors.New("type mismatch")
	ErrSchemaSync   = errors.New("schema sync failure")
)

// Error is a request-scoped or field-scoped failure returned to the caller.
// Field names the first failing field; Fields holds every field-scoped message.
type Error struct {
	Kind    error
	Message string
	Field   string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if len(e.Fields) > 1 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + e.Fields[k]
		}
		return strings.Join(parts, "; ")
	}
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	if e.Err != nil && e.Message == "" {
		return e.Kind.Error() + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Validation returns a request-scoped validation error.
func Validation(format string, args ...any) *Error {
	return newError(ErrValidation, format, args...)
}

// InvalidName returns an error about a table or column name.
func InvalidName(field, format string, args ...any) *Error {
	e := newError(ErrInvalidName, format, args...)
	e.Field = field
	e.Fields = map[string]string{field: e.Message}
	return e
}

// NotFound returns an error for a table or column id that does not exist.
func NotFound(format string, args ...any) *Error {
	return newError(ErrNotFound, format, args...)
}

// InvalidChoice mirrors the message for values outside an enumeration.
func InvalidChoice(field, value string) *Error {
	e := newError(ErrValidation, "%q is not a valid choice.", value)
	e.Field = field
	e.Fields = map[string]string{field: e.Message}
	return e
}

// SchemaSync wraps a DDL or commit failure.
func SchemaSync(err error, format string, args ...any) *Error {
	e := newError(ErrSchemaSync, format, args...)
	e.Err = err
	return e
}

// FieldErrors collects field-scoped failures in column order.
type FieldErrors struct {
	order    []string
	messages map[string]string
	kind     error
}

// Add records msg for field. A type mismatch outranks other kinds.
func (f *FieldErrors) Add(kind error, field, msg string) {
	if f.messages == nil {
		f.messages = make(map[string]string)
	}
	if _, ok := f.messages[field]; ok {
		return
	}
	f.order = append(f.order, field)
	f.messages[field] = msg
	if f.kind == nil || kind == ErrTypeMismatch {
		f.kind = kind
	}
}

func (f *FieldErrors) Empty() bool {
	return len(f.order) == 0
}

// Err returns nil when no field failed.
func (f *FieldErrors) Err() error {
	if f.Empty() {
		return nil
	}
	first := f.order[0]
	return &Error{
		Kind:    f.kind,
		Message: f.messages[first],
		Field:   first,
		Fields:  f.messages,
	}
}
