package domain

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxNameLength bounds table and column names so they stay valid
// physical identifiers.
const MaxNameLength = 32

// ReservedColumn is the row identity every dynamic table carries.
const ReservedColumn = "id"

var (
	tableNamePattern  = regexp.MustCompile(`^[a-zA-Z]+$`)
	columnNamePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)
)

// CheckTableName enforces the letters-only table name rule.
func CheckTableName(name string) *Error {
	if strings.TrimSpace(name) == "" {
		return InvalidName("name", "This field may not be blank.")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return InvalidName("name", "Ensure this field has no more than %d characters.", MaxNameLength)
	}
	if !tableNamePattern.MatchString(name) {
		return InvalidName("name", "Only letters are allowed.")
	}
	return nil
}

// CheckColumnName enforces the column identifier rule.
func CheckColumnName(name string) *Error {
	if strings.TrimSpace(name) == "" {
		return InvalidName("name", "This field may not be blank.")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return InvalidName("name", "Ensure this field has no more than %d characters.", MaxNameLength)
	}
	if !columnNamePattern.MatchString(name) {
		return InvalidName("name", "Only letters, digits and underscores are allowed, starting with a letter.")
	}
	if strings.EqualFold(name, ReservedColumn) {
		return InvalidName("name", "Field name %q is reserved.", ReservedColumn)
	}
	return nil
}
