package common

import (
	"errors"
	"fmt"
)

// ErrTooManyFiles is returned when a gist holds more files than a
// snippet accepts.
var ErrTooManyFiles = errors.New("too many files")

// Stages at which a single item can fail without stopping the run.
const (
	StageValidate = "validate"
	StageFetch    = "fetch"
)

// ConfigError is a pre-flight configuration problem.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("configuration error: %s", e.Message)
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Message)
}

// ItemError is a failure scoped to one source item.
type ItemError struct {
	ItemID string
	Stage  string
	Err    error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("gist %s: %s: %v", e.ItemID, e.Stage, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

func NewConfigError(field, message string) error {
	return &ConfigError{Field: field, Message: message}
}

func NewItemError(itemID, stage string, err error) error {
	return &ItemError{ItemID: itemID, Stage: stage, Err: err}
}

// IsConfigError reports whether err is, or wraps, a ConfigError.
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}
