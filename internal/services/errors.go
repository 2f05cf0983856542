package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEngine        = errors.New("engine error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
	ErrInternal      = errors.New("internal fault")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind names the marker carried by err, for logs and API error bodies.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrEngine):
		return "engine"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrTransient):
		return "transient"
	default:
		return "internal"
	}
}

// IsInternal reports whether err is an infrastructure fault rather than a
// caller or engine problem.
func IsInternal(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrInternal) || errors.Is(err, ErrTransient) {
		return true
	}
	return Kind(err) == "internal"
}

// Details returns the marker kind of err and a message safe to show callers.
// Internal faults collapse to a generic message.
func Details(err error) (kind, message string) {
	kind = Kind(err)
	if kind == "" {
		return "", ""
	}
	if IsInternal(err) {
		return kind, "internal error"
	}
	message = err.Error()
	for _, marker := range []error{ErrValidation, ErrTimeout, ErrEngine, ErrConfiguration, ErrNotFound} {
		message = strings.TrimPrefix(message, marker.Error()+": ")
	}
	return kind, message
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
