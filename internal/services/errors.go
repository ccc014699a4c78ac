package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers for classifying failures across the provider clients and
// pipeline stages. Wrap tags errors with one of these so callers can use
// errors.Is without knowing which stage produced the failure.
var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTransient     = errors.New("transient failure")
	ErrUnavailable   = errors.New("service unavailable")
)

// Wrap tags err with marker and prefixes it with stage context. Blank
// stage, operation, and message fields are skipped; a nil marker defaults
// to ErrTransient.
func Wrap(marker error, stage, operation, message string, err error) error {
	if marker == nil {
		marker = ErrTransient
	}

	var detail strings.Builder
	for _, part := range []string{stage, operation, message} {
		if part = strings.TrimSpace(part); part == "" {
			continue
		}
		if detail.Len() > 0 {
			detail.WriteString(": ")
		}
		detail.WriteString(part)
	}
	if detail.Len() == 0 {
		detail.WriteString("service failure")
	}

	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail.String(), err)
	}
	return fmt.Errorf("%w: %s", marker, detail.String())
}
