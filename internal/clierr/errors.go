// Package clierr classifies errors and turns them into messages with
// actionable hints, for the status line and the CLI.
package clierr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"pebble/internal/domain"
	"pebble/internal/services"
)

const (
	TypeNotFound    = "not_found"
	TypeForbidden   = "forbidden"
	TypeNetwork     = "network"
	TypeValidation  = "validation"
	TypeUnsupported = "unsupported"
	TypeConflict    = "conflict"
	TypeCancelled   = "cancelled"
	TypeInternal    = "internal"
)

func IsForbidden(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrPermission) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "forbidden") ||
		strings.Contains(msg, "access denied") ||
		strings.Contains(msg, "unauthorized")
}

func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, os.ErrNotExist) || errors.Is(err, domain.ErrNotFound)
}

// IsNetworkError checks if the error is a connection/network error.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "network is unreachable") ||
		strings.Contains(msg, "dial tcp") ||
		strings.Contains(msg, "i/o timeout")
}

func IsValidation(err error) bool {
	var fields validation.Errors
	return errors.As(err, &fields)
}

func ClassifyError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return TypeCancelled
	case IsValidation(err):
		return TypeValidation
	case errors.Is(err, services.ErrUnsupportedServer):
		return TypeUnsupported
	case errors.Is(err, services.ErrExists), errors.Is(err, domain.ErrInvalidParent):
		return TypeConflict
	case IsForbidden(err):
		return TypeForbidden
	case IsNotFound(err):
		return TypeNotFound
	case IsNetworkError(err):
		return TypeNetwork
	default:
		return TypeInternal
	}
}

// Pretty formats an error with a user-friendly message and a hint, on one
// line so it fits the status bar.
func Pretty(err error) string {
	if err == nil {
		return ""
	}
	baseMsg := err.Error()

	switch ClassifyError(err) {
	case TypeCancelled:
		return "Cancelled"
	case TypeValidation:
		return fmt.Sprintf("Invalid input: %s", baseMsg)
	case TypeUnsupported:
		return fmt.Sprintf("Unsupported server: %s (hint: use file:///path or mem://demo)", baseMsg)
	case TypeConflict:
		return fmt.Sprintf("Conflict: %s", baseMsg)
	case TypeForbidden:
		return fmt.Sprintf("Access denied: %s (hint: check the username and server permissions)", baseMsg)
	case TypeNotFound:
		return fmt.Sprintf("Not found: %s (hint: press r to reload)", baseMsg)
	case TypeNetwork:
		return fmt.Sprintf("Connection error: %s (hint: check that the server is running)", baseMsg)
	default:
		return fmt.Sprintf("Error: %s", baseMsg)
	}
}

// WrapWithHint wraps an error with an additional hint message.
func WrapWithHint(err error, hint string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w\n\nHint: %s", err, hint)
}

// NothingFound is the message for a listing that came back empty.
func NothingFound(collection string) string {
	return fmt.Sprintf("No resources in %s.", collection)
}
