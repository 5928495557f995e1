// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/jeranaias/nova-tui/internal/attachment"
	"github.com/jeranaias/nova-tui/internal/config"
	"github.com/jeranaias/nova-tui/internal/model"
	"github.com/jeranaias/nova-tui/internal/remote"
	"github.com/jeranaias/nova-tui/internal/stream"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	// ExitConfigError covers a missing API key and invalid configuration.
	ExitConfigError = 2
	ExitUsageError  = 64
	ExitCancelled   = 130
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ValidationError is invalid user input on the command line.
type ValidationError struct {
	Field   string
	Value   string
	Reason  string
	Example string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got: %s)", e.Value)
	}
	if e.Example != "" {
		msg += fmt.Sprintf("\nExample: %s", e.Example)
	}
	return msg
}

// NewValidationError creates a ValidationError.
func NewValidationError(field, value, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var verrs config.ValidateErrors
	var cfgErr config.ValidationError
	switch {
	case remote.IsConfiguration(err), errors.As(err, &verrs), errors.As(err, &cfgErr):
		return ExitConfigError
	case errors.Is(err, stream.ErrCancelled), errors.Is(err, context.Canceled):
		return ExitCancelled
	}

	var validationErr *ValidationError
	var attachErr *attachment.InvalidAttachmentError
	if errors.As(err, &validationErr) || errors.As(err, &attachErr) ||
		errors.Is(err, stream.ErrEmptyTurn) || errors.Is(err, model.ErrUnknownModel) {
		return ExitUsageError
	}
	return ExitGeneralError
}

// DisplayError writes err for a human, or as a JSON object.
func DisplayError(w io.Writer, err error, jsonMode bool) {
	if err == nil {
		return
	}
	if !jsonMode {
		fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("[ERROR]"), err.Error())
		return
	}

	output := map[string]any{
		"error":     err.Error(),
		"success":   false,
		"exit_code": ExitCode(err),
	}
	var clientErr *remote.ClientError
	if errors.As(err, &clientErr) {
		output["error_type"] = clientErr.Type.String()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(output)
}
