// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package remote

import "errors"

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents a failure talking to the remote model service.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Is matches sentinel ClientErrors by type so wrapped instances compare equal.
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	if !ok {
		return false
	}
	return t.Type == e.Type && (t.Message == "" || t.Message == e.Message)
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	// ErrTypeConfiguration covers a missing or unusable credential. Fatal for
	// every remote call and never retried.
	ErrTypeConfiguration
	// ErrTypeTransport covers network and remote failures during a call.
	ErrTypeTransport
	// ErrTypeRefusal is returned when speech synthesis answers with text.
	ErrTypeRefusal
)

// String returns a short name for the error type.
func (t ErrorType) String() string {
	switch t {
	case ErrTypeConfiguration:
		return "configuration"
	case ErrTypeTransport:
		return "transport"
	case ErrTypeRefusal:
		return "refusal"
	default:
		return "unknown"
	}
}

// Sentinel errors for easy checking.
var (
	ErrMissingCredential = &ClientError{Type: ErrTypeConfiguration, Message: "API key is missing"}
	ErrNoAudio           = &ClientError{Type: ErrTypeTransport, Message: "no audio data returned"}
)

// NewTransportError wraps cause as a transport failure.
func NewTransportError(message string, cause error) *ClientError {
	return &ClientError{Type: ErrTypeTransport, Message: message, Cause: cause}
}

// NewRefusalError reports a synthesis call that returned text instead of audio.
func NewRefusalError(text string) *ClientError {
	return &ClientError{Type: ErrTypeRefusal, Message: "speech synthesis refused: " + text}
}

// IsConfiguration checks if an error is a configuration error.
func IsConfiguration(err error) bool {
	return isType(err, ErrTypeConfiguration)
}

// IsTransport checks if an error is a transport error.
func IsTransport(err error) bool {
	return isType(err, ErrTypeTransport)
}

// IsRefusal checks if an error is a synthesis refusal.
func IsRefusal(err error) bool {
	return isType(err, ErrTypeRefusal)
}

func isType(err error, t ErrorType) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == t
	}
	return false
}
