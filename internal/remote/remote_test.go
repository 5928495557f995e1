// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package remote

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientError_Classification(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		config    bool
		transport bool
		refusal   bool
	}{
		{"missing credential", ErrMissingCredential, true, false, false},
		{"wrapped credential", fmt.Errorf("send: %w", ErrMissingCredential), true, false, false},
		{"transport", NewTransportError("stream failed", io.ErrUnexpectedEOF), false, true, false},
		{"refusal", NewRefusalError("I cannot read that"), false, false, true},
		{"plain error", errors.New("boom"), false, false, false},
		{"nil", nil, false, false, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.config, IsConfiguration(tc.err))
			assert.Equal(t, tc.transport, IsTransport(tc.err))
			assert.Equal(t, tc.refusal, IsRefusal(tc.err))
		})
	}
}

func TestClientError_UnwrapAndIs(t *testing.T) {
	err := NewTransportError("stream failed", io.ErrUnexpectedEOF)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Equal(t, "stream failed: unexpected EOF", err.Error())

	wrapped := fmt.Errorf("turn: %w", &ClientError{Type: ErrTypeConfiguration, Message: ErrMissingCredential.Message})
	assert.ErrorIs(t, wrapped, ErrMissingCredential)
	assert.NotErrorIs(t, err, ErrMissingCredential)
}

func TestErrorType_String(t *testing.T) {
	assert.Equal(t, "configuration", ErrTypeConfiguration.String())
	assert.Equal(t, "transport", ErrTypeTransport.String())
	assert.Equal(t, "refusal", ErrTypeRefusal.String())
	assert.Equal(t, "unknown", ErrTypeUnknown.String())
}

func TestSliceStream(t *testing.T) {
	s := NewSliceStream([]string{"He", "llo"}, nil)
	text, err := Collect(s)
	require.NoError(t, err)
	assert.Equal(t, "Hello", text)

	_, err = s.Next()
	assert.ErrorIs(t, err, io.ErrClosedPipe)
}

func TestSliceStream_TrailingError(t *testing.T) {
	boom := NewTransportError("reset", nil)
	text, err := Collect(NewSliceStream([]string{"Hello "}, boom))
	assert.Equal(t, "Hello ", text)
	assert.True(t, IsTransport(err))
}

func TestPartConstructors(t *testing.T) {
	assert.False(t, TextPart("hi").IsInline())
	p := InlinePart("image/png", []byte{1, 2})
	assert.True(t, p.IsInline())
	assert.Equal(t, "image/png", p.MIMEType)
}
