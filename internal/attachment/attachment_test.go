// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package attachment

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngHeader is enough for content sniffing to report image/png.
var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D}

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		wantMIME string
		wantData string
		wantErr  bool
	}{
		{"png", "data:image/png;base64,aGVsbG8=", "image/png", "hello", false},
		{"with params", "data:image/jpeg;name=a.jpg;base64,aGk=", "image/jpeg", "hi", false},
		{"no prefix", "image/png;base64,aGk=", "", "", true},
		{"no comma", "data:image/png;base64", "", "", true},
		{"not base64", "data:image/png,aGk=", "", "", true},
		{"empty mime", "data:;base64,aGk=", "", "", true},
		{"mime without slash", "data:png;base64,aGk=", "", "", true},
		{"empty payload", "data:image/png;base64,", "", "", true},
		{"bad payload", "data:image/png;base64,@@@", "", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			img, err := Parse(tc.uri)
			if tc.wantErr {
				var invalidErr *InvalidAttachmentError
				require.True(t, errors.As(err, &invalidErr), "want InvalidAttachmentError, got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantMIME, img.MIMEType)
			assert.Equal(t, tc.wantData, string(img.Data))
		})
	}
}

func TestParseAll_ReportsIndex(t *testing.T) {
	_, err := ParseAll([]string{Encode("image/png", []byte("ok")), "garbage"})
	var invalidErr *InvalidAttachmentError
	require.ErrorAs(t, err, &invalidErr)
	assert.Equal(t, 1, invalidErr.Index)
	assert.Contains(t, err.Error(), "invalid attachment 1")

	imgs, err := ParseAll(nil)
	require.NoError(t, err)
	assert.Empty(t, imgs)
}

func TestEncodeRoundTrip(t *testing.T) {
	uri := Encode("image/webp", []byte{0, 1, 2, 255})
	img, err := Parse(uri)
	require.NoError(t, err)
	assert.Equal(t, "image/webp", img.MIMEType)
	assert.Equal(t, []byte{0, 1, 2, 255}, img.Data)
}

func TestEncodeFile(t *testing.T) {
	dir := t.TempDir()

	pngPath := filepath.Join(dir, "pic.png")
	require.NoError(t, os.WriteFile(pngPath, pngHeader, 0o644))
	uri, err := EncodeFile(pngPath)
	require.NoError(t, err)
	assert.Contains(t, uri, "data:image/png;base64,")

	txtPath := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte("just text"), 0o644))
	_, err = EncodeFile(txtPath)
	var invalidErr *InvalidAttachmentError
	require.ErrorAs(t, err, &invalidErr)

	_, err = EncodeFile(dir)
	require.ErrorAs(t, err, &invalidErr)

	_, err = EncodeFile(filepath.Join(dir, "missing.png"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "image/png, 5 B", Describe(Encode("image/png", []byte("hello"))))
	assert.Equal(t, "image/png, 2 KB", Describe(Encode("image/png", make([]byte, 2048))))
	assert.Equal(t, "invalid attachment", Describe("nope"))
}
