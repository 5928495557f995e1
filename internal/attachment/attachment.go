// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package attachment converts image files to and from data URIs.
package attachment

import (
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// MaxImageSize bounds files read by EncodeFile.
const MaxImageSize = 20 << 20

// =============================================================================
// ERRORS
// =============================================================================

// InvalidAttachmentError reports a data URI or file that cannot be attached.
type InvalidAttachmentError struct {
	// Index is the position of the attachment in its turn, or -1.
	Index  int
	Reason string
}

func (e *InvalidAttachmentError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("invalid attachment %d: %s", e.Index, e.Reason)
	}
	return "invalid attachment: " + e.Reason
}

func invalid(reason string) *InvalidAttachmentError {
	return &InvalidAttachmentError{Index: -1, Reason: reason}
}

// =============================================================================
// DATA URI
// =============================================================================

// Image is a decoded attachment.
type Image struct {
	MIMEType string
	Data     []byte
}

// Parse splits a data URI of the form data:<mime>;base64,<payload>.
func Parse(uri string) (Image, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return Image{}, invalid("missing data: prefix")
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return Image{}, invalid("missing ',' separator")
	}
	i := strings.LastIndexByte(header, ';')
	if i < 0 || header[i+1:] != "base64" {
		return Image{}, invalid("payload is not base64 encoded")
	}
	mimeType, _, _ := strings.Cut(header[:i], ";")
	if mimeType == "" || !strings.Contains(mimeType, "/") {
		return Image{}, invalid(fmt.Sprintf("bad mime type %q", mimeType))
	}
	if payload == "" {
		return Image{}, invalid("empty payload")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Image{}, invalid("payload: " + err.Error())
	}
	return Image{MIMEType: mimeType, Data: data}, nil
}

// ParseAll parses every URI, reporting the index of the first bad one.
func ParseAll(uris []string) ([]Image, error) {
	out := make([]Image, 0, len(uris))
	for i, uri := range uris {
		img, err := Parse(uri)
		if err != nil {
			e := err.(*InvalidAttachmentError)
			e.Index = i
			return nil, e
		}
		out = append(out, img)
	}
	return out, nil
}

// Encode builds a data URI for data.
func Encode(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// EncodeFile reads an image file and returns it as a data URI.
func EncodeFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return "", invalid(path + " is a directory")
	}
	if info.Size() > MaxImageSize {
		return "", invalid(fmt.Sprintf("%s is larger than %d MB", filepath.Base(path), MaxImageSize>>20))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	mimeType := DetectMIMEType(path, data)
	if !strings.HasPrefix(mimeType, "image/") {
		return "", invalid(fmt.Sprintf("%s is %s, not an image", filepath.Base(path), mimeType))
	}
	return Encode(mimeType, data), nil
}

// DetectMIMEType sniffs the content, falling back to the file extension.
func DetectMIMEType(path string, data []byte) string {
	sniffed := http.DetectContentType(data)
	if strings.HasPrefix(sniffed, "image/") {
		return sniffed
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); byExt != "" {
		if i := strings.IndexByte(byExt, ';'); i >= 0 {
			byExt = byExt[:i]
		}
		return byExt
	}
	return sniffed
}

// Describe returns a short label like "image/png, 12 KB".
func Describe(uri string) string {
	img, err := Parse(uri)
	if err != nil {
		return "invalid attachment"
	}
	return fmt.Sprintf("%s, %s", img.MIMEType, formatSize(len(img.Data)))
}

func formatSize(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%d KB", n>>10)
	default:
		return fmt.Sprintf("%d B", n)
	}
}
