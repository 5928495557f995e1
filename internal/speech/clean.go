// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// EmptyInputError is returned when there is nothing to speak.
type EmptyInputError struct{}

func (*EmptyInputError) Error() string {
	return "text is empty after cleaning"
}

// markupStripper removes renderer control characters that must not be vocalized.
var markupStripper = strings.NewReplacer(
	"*", "",
	"#", "",
	"`", "",
	"_", "",
	"[", "",
	"]", "",
)

// CleanText removes markup characters and surrounding whitespace. When that
// leaves nothing but the input had visible content, the trimmed input is
// used as is.
func CleanText(text string) (string, error) {
	text = norm.NFC.String(text)
	clean := strings.TrimSpace(markupStripper.Replace(text))
	if clean == "" {
		clean = strings.TrimSpace(text)
	}
	if clean == "" {
		return "", &EmptyInputError{}
	}
	return clean, nil
}
