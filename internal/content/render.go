// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"bytes"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

var renderPolicy = bluemonday.UGCPolicy()

// RenderBody converts an element's markdown body to sanitized HTML for
// view responses. Bodies may contain machine-translated markup, so the
// output always passes through the sanitizer.
func RenderBody(body string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(body), &buf); err != nil {
		return "", fmt.Errorf("rendering body: %w", err)
	}
	return renderPolicy.Sanitize(buf.String()), nil
}
