// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translator

import (
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	sanitizePolicy = bluemonday.UGCPolicy()
	multiSpace     = regexp.MustCompile(`[ \t]{2,}`)
	multiNewline   = regexp.MustCompile(`\n{3,}`)
)

// SanitizeTranslation strips script and event-handler payloads from
// backend output and normalizes whitespace. Backends echo model output
// verbatim, so translated HTML is treated as untrusted user content.
func SanitizeTranslation(s string) string {
	s = sanitizePolicy.Sanitize(s)
	s = multiSpace.ReplaceAllString(s, " ")
	s = multiNewline.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
