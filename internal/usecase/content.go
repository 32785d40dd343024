package usecase

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"marketchat/internal/domain/entity"
	"marketchat/pkg/errors"
)

var (
	contentPolicy = bluemonday.StrictPolicy()
	newlines      = strings.NewReplacer("\r\n", "\n", "\r", "\n")
)

// normalizeContent trims surrounding whitespace, unifies line endings and
// enforces the 1..MaxMessageLength character bounds. Content is otherwise
// stored as typed; text the strict policy would alter is markup and is
// rejected rather than rewritten.
func normalizeContent(raw string) (string, error) {
	content := strings.TrimSpace(newlines.Replace(raw))

	if containsMarkup(content) {
		return "", errors.Validation("content must not contain HTML markup")
	}

	length := utf8.RuneCountInString(content)
	if length == 0 {
		return "", errors.Validation("content is required")
	}
	if length > entity.MaxMessageLength {
		return "", errors.Validation("content must be at most 1000 characters")
	}

	return content, nil
}

// containsMarkup compares decoded text before and after sanitizing, so
// escaping differences and typed entities such as "&lt;b&gt;" do not count.
func containsMarkup(content string) bool {
	return html.UnescapeString(contentPolicy.Sanitize(content)) != html.UnescapeString(content)
}
