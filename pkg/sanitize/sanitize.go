package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var policy = bluemonday.StrictPolicy()

// maxPasses bounds how many layers of entity encoding Text peels off.
const maxPasses = 5

// Text strips markup from user supplied free text and trims surrounding whitespace.
// Entities are decoded only once the decoded text passes the policy unchanged, so
// encoded markup never comes back as live tags.
func Text(input string) string {
	text := strings.ReplaceAll(input, "\x00", "")
	for i := 0; i < maxPasses; i++ {
		cleaned := policy.Sanitize(text)
		decoded := html.UnescapeString(cleaned)
		if decoded == text {
			return strings.TrimSpace(decoded)
		}
		text = decoded
	}
	return strings.TrimSpace(policy.Sanitize(text))
}

// Optional sanitises a nullable field; blank results become nil.
func Optional(value *string) *string {
	if value == nil {
		return nil
	}

	cleaned := Text(*value)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}
