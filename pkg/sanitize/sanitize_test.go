package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain text", input: "hello there", want: "hello there"},
		{name: "strips tags", input: "<b>hi</b><script>alert(1)</script>", want: "hi"},
		{name: "keeps ampersand", input: "fish & chips", want: "fish & chips"},
		{name: "trims", input: "  spaced  ", want: "spaced"},
		{name: "encoded script", input: "&lt;script&gt;x&lt;/script&gt;", want: ""},
		{name: "encoded img", input: "&lt;img src=x onerror=alert(1)&gt;", want: ""},
		{name: "double encoded", input: "&amp;lt;b&amp;gt;hi&amp;lt;/b&amp;gt;", want: "hi"},
		{name: "quotes", input: "it's \"fine\"", want: "it's \"fine\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Text(tt.input)
			assert.Equal(t, tt.want, got)
			assert.NotContains(t, got, "<")
		})
	}
}

func TestOptional(t *testing.T) {
	assert.Nil(t, Optional(nil))

	blank := "   "
	assert.Nil(t, Optional(&blank))

	value := "<i>hiking</i>"
	got := Optional(&value)
	if assert.NotNil(t, got) {
		assert.Equal(t, "hiking", *got)
	}
}
