package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLine(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "The Brave Fox", "The Brave Fox"},
		{"trims", "  The Brave Fox \n", "The Brave Fox"},
		{"collapses runs", "The\t Brave   Fox", "The Brave Fox"},
		{"drops control", "The\x00Brave", "The Brave"},
		{"composes", "Cafe\u0301", "Caf\u00e9"},
		{"empty", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Line(tt.input))
		})
	}
}

func TestContainsHTML(t *testing.T) {
	assert.True(t, ContainsHTML("<p>Once</p>"))
	assert.True(t, ContainsHTML("Line<BR/>break"))
	assert.False(t, ContainsHTML("3 < 5 and 5 > 3"))
	assert.False(t, ContainsHTML("Once upon a time"))
}

func TestContent(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain untouched", "Once upon a time.", "Once upon a time."},
		{"html paragraphs", "<p>Once upon a time.</p><p>The <strong>end</strong>.</p>", "Once upon a time.\n\nThe **end**."},
		{"crlf", "One\r\nTwo", "One\nTwo"},
		{"trailing spaces", "One   \nTwo  ", "One\nTwo"},
		{"blank runs", "One\n\n\n\nTwo", "One\n\nTwo"},
		{"composes", "Cafe\u0301", "Caf\u00e9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Content(tt.input))
		})
	}
}
