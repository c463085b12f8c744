package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		want        string
		wantCleaned bool
	}{
		{name: "plain", input: "Bonjour", want: "Bonjour"},
		{name: "trimmed only", input: "  Merci \n", want: "Merci"},
		{name: "nul byte", input: "a\x00b", want: "ab", wantCleaned: true},
		{name: "invalid utf8", input: "caf\xe9", want: "caf", wantCleaned: true},
		{name: "accents kept", input: "Clôturée", want: "Clôturée"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, cleaned := CleanText(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantCleaned, cleaned)
		})
	}
}

func TestCleanOptionalText(t *testing.T) {
	assert.Nil(t, CleanOptionalText(nil))

	blank := "   "
	assert.Nil(t, CleanOptionalText(&blank))

	notes := " porte côté cour "
	got := CleanOptionalText(&notes)
	if assert.NotNil(t, got) {
		assert.Equal(t, "porte côté cour", *got)
	}
}
