package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestMatchLanguage(t *testing.T) {
	tests := []struct {
		accept   string
		expected language.Tag
	}{
		{"en-US,en;q=0.9", language.English},
		{"de-DE,de;q=0.9", language.German},
		{"fr-FR", language.English}, // Fallback
		{"", language.English},
	}

	for _, tt := range tests {
		got := MatchLanguage(tt.accept)
		base, _ := got.Base()
		exp, _ := tt.expected.Base()
		assert.Equal(t, exp, base, "Accept: %s", tt.accept)
	}
}

func TestLocaleFromEnv(t *testing.T) {
	tests := []struct {
		env      string
		expected language.Tag
	}{
		{"", language.English},
		{"C", language.English},
		{"de_DE.UTF-8", language.German},
		{"en_US.UTF-8", language.English},
	}

	for _, tt := range tests {
		t.Setenv("LC_ALL", "")
		t.Setenv("LANG", tt.env)
		base, _ := localeFromEnv().Base()
		exp, _ := tt.expected.Base()
		assert.Equal(t, exp, base, "LANG=%s", tt.env)
	}
}

func TestNewCLIPrinter(t *testing.T) {
	t.Setenv("LC_ALL", "en_US.UTF-8")
	p := NewCLIPrinter()
	assert.Equal(t, "1,234 routes", p.Sprintf("%d routes", 1234))
}
