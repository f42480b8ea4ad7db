package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLocalized(t *testing.T) {
	t.Run("plain string", func(t *testing.T) {
		l := ParseLocalized("Welcome")
		assert.False(t, l.IsLocalized())
		assert.Equal(t, "Welcome", l.Plain)
	})
	t.Run("localized object", func(t *testing.T) {
		l := ParseLocalized(`{"en":"Welcome","sv":"Välkommen"}`)
		assert.True(t, l.IsLocalized())
		assert.Equal(t, "Welcome", l.Values["en"])
	})
	t.Run("broken json stays plain", func(t *testing.T) {
		l := ParseLocalized(`{"en":`)
		assert.False(t, l.IsLocalized())
		assert.Equal(t, `{"en":`, l.Plain)
	})
	t.Run("empty object stays plain", func(t *testing.T) {
		l := ParseLocalized(`{}`)
		assert.False(t, l.IsLocalized())
	})
}

func TestLocalize(t *testing.T) {
	raw := `{"en":"Welcome","sv":"Välkommen"}`
	assert.Equal(t, "Välkommen", Localize(raw, "sv", "en"))
	assert.Equal(t, "Welcome", Localize(raw, "de", "en"))
	// neither preferred nor fallback present: first key in lexical order
	assert.Equal(t, "Welcome", Localize(raw, "de", "fr"))
	assert.Equal(t, "Hello", Localize("Hello", "sv", "en"))
	assert.Equal(t, "", Localize("", "sv", "en"))
}
