package namespace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNormalizesBase(t *testing.T) {
	assert.Equal(t, Namespace("http://example.org/shapes/"), New("http://example.org/shapes"))
	assert.Equal(t, Namespace("http://example.org/shapes/"), New("http://example.org/shapes/"))
	assert.Equal(t, Namespace("http://example.org/onto#"), New("http://example.org/onto#"))
}

func TestGenerateIdentifier(t *testing.T) {
	tests := []struct {
		name  string
		base  string
		label string
		want  string
	}{
		{"plain", "http://example.org/shapes/", "PersonShape", "http://example.org/shapes/PersonShape"},
		{"base without slash", "http://example.org/shapes", "Person", "http://example.org/shapes/Person"},
		{"hash base", "http://example.org/onto#", "Person", "http://example.org/onto#Person"},
		{"spaces", "http://e/", "first name", "http://e/first_name"},
		{"stripped", "http://e/", "A/B:c.d", "http://e/ABcd"},
		{"keeps dash and underscore", "http://e/", "a-b_c", "http://e/a-b_c"},
		{"unicode letters", "http://e/", "café", "http://e/café"},
		{"empty label", "http://e/", "", "http://e/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GenerateIdentifier(tt.base, tt.label).Value)
		})
	}
}

func TestGenerateIdentifierDeterministic(t *testing.T) {
	for _, label := range []string{"", "x", "hello world", "A/B", "ünïcode"} {
		a := GenerateIdentifier("http://example.org/shapes/", label)
		b := GenerateIdentifier("http://example.org/shapes/", label)
		assert.Equal(t, a, b)
	}
}

func TestMinterCollisions(t *testing.T) {
	m := NewMinter(New("http://e/"), false, nil)
	first := m.Mint("A/B")
	second := m.Mint("AB")
	assert.Equal(t, first, second, "collision is kept without disambiguation")
	assert.Equal(t, 1, m.Collisions())
	assert.Equal(t, first, m.Mint("A/B"), "same label is stable")

	d := NewMinter(New("http://e/"), true, nil)
	a := d.Mint("A/B")
	b := d.Mint("A.B")
	require.NotEqual(t, a, b)
	assert.Equal(t, "http://e/AB", a.Value)
	assert.Regexp(t, `^http://e/AB-[0-9a-f]{8}$`, b.Value)
	assert.Equal(t, b, d.Mint("A.B"))
	assert.Equal(t, 1, d.Collisions())
}

func TestSanitizeKeepsNumbers(t *testing.T) {
	assert.Equal(t, "x\u00b2_\u00bd_cup", Sanitize("x\u00b2 \u00bd cup"))
	assert.Equal(t, "AB", Sanitize("A/B"))
}

func TestSanitizeComposesAccents(t *testing.T) {
	decomposed := "Cafe\u0301 menu"
	assert.Equal(t, "Caf\u00e9_menu", Sanitize(decomposed))
	assert.Equal(t, Sanitize("Caf\u00e9 menu"), Sanitize(decomposed))
}
