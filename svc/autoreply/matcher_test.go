package autoreply_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/botfleet/svc/autoreply"
)

func TestMatcher_Match(t *testing.T) {
	t.Parallel()

	m := autoreply.NewMatcher()

	tests := []struct {
		text string
		want bool
	}{
		{"fotos", true},
		{"Me pasas las FOTOS?", true},
		{"Fotografías por favor", true},
		{"tienes imágenes   de  referencia", true},
		{"send pics", true},
		{"una fotito", true},
		{"hola", false},
		{"", false},
		{"precio?", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, m.Match(tt.text))
		})
	}
}

func TestMatcher_CustomTriggers(t *testing.T) {
	t.Parallel()

	m := autoreply.NewMatcher("Catálogo", " ")
	assert.Equal(t, []string{"catalogo"}, m.Triggers())
	assert.True(t, m.Match("quiero el CATALOGO"))
	assert.False(t, m.Match("fotos"))

	fallback := autoreply.NewMatcher("", "  ")
	assert.Len(t, fallback.Triggers(), len(autoreply.DefaultTriggers))
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "imagenes de referencia", autoreply.Normalize("  Imágenes\tDE referencia "))
	assert.Equal(t, "strasse", autoreply.Normalize("STRASSE"))
}
