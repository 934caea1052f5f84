package notification

import (
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short kept", "Jesús es el camino", 120, "Jesús es el camino"},
		{"exact kept", strings.Repeat("a", 120), 120, strings.Repeat("a", 120)},
		{"long cut", strings.Repeat("a", 121), 120, strings.Repeat("a", 120) + "..."},
		{"runes not bytes", strings.Repeat("ñ", 10), 5, "ñññññ..."},
		{"prefix kept verbatim", "uno dos tres", 4, "uno ..."},
		{"disabled", strings.Repeat("a", 500), 0, strings.Repeat("a", 500)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.in, tt.max)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestDailyPayloadShape(t *testing.T) {
	b := Builder{Icon: "/icon-192x192.png", URL: "/"}
	p := b.Daily("Palabra del Día", strings.Repeat("x", 200))
	assert.Equal(t, 123, utf8.RuneCountInString(p.Body))

	raw, err := p.Marshal()
	require.NoError(t, err)
	var decoded map[string]string
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "Palabra del Día", decoded["title"])
	assert.Equal(t, "/icon-192x192.png", decoded["icon"])
	assert.Equal(t, "/", decoded["url"])
}

func TestCustomOverrides(t *testing.T) {
	b := Builder{Icon: "/icon.png", URL: "/"}
	p := b.Custom("Aviso", "Culto especial", "", "/eventos")
	assert.Equal(t, "/icon.png", p.Icon)
	assert.Equal(t, "/eventos", p.URL)
}

func TestMarshalRequiresTitle(t *testing.T) {
	_, err := Payload{Body: "x"}.Marshal()
	assert.ErrorIs(t, err, ErrEmptyPayload)
}
