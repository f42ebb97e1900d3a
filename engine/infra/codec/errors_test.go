package codec

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestDescribe(t *testing.T) {
	t.Run("Should keep short values intact", func(t *testing.T) {
		assert.Equal(t, "SMALL", describe("SMALL"))
		assert.Equal(t, `{"amount":"1"}`, describe([]byte(`{"amount":"1"}`)))
	})

	t.Run("Should truncate on a rune boundary", func(t *testing.T) {
		// 'é' is two bytes, so byte 120 falls inside a rune
		in := "x" + strings.Repeat("é", 100)
		out := describe(in)
		assert.True(t, utf8.ValidString(out))
		assert.True(t, strings.HasSuffix(out, "…"))
		assert.LessOrEqual(t, len(strings.TrimSuffix(out, "…")), 120)
		assert.Equal(t, 119, len(strings.TrimSuffix(out, "…")))
	})

	t.Run("Should keep decode errors valid UTF-8", func(t *testing.T) {
		err := &DecodeError{Value: describe("x" + strings.Repeat("ü", 200)), Target: "product.Price", Err: errNullValue}
		assert.True(t, utf8.ValidString(err.Error()))
	})
}
