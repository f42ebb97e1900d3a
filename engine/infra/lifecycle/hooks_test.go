package lifecycle_test

import (
	"context"
	"errors"
	"testing"

	"github.com/intrence/catalog/engine/infra/lifecycle"
	"github.com/intrence/catalog/pkg/logger"
	"github.com/stretchr/testify/assert"
)

func TestHooks_Shutdown(t *testing.T) {
	ctx := logger.ContextWithLogger(t.Context(), logger.NewLogger(logger.TestConfig()))

	t.Run("Should run hooks newest first and only once", func(t *testing.T) {
		h := lifecycle.New()
		var order []string
		h.Register("first", func(context.Context) error { order = append(order, "first"); return nil })
		h.Register("second", func(context.Context) error { order = append(order, "second"); return nil })

		h.Shutdown(ctx)
		h.Shutdown(ctx)

		assert.Equal(t, []string{"second", "first"}, order)
	})

	t.Run("Should keep going after a failing hook", func(t *testing.T) {
		h := lifecycle.New()
		ran := false
		h.Register("survivor", func(context.Context) error { ran = true; return nil })
		h.Register("broken", func(context.Context) error { return errors.New("close failed") })

		h.Shutdown(ctx)

		assert.True(t, ran)
	})

	t.Run("Should refuse registration after shutdown", func(t *testing.T) {
		h := lifecycle.New()
		h.Shutdown(ctx)
		assert.False(t, h.Register("late", func(context.Context) error { return nil }))
		assert.Equal(t, 0, h.Len())
	})
}
