package agents

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/helixir/research-desk/internal/domain"
)

func TestRequest_SystemOr(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "be brief", Request{System: " be brief "}.SystemOr("x"))
	assert.Equal(t, "x", Request{}.SystemOr("x"))
	assert.Equal(t, DefaultSystemPrompt, Request{System: "  "}.SystemOr(""))
}

func TestRequest_HasUser(t *testing.T) {
	t.Parallel()

	assert.True(t, Request{User: "hi"}.HasUser())
	assert.False(t, Request{User: " \n"}.HasUser())
}

func TestResult(t *testing.T) {
	t.Parallel()

	t.Run("ok trims text", func(t *testing.T) {
		t.Parallel()
		r := Ok("  answer \n")
		assert.False(t, r.IsErr())
		assert.Equal(t, "answer", r.Text())
		assert.Equal(t, "answer", r.Display())
	})

	t.Run("error renders diagnostic", func(t *testing.T) {
		t.Parallel()
		r := Err(errors.New("invalid key"))
		assert.True(t, r.IsErr())
		assert.Empty(t, r.Text())
		assert.Equal(t, "[Error generating LLM response: invalid key]", r.Display())
	})

	t.Run("nil error becomes empty completion", func(t *testing.T) {
		t.Parallel()
		assert.ErrorIs(t, Err(nil).Err(), ErrEmptyCompletion)
	})
}

func TestDeps(t *testing.T) {
	t.Parallel()

	d := Deps{Model: "configured"}
	assert.Equal(t, "asked", d.ModelFor(Request{Model: "asked"}, "def"))
	assert.Equal(t, "configured", d.ModelFor(Request{}, "def"))
	assert.Equal(t, "def", Deps{}.ModelFor(Request{}, "def"))

	assert.Equal(t, DefaultTimeout, Deps{}.TimeoutOr())
	assert.Equal(t, time.Second, Deps{Timeout: time.Second}.TimeoutOr())
}

func TestTransientError(t *testing.T) {
	t.Parallel()

	cause := errors.New("503 unavailable")
	err := fmt.Errorf("call: %w", NewTransientError("gemini", cause))

	assert.True(t, IsTransient(err))
	assert.ErrorIs(t, err, domain.ErrTransient)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "call: gemini: transient failure: 503 unavailable", err.Error())
	assert.False(t, IsTransient(cause))
}
