package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoAgent struct{}

func (echoAgent) Slug() string { return "echo" }

func (echoAgent) GetLLMResponse(_ context.Context, req Request) (Result, error) {
	return Ok(req.User), nil
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	_, ok := r.Get("echo")
	assert.False(t, ok)

	r.Register("echo", func(context.Context, Deps) (Agent, error) { return echoAgent{}, nil })
	r.Register("alpha", func(context.Context, Deps) (Agent, error) { return echoAgent{}, nil })

	f, ok := r.Get("echo")
	require.True(t, ok)
	a, err := f(context.Background(), Deps{})
	require.NoError(t, err)

	res, err := a.GetLLMResponse(context.Background(), Request{User: "ping"})
	require.NoError(t, err)
	assert.Equal(t, "ping", res.Text())
	assert.Equal(t, []string{"alpha", "echo"}, r.Slugs())
}
