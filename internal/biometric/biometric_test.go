package biometric

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsole_Evaluate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"yes", "y\n", true},
		{"full yes uppercase", "YES\n", true},
		{"no", "n\n", false},
		{"empty line", "\n", false},
		{"no trailing newline", "y", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			c := NewConsole(bufio.NewReader(strings.NewReader(tt.input)), &out)

			got, err := c.Evaluate(context.Background(), "Unlock with fingerprint")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "Unlock with fingerprint [y/N]: ", out.String())
		})
	}
}

func TestConsole_EOF(t *testing.T) {
	c := NewConsole(bufio.NewReader(strings.NewReader("")), &bytes.Buffer{})
	_, err := c.Evaluate(context.Background(), "r")
	require.Error(t, err)
}

func TestConsole_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewConsole(bufio.NewReader(strings.NewReader("y\n")), &bytes.Buffer{})
	_, err := c.Evaluate(ctx, "r")
	require.ErrorIs(t, err, context.Canceled)
}

func TestUnavailable(t *testing.T) {
	ok, err := Unavailable{}.Evaluate(context.Background(), "r")
	assert.False(t, ok)
	require.ErrorIs(t, err, ErrNotAvailable)
}

func TestFunc(t *testing.T) {
	boom := errors.New("sensor")
	var e Evaluator = Func(func(_ context.Context, reason string) (bool, error) {
		return reason == "ok", boom
	})
	ok, err := e.Evaluate(context.Background(), "ok")
	assert.True(t, ok)
	assert.Same(t, boom, err)
}

func TestNew(t *testing.T) {
	in := bufio.NewReader(strings.NewReader(""))

	e, err := New("", in, &bytes.Buffer{})
	require.NoError(t, err)
	assert.IsType(t, Unavailable{}, e)

	e, err = New(ModeConsole, in, &bytes.Buffer{})
	require.NoError(t, err)
	assert.IsType(t, &Console{}, e)

	e, err = New(ModeAllow, in, &bytes.Buffer{})
	require.NoError(t, err)
	ok, err := e.Evaluate(context.Background(), "r")
	require.NoError(t, err)
	assert.True(t, ok)

	e, err = New(ModeDeny, in, &bytes.Buffer{})
	require.NoError(t, err)
	ok, err = e.Evaluate(context.Background(), "r")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = New("face-id", in, &bytes.Buffer{})
	require.Error(t, err)
}
