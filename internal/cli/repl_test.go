package cli

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	calls []string
}

func (f *fakeExec) record(name string) error {
	f.calls = append(f.calls, name)
	return nil
}

func (f *fakeExec) Status(context.Context) error    { return f.record("status") }
func (f *fakeExec) Setup(context.Context) error     { return f.record("setup") }
func (f *fakeExec) Login(context.Context) error     { return f.record("login") }
func (f *fakeExec) Biometric(context.Context) error { return f.record("bio") }
func (f *fakeExec) Reset(context.Context) error     { return f.record("reset") }
func (f *fakeExec) Cancel(context.Context) error    { return f.record("cancel") }
func (f *fakeExec) Logout(context.Context) error    { return f.record("logout") }
func (f *fakeExec) Wipe(context.Context) error      { return f.record("wipe") }
func (f *fakeExec) Method(_ context.Context, arg string) error {
	return f.record("method " + arg)
}
func (f *fakeExec) Lifetime(_ context.Context, arg string) error {
	return f.record("lifetime " + arg)
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	input := strings.Join([]string{
		"help",
		"status",
		"",
		"setup",
		"login",
		"bio",
		"reset",
		"cancel",
		"method biometric",
		"lifetime 5m",
		"method",
		"logout",
		"wipe",
		"foobar",
		"exit",
		"login",
	}, "\n")

	exec := &fakeExec{}
	var out bytes.Buffer

	runREPL(context.Background(), exec, func() string { return "(test)" }, bufio.NewReader(strings.NewReader(input)), &out)

	assert.Equal(t, []string{
		"status", "setup", "login", "bio", "reset", "cancel",
		"method biometric", "lifetime 5m", "logout", "wipe",
	}, exec.calls)

	s := out.String()
	assert.Contains(t, s, "gophlock (test)> ")
	assert.Contains(t, s, "Available commands:")
	assert.Contains(t, s, "Usage: method <value>")
	assert.Contains(t, s, "Unknown command: foobar")
	assert.Contains(t, s, "Bye!")
}

func TestRunREPL_StopsOnEOF(t *testing.T) {
	exec := &fakeExec{}
	var out bytes.Buffer

	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewReader(strings.NewReader("status")), &out)

	assert.Equal(t, []string{"status"}, exec.calls)
	assert.NotContains(t, out.String(), "Bye!")
}
