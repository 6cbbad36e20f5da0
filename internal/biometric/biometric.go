// Package biometric adapts the platform's biometric prompt to a small
// interface. Platform integrations live outside this module; the
// implementations here cover hosts without biometric hardware, tests and
// the interactive console.
package biometric

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Evaluator asks the user to confirm their identity. It returns (false, nil)
// when the user declined or failed the check and an error when the check
// could not be performed at all.
type Evaluator interface {
	Evaluate(ctx context.Context, reason string) (bool, error)
}

var ErrNotAvailable = errors.New("biometric authentication is not available on this device")

const (
	ModeUnavailable = "unavailable"
	ModeConsole     = "console"
	ModeAllow       = "allow"
	ModeDeny        = "deny"
)

// Func lets a plain function act as an Evaluator.
type Func func(ctx context.Context, reason string) (bool, error)

func (f Func) Evaluate(ctx context.Context, reason string) (bool, error) {
	return f(ctx, reason)
}

// Unavailable always fails with ErrNotAvailable.
type Unavailable struct{}

func (Unavailable) Evaluate(context.Context, string) (bool, error) {
	return false, ErrNotAvailable
}

// Fixed returns the same answer every time.
type Fixed bool

func (f Fixed) Evaluate(ctx context.Context, _ string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return bool(f), nil
}

// Console asks for a y/N confirmation on a terminal.
type Console struct {
	in  *bufio.Reader
	out io.Writer
}

func NewConsole(in *bufio.Reader, out io.Writer) *Console {
	return &Console{in: in, out: out}
}

func (c *Console) Evaluate(ctx context.Context, reason string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if _, err := fmt.Fprintf(c.out, "%s [y/N]: ", reason); err != nil {
		return false, err
	}
	line, err := c.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// New builds the evaluator configured by mode. The console evaluator reads
// from in and writes its prompt to out.
func New(mode string, in *bufio.Reader, out io.Writer) (Evaluator, error) {
	switch mode {
	case "", ModeUnavailable:
		return Unavailable{}, nil
	case ModeConsole:
		return NewConsole(in, out), nil
	case ModeAllow:
		return Fixed(true), nil
	case ModeDeny:
		return Fixed(false), nil
	default:
		return nil, fmt.Errorf("unknown biometric mode %q", mode)
	}
}
