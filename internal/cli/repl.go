package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// execIface is the command surface the REPL drives. App satisfies it;
// tests provide a lightweight stub.
type execIface interface {
	Status(ctx context.Context) error
	Setup(ctx context.Context) error
	Login(ctx context.Context) error
	Biometric(ctx context.Context) error
	Reset(ctx context.Context) error
	Cancel(ctx context.Context) error
	Logout(ctx context.Context) error
	Wipe(ctx context.Context) error
	Method(ctx context.Context, arg string) error
	Lifetime(ctx context.Context, arg string) error
}

const helpText = `Available commands:
  status                                 show authentication state
  setup                                  set the first passcode
  login                                  authenticate with the passcode
  bio                                    authenticate with biometrics
  reset                                  change the passcode
  cancel                                 abandon a pending passcode change
  logout                                 revoke the current token
  wipe                                   remove the passcode
  method <none|passcode|biometric>       preferred auth method
  lifetime <unset|5m|15m|30m|1h|2h|never> preferred token lifetime
  exit | quit                            leave the program`

// runREPL reads commands line by line from reader and dispatches them to a.
// The loop ends on EOF or "exit"/"quit". Handler errors are ignored here;
// handlers report their own failures to the user.
func runREPL(ctx context.Context, a execIface, promptFn func() string, reader *bufio.Reader, w io.Writer) {
	for {
		fmt.Fprintf(w, "gophlock %s> ", promptFn())

		line, err := readLine(reader)
		if err != nil {
			fmt.Fprintln(w)
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			fmt.Fprintln(w, helpText)
		case "status":
			_ = a.Status(ctx)
		case "setup":
			_ = a.Setup(ctx)
		case "login":
			_ = a.Login(ctx)
		case "bio":
			_ = a.Biometric(ctx)
		case "reset":
			_ = a.Reset(ctx)
		case "cancel":
			_ = a.Cancel(ctx)
		case "logout":
			_ = a.Logout(ctx)
		case "wipe":
			_ = a.Wipe(ctx)
		case "method", "lifetime":
			if len(args) != 1 {
				fmt.Fprintf(w, "Usage: %s <value>\n", cmd)
				continue
			}
			if cmd == "method" {
				_ = a.Method(ctx, args[0])
			} else {
				_ = a.Lifetime(ctx, args[0])
			}
		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return
		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
		}
	}
}
