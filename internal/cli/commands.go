package cli

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/dmitrijs2005/gophlock/internal/auth"
	"github.com/dmitrijs2005/gophlock/internal/common"
	"github.com/dmitrijs2005/gophlock/internal/preferences"
)

func (a *App) prompt() string {
	switch {
	case a.core.IsLockedOut():
		return "(locked)"
	case a.core.Phase() == auth.PhaseAwaitingVerification:
		return "(confirm passcode)"
	case a.core.ResetRequired():
		return "(reset required)"
	case a.core.IsAuthenticated():
		return "(unlocked)"
	default:
		return "(locked)"
	}
}

func (a *App) Status(ctx context.Context) error {
	has, err := a.core.HasCredential(ctx)
	if err != nil {
		return a.fail(ctx, err)
	}
	lifetime, err := a.core.TokenLifetime(ctx)
	if err != nil {
		return a.fail(ctx, err)
	}

	fmt.Fprintf(a.out, "passcode set:       %t\n", has)
	fmt.Fprintf(a.out, "auth method:        %s\n", a.core.AuthMethod())
	fmt.Fprintf(a.out, "token lifetime:     %s\n", lifetime)
	fmt.Fprintf(a.out, "authenticated:      %t\n", a.core.IsAuthenticated())
	fmt.Fprintf(a.out, "remaining attempts: %d\n", a.core.RemainingAttempts())
	fmt.Fprintf(a.out, "past sessions:      %d\n", len(a.core.SessionHistory()))
	if a.core.IsLockedOut() {
		fmt.Fprintf(a.out, "locked out for:     %ds\n", a.core.LockoutSecondsRemaining())
	}
	if a.core.ResetRequired() {
		fmt.Fprintln(a.out, "reset required:     true")
	}
	fmt.Fprintf(a.out, "phase:              %s\n", a.core.Phase())
	return nil
}

// Setup sets the first passcode, or the new one after reset.
func (a *App) Setup(ctx context.Context) error {
	passcode, err := GetPasscode(a.reader, "New passcode", a.out)
	if err != nil {
		return a.fail(ctx, err)
	}
	if err := a.core.SetPasscode(ctx, passcode); err != nil {
		if errors.Is(err, common.ErrPasscodeAlreadySet) {
			fmt.Fprintln(a.out, "A passcode is already set. Use 'reset' to change it.")
			return err
		}
		return a.fail(ctx, err)
	}

	confirm, err := GetPasscode(a.reader, "Repeat passcode", a.out)
	if err != nil {
		return a.fail(ctx, err)
	}
	res, err := a.core.VerifyNewPasscode(ctx, confirm)
	if err != nil {
		if errors.Is(err, common.ErrPasscodeMismatch) {
			fmt.Fprintln(a.out, "Passcodes do not match. Repeat with 'setup', or 'cancel' to abandon.")
			return err
		}
		return a.fail(ctx, err)
	}

	fmt.Fprintln(a.out, "Passcode saved.")
	a.printUnlocked(res)
	return nil
}

func (a *App) Login(ctx context.Context) error {
	if a.core.IsLockedOut() {
		fmt.Fprintf(a.out, "Locked out. Try again in %ds.\n", a.core.LockoutSecondsRemaining())
		return common.ErrLockedOut
	}

	passcode, err := GetPasscode(a.reader, "Passcode", a.out)
	if err != nil {
		return a.fail(ctx, err)
	}

	res, err := a.core.Authenticate(ctx, passcode)
	if err != nil {
		if errors.Is(err, common.ErrIncorrectPasscode) && !res.LockedOut {
			fmt.Fprintf(a.out, "Incorrect passcode. %d attempt(s) left.\n", res.RemainingAttempts)
			return err
		}
		return a.fail(ctx, err)
	}

	a.printUnlocked(res)
	return nil
}

func (a *App) Biometric(ctx context.Context) error {
	res, err := a.core.AuthenticateWithBiometrics(ctx, "")
	if err != nil {
		return a.fail(ctx, err)
	}
	a.printUnlocked(res)
	return nil
}

// Reset starts a passcode change and runs the set-up prompts.
func (a *App) Reset(ctx context.Context) error {
	if err := a.core.ResetPasscode(ctx); err != nil {
		if errors.Is(err, common.ErrUnauthorized) {
			fmt.Fprintln(a.out, "Log in first to change the passcode.")
			return err
		}
		return a.fail(ctx, err)
	}
	return a.Setup(ctx)
}

func (a *App) Cancel(ctx context.Context) error {
	if err := a.core.CancelReset(ctx); err != nil {
		return a.fail(ctx, err)
	}
	fmt.Fprintln(a.out, "Passcode change cancelled.")
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if !a.core.Revoke(ctx) {
		if a.core.AuthMethod() == preferences.AuthMethodNone {
			fmt.Fprintln(a.out, "No auth method configured; nothing to log out of.")
		} else {
			fmt.Fprintln(a.out, "Not logged in.")
		}
		return nil
	}
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

func (a *App) Wipe(ctx context.Context) error {
	if err := a.core.RemovePasscode(ctx); err != nil {
		return a.fail(ctx, err)
	}
	fmt.Fprintln(a.out, "Passcode removed.")
	return nil
}

func (a *App) Method(ctx context.Context, arg string) error {
	m, err := preferences.ParseAuthMethod(arg)
	if err != nil {
		return a.fail(ctx, err)
	}
	if err := a.core.SetAuthMethod(ctx, m); err != nil {
		return a.fail(ctx, err)
	}
	fmt.Fprintf(a.out, "Auth method set to %s.\n", m)
	return nil
}

func (a *App) Lifetime(ctx context.Context, arg string) error {
	l, err := preferences.ParseTokenLifetime(arg)
	if err != nil {
		return a.fail(ctx, err)
	}
	if err := a.core.SetTokenLifetime(ctx, l); err != nil {
		return a.fail(ctx, err)
	}
	fmt.Fprintf(a.out, "Token lifetime set to %s.\n", l)
	return nil
}

func (a *App) printUnlocked(res auth.Result) {
	if res.Token.ID == "" {
		fmt.Fprintln(a.out, "Unlocked.")
		return
	}
	fmt.Fprintf(a.out, "Unlocked until %s.\n", res.Token.ExpiresAt.Local().Format(time.DateTime))
}

// fail prints a user-facing description of err and returns it.
func (a *App) fail(ctx context.Context, err error) error {
	fmt.Fprintln(a.out, describe(err))
	switch {
	case errors.Is(err, common.ErrHashingFailure), errors.Is(err, common.ErrPersistFailure):
		a.log.Error(ctx, "command failed", "error", err)
	default:
		a.log.Debug(ctx, "command failed", "error", err)
	}
	return err
}

func describe(err error) string {
	switch {
	case errors.Is(err, common.ErrValidation):
		return "Invalid input: " + err.Error()
	case errors.Is(err, common.ErrUnauthorized):
		return "Log in first."
	case errors.Is(err, common.ErrLockedOut):
		return "Locked out after too many failed attempts."
	case errors.Is(err, common.ErrIncorrectPasscode):
		return "Incorrect passcode."
	case errors.Is(err, common.ErrCredentialNotFound):
		return "No passcode set. Run 'setup' first."
	case errors.Is(err, common.ErrSaltUnavailable):
		return "Stored passcode is unusable. Run 'setup' to set a new one."
	case errors.Is(err, common.ErrNoPendingPasscode):
		return "No passcode change in progress."
	case errors.Is(err, common.ErrBiometricDenied):
		return "Biometric check was declined."
	case errors.Is(err, common.ErrBiometricUnavailable):
		return "Biometric authentication is not available."
	case errors.Is(err, common.ErrHashingFailure):
		return "Internal error while checking the passcode."
	case errors.Is(err, common.ErrPersistFailure):
		return "Could not save changes."
	default:
		return "Error: " + err.Error()
	}
}

func ceilSeconds(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}

func formatSeconds(d time.Duration) string {
	return (time.Duration(ceilSeconds(d)) * time.Second).String()
}
