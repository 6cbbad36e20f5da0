// Package cli provides the interactive gophlock command-line client.
//
// NewApp wires configuration, storage, the passcode hasher, the attempt
// limiter, the token lifecycle and the auth core, and subscribes to core
// events so lockouts and token expiry are reported as they happen. App.Run
// starts the REPL and blocks until the user exits.
//
// Commands:
//   - setup / reset / cancel     set, change or abandon a passcode
//   - login / bio / logout       authenticate or sign out
//   - method <m>, lifetime <l>   change preferences
//   - status, help, exit | quit
package cli
