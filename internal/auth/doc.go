// Package auth is the local authentication core. It composes the credential
// hasher, the salt/credential store, the attempt limiter and the token
// lifecycle behind a single Core that the UI drives.
//
// Passcode set-up and change are two-step: SetPasscode hashes the new
// passcode into a pending slot, VerifyNewPasscode re-hashes the second entry
// with the same pending salt and commits hash and salt together on a match.
//
// Credential-reading and credential-mutating operations are serialized, so a
// verify never races a reset commit. State changes are published on the
// events bus; see the Subscribe* methods.
package auth
