// Package auth provides password and token based authentication for the
// media API: bcrypt hashing, purpose bound JWTs, a bun backed user store and
// go-router HTTP helpers.
//
// Tokens:
//   - TokenService signs access and confirmation tokens with one signing
//     context. Each token carries a type claim and is only accepted for the
//     purpose it was issued for, so a confirmation link cannot be replayed as
//     a bearer token.
//   - NewMultiTokenValidator accepts tokens signed with a previous key while
//     keys rotate.
//
// Accounts:
//   - Register stores a user with a bcrypt hash and returns a confirmation
//     token. Login refuses accounts that are not confirmed yet.
//   - Failed logins report the same error whether the email is unknown or the
//     password is wrong.
//
// Activity sinks:
//   - ActivitySink receives register, login and confirm events. Sinks run
//     best-effort (errors are logged) so metrics or audit logs never block
//     authentication.
package auth
