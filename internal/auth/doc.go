// Package auth provides authentication and authorisation for the Hearth hub.
//
// It implements a 3-tier role model (user, admin, owner) with:
//   - Argon2id password hashing
//   - JWT access tokens validated by signature only (no database hit)
//   - First-boot owner seeding with a generated password
//
// Access tokens carry the role claim, so the socket dispatcher can gate
// admin-only commands without touching storage.
package auth
