// Package api hosts the thin HTTP surface beside the command socket.
//
// It carries a single concern: POST /api/auth/login exchanges a
// username/password pair for the JWT access token the socket handshake
// requires. All further interaction happens over the socket.
package api
