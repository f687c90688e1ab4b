// Package identity binds HTTP requests to a user id.
//
// The default resolver verifies HS256 session JWTs from the Authorization
// header or the session cookie and takes the user id from the sub claim.
// Middleware stores the id in the request context; anonymous requests pass
// through untouched so the access gate can decide what to do with them.
package identity
