// Package auth issues and verifies the signed tokens used by streaming
// clients. Tokens are HS256 JWTs with a fixed lifetime; the signing key
// is a shared secret held in process memory and is not rotated.
package auth
