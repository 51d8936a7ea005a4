// Package jwt issues and checks the short-lived HS512 access tokens handed out
// after a login code is verified. Verified claims travel in the request
// context so rate limiting can tell signed-in callers apart.
package jwt
