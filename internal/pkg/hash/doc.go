// Package hash provides keyed digests for short-lived secrets.
//
// One-time codes are never stored in plaintext: callers persist the digest
// returned by Hash and later check a submitted value with Verify, which
// compares in constant time.
package hash
