// Package clock lets expiry, cooldown and rate-limit windows be driven by an
// injectable time source. Manual is the controllable clock used in tests and
// by anything that needs to replay time deterministically.
package clock
