// Package sms defines the contract for sending short text messages.
//
// Use cases depend on the SMS interface only. Concrete providers (Twilio, AWS
// SNS, and a log-only driver for local runs) are selected with NewFromDriver,
// and any of them can be wrapped with NewThrottled to stay under a provider's
// send rate.
package sms
