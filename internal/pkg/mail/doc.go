// Package mail sends OTP email through SMTP or SendGrid, chosen by
// NewFromDriver from the "mail.driver" setting.
package mail
