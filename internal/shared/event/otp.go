package event

import "time"

const OTPEventsDestination string = "otp_events"

const (
	OTPIssued         string = "otp.issued"
	OTPVerified       string = "otp.verified"
	OTPBlocked        string = "otp.blocked"
	OTPCancelled      string = "otp.cancelled"
	OTPDeliveryFailed string = "otp.delivery_failed"
)

// OTPMessage never carries the code or the raw identifier.
type OTPMessage struct {
	ID         int64     `json:"id,string"`
	Type       string    `json:"type"`
	Identifier string    `json:"identifier"`
	Purpose    string    `json:"purpose"`
	Channel    string    `json:"channel,omitempty"`
	Fallback   bool      `json:"fallback,omitempty"`
	UserID     int64     `json:"user_id,omitempty,string"`
	Timestamp  time.Time `json:"timestamp"`
}
