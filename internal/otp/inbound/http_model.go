package inbound

type SendRequest struct {
	Identifier string `json:"identifier"`
	Type       string `json:"type"`
	Method     string `json:"method"`
}

type SendResponse struct {
	Identifier     string `json:"identifier"`
	ExpiresIn      int64  `json:"expiresIn"`
	DeliveryMethod string `json:"deliveryMethod"`
	CanResendAfter int64  `json:"canResendAfter"`
}

func (SendResponse) Message() string {
	return "OTP sent successfully"
}

type ResendRequest struct {
	Identifier string `json:"identifier"`
	Type       string `json:"type"`
	Method     string `json:"method"`
}

type ResendResponse SendResponse

func (ResendResponse) Message() string {
	return "OTP resent successfully"
}

type VerifyRequest struct {
	Identifier string `json:"identifier"`
	OTP        string `json:"otp"`
	Type       string `json:"type"`
}

type UserResponse struct {
	ID            int64  `json:"id,string"`
	Email         string `json:"email,omitempty"`
	Phone         string `json:"phone,omitempty"`
	IsVerified    bool   `json:"isVerified"`
	EmailVerified bool   `json:"emailVerified"`
	PhoneVerified bool   `json:"phoneVerified"`
	Points        int64  `json:"points"`
}

type VerifyResponse struct {
	Verified     bool          `json:"verified"`
	Type         string        `json:"type"`
	User         *UserResponse `json:"user,omitempty"`
	BonusAwarded bool          `json:"bonusAwarded,omitempty"`
	AccessToken  string        `json:"accessToken,omitempty"`
}

func (VerifyResponse) Message() string {
	return "OTP verified successfully"
}

type StatusResponse struct {
	Status        string `json:"status"`
	TimeRemaining int64  `json:"timeRemaining"`
	AttemptsLeft  int    `json:"attemptsLeft"`
	IsVerified    bool   `json:"isVerified"`
	CanResend     bool   `json:"canResend"`
}

type CancelRequest struct {
	Identifier string `json:"identifier"`
	Type       string `json:"type"`
}

type CancelResponse struct{}

func (CancelResponse) Message() string {
	return "OTP cancelled successfully"
}
