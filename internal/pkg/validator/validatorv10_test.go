package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type verifyPayload struct {
	Identifier string `validate:"required,max=254,identifier"`
	OTPCode    string `validate:"required,otpcode"`
	Purpose    string `validate:"omitempty,oneof=verification login password_reset phone_verification"`
}

func TestV10Validator_Validate(t *testing.T) {
	v, err := NewV10Validator()
	require.NoError(t, err)

	tests := []struct {
		name    string
		in      verifyPayload
		wantErr map[string]string
	}{
		{
			name: "valid",
			in:   verifyPayload{Identifier: "a@b.com", OTPCode: "012345", Purpose: "login"},
		},
		{
			name: "all zeros is a valid code",
			in:   verifyPayload{Identifier: "a@b.com", OTPCode: "000000"},
		},
		{
			name:    "short code",
			in:      verifyPayload{Identifier: "a@b.com", OTPCode: "12345"},
			wantErr: map[string]string{"otpCode": "OTPCode must be exactly 6 digits"},
		},
		{
			name:    "signed code",
			in:      verifyPayload{Identifier: "a@b.com", OTPCode: "+12345"},
			wantErr: map[string]string{"otpCode": "OTPCode must be exactly 6 digits"},
		},
		{
			name:    "unknown purpose",
			in:      verifyPayload{Identifier: "a@b.com", OTPCode: "123456", Purpose: "signup"},
			wantErr: map[string]string{"purpose": "Purpose must be one of [verification login password_reset phone_verification]"},
		},
		{
			name: "phone identifier",
			in:   verifyPayload{Identifier: "+6281234567890", OTPCode: "123456"},
		},
		{
			name:    "phone without plus",
			in:      verifyPayload{Identifier: "6281234567890", OTPCode: "123456"},
			wantErr: map[string]string{"identifier": "Identifier must be a valid email or phone number"},
		},
		{
			name:    "phone too long",
			in:      verifyPayload{Identifier: "+1234567890123456", OTPCode: "123456"},
			wantErr: map[string]string{"identifier": "Identifier must be a valid email or phone number"},
		},
		{
			name:    "email without domain dot",
			in:      verifyPayload{Identifier: "a@b", OTPCode: "123456"},
			wantErr: map[string]string{"identifier": "Identifier must be a valid email or phone number"},
		},
		{
			name:    "missing identifier",
			in:      verifyPayload{OTPCode: "123456"},
			wantErr: map[string]string{"identifier": "Identifier is a required field"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			err := v.Validate(tt.in)

			// Assert
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}

			var verr V10ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantErr, verr.Values())
		})
	}
}

func TestV10ValidationError_Error(t *testing.T) {
	assert.Equal(t, "validation error", V10ValidationError{}.Error())
	assert.JSONEq(t, `{"otpCode":"bad"}`, V10ValidationError{"otpCode": "bad"}.Error())
}
