package inbound

import (
	"net/http"

	"github.com/shandysiswandi/edubite/internal/otp/usecase"
	"github.com/shandysiswandi/edubite/internal/pkg/router"
)

// HTTPEndpoint exposes HTTP handlers for the OTP lifecycle.
type HTTPEndpoint struct {
	uc uc
}

// Send issues a code and delivers it.
// @Summary Send OTP
// @Description Generates a 6-digit code for the identifier and delivers it by email, SMS or both.
// @Tags OTP
// @Accept json
// @Produce json
// @Param request body SendRequest true "Send payload"
// @Success 200 {object} router.envelope{data=SendResponse} "Masked acknowledgement"
// @Failure 400 {object} router.envelope "Validation error"
// @Failure 404 {object} router.envelope "User not found"
// @Failure 429 {object} router.envelope "Too many OTP requests"
// @Failure 500 {object} router.envelope "Failed to send OTP"
// @Router /api/v1/otp/send [post]
func (h *HTTPEndpoint) Send(r *router.Request) (any, error) {
	var req SendRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Send(r.Context(), usecase.SendInput{
		Identifier: req.Identifier,
		Type:       req.Type,
		Method:     req.Method,
	})
	if err != nil {
		return nil, err
	}

	return SendResponse{
		Identifier:     resp.Identifier,
		ExpiresIn:      resp.ExpiresIn,
		DeliveryMethod: resp.DeliveryMethod,
		CanResendAfter: resp.CanResendAfter,
	}, nil
}

// Verify checks a submitted code.
// @Summary Verify OTP
// @Tags OTP
// @Accept json
// @Produce json
// @Param request body VerifyRequest true "Verify payload"
// @Success 200 {object} router.envelope{data=VerifyResponse} "Verification result"
// @Failure 400 {object} router.envelope "Invalid, expired or used OTP; data carries attemptsLeft"
// @Failure 404 {object} router.envelope "OTP not found or expired"
// @Failure 429 {object} router.envelope "Too many verification attempts from this address"
// @Router /api/v1/otp/verify [post]
func (h *HTTPEndpoint) Verify(r *router.Request) (any, error) {
	var req VerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Verify(r.Context(), usecase.VerifyInput{
		Identifier: req.Identifier,
		OTP:        req.OTP,
		Type:       req.Type,
	})
	if err != nil {
		return nil, err
	}

	out := VerifyResponse{
		Verified:     resp.Verified,
		Type:         resp.Type,
		BonusAwarded: resp.BonusAwarded,
		AccessToken:  resp.AccessToken,
	}
	if u := resp.User; u != nil {
		out.User = &UserResponse{
			ID:            u.ID,
			Email:         u.Email,
			Phone:         u.Phone,
			IsVerified:    u.IsVerified,
			EmailVerified: u.EmailVerified,
			PhoneVerified: u.PhoneVerified,
			Points:        u.Points,
		}
	}

	return out, nil
}

// Resend reissues a code for an existing request.
// @Summary Resend OTP
// @Tags OTP
// @Accept json
// @Produce json
// @Param request body ResendRequest true "Resend payload"
// @Success 200 {object} router.envelope{data=ResendResponse} "Masked acknowledgement"
// @Failure 404 {object} router.envelope "No OTP request found"
// @Failure 429 {object} router.envelope "Cooldown active; data carries cooldownRemaining"
// @Router /api/v1/otp/resend [post]
func (h *HTTPEndpoint) Resend(r *router.Request) (any, error) {
	var req ResendRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Resend(r.Context(), usecase.ResendInput{
		Identifier: req.Identifier,
		Type:       req.Type,
		Method:     req.Method,
	})
	if err != nil {
		return nil, err
	}

	return ResendResponse{
		Identifier:     resp.Identifier,
		ExpiresIn:      resp.ExpiresIn,
		DeliveryMethod: resp.DeliveryMethod,
		CanResendAfter: resp.CanResendAfter,
	}, nil
}

// Status reports the state of the current code without changing it.
// @Summary OTP status
// @Tags OTP
// @Produce json
// @Param identifier query string true "Email or phone number"
// @Param type query string false "verification, login, password_reset or phone_verification"
// @Success 200 {object} router.envelope{data=StatusResponse} "Current state"
// @Router /api/v1/otp/status [get]
func (h *HTTPEndpoint) Status(r *router.Request) (any, error) {
	resp, err := h.uc.Status(r.Context(), usecase.StatusInput{
		Identifier: r.GetQuery("identifier"),
		Type:       r.GetQuery("type"),
	})
	if err != nil {
		return nil, err
	}

	return StatusResponse{
		Status:        resp.Status,
		TimeRemaining: resp.TimeRemaining,
		AttemptsLeft:  resp.AttemptsLeft,
		IsVerified:    resp.IsVerified,
		CanResend:     resp.CanResend,
	}, nil
}

// Cancel deletes the current code. Identifier and type may come from the
// JSON body or, when the body is empty, from the query string.
// @Summary Cancel OTP
// @Tags OTP
// @Accept json
// @Produce json
// @Param request body CancelRequest false "Cancel payload"
// @Success 200 {object} router.envelope "OTP cancelled"
// @Failure 404 {object} router.envelope "No active OTP found"
// @Router /api/v1/otp/cancel [delete]
func (h *HTTPEndpoint) Cancel(r *router.Request) (any, error) {
	var req CancelRequest
	if r.Body == nil || r.Body == http.NoBody || r.ContentLength == 0 {
		req.Identifier = r.GetQuery("identifier")
		req.Type = r.GetQuery("type")
	} else if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.Cancel(r.Context(), usecase.CancelInput{
		Identifier: req.Identifier,
		Type:       req.Type,
	}); err != nil {
		return nil, err
	}

	return CancelResponse{}, nil
}
