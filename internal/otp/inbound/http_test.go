package inbound

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/edubite/internal/otp/entity"
	"github.com/shandysiswandi/edubite/internal/otp/usecase"
	"github.com/shandysiswandi/edubite/internal/pkg/config"
	"github.com/shandysiswandi/edubite/internal/pkg/goerror"
	"github.com/shandysiswandi/edubite/internal/pkg/instrument"
	"github.com/shandysiswandi/edubite/internal/pkg/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticID string

func (s staticID) Generate() string { return string(s) }

type fakeUsecase struct {
	sendIn   usecase.SendInput
	cancelIn usecase.CancelInput
	statusIn usecase.StatusInput
	err      error
}

func (f *fakeUsecase) Send(_ context.Context, in usecase.SendInput) (*usecase.SendOutput, error) {
	f.sendIn = in
	if f.err != nil {
		return nil, f.err
	}
	return &usecase.SendOutput{Identifier: "a@***om", ExpiresIn: 600, DeliveryMethod: "email", CanResendAfter: 60}, nil
}

func (f *fakeUsecase) Verify(_ context.Context, _ usecase.VerifyInput) (*usecase.VerifyOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &usecase.VerifyOutput{
		Verified:     true,
		Type:         "verification",
		BonusAwarded: true,
		User:         &entity.User{ID: 42, Email: "a@b.com", IsVerified: true, EmailVerified: true, Points: 25},
	}, nil
}

func (f *fakeUsecase) Resend(_ context.Context, _ usecase.ResendInput) (*usecase.SendOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &usecase.SendOutput{Identifier: "+1***67", ExpiresIn: 600, DeliveryMethod: "sms", CanResendAfter: 60}, nil
}

func (f *fakeUsecase) Status(_ context.Context, in usecase.StatusInput) (*usecase.StatusOutput, error) {
	f.statusIn = in
	return &usecase.StatusOutput{Status: "active", TimeRemaining: 512, AttemptsLeft: 3, CanResend: true}, nil
}

func (f *fakeUsecase) Cancel(_ context.Context, in usecase.CancelInput) error {
	f.cancelIn = in
	return f.err
}

type successEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type errorEnvelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Error   map[string]string `json:"error"`
	Data    map[string]any    `json:"data"`
}

func newServer(t *testing.T, uc uc) *httptest.Server {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte("app:\n  name: edubite\n"))
	require.NoError(t, err)

	r := router.NewRouter(router.Config{
		Config:     cfg,
		UUID:       staticID("cid-1"),
		Instrument: instrument.NewNoop(),
	})
	RegisterHTTPEndpoint(r, uc)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, srv *httptest.Server, method, path string, payload any) (*http.Response, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		buf := &bytes.Buffer{}
		require.NoError(t, json.NewEncoder(buf).Encode(payload))
		body = buf
	}

	req, err := http.NewRequest(method, strings.TrimRight(srv.URL, "/")+path, body)
	require.NoError(t, err)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func decodeSuccess(t *testing.T, body []byte, out any) successEnvelope {
	t.Helper()

	var env successEnvelope
	require.NoError(t, json.Unmarshal(body, &env))
	if out != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return env
}

func decodeError(t *testing.T, body []byte) errorEnvelope {
	t.Helper()

	var env errorEnvelope
	require.NoError(t, json.Unmarshal(body, &env))
	return env
}

func TestHTTP_Send(t *testing.T) {
	// Arrange
	fuc := &fakeUsecase{}
	srv := newServer(t, fuc)

	// Act
	resp, body := doJSON(t, srv, http.MethodPost, "/api/v1/otp/send", map[string]string{
		"identifier": "a@b.com",
		"method":     "email",
	})

	// Assert
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var data map[string]any
	env := decodeSuccess(t, body, &data)
	assert.True(t, env.Success)
	assert.Equal(t, "OTP sent successfully", env.Message)
	assert.Equal(t, map[string]any{
		"identifier":     "a@***om",
		"expiresIn":      float64(600),
		"deliveryMethod": "email",
		"canResendAfter": float64(60),
	}, data)
	assert.Equal(t, usecase.SendInput{Identifier: "a@b.com", Method: "email"}, fuc.sendIn)
}

func TestHTTP_SendRejectsUnknownFields(t *testing.T) {
	srv := newServer(t, &fakeUsecase{})

	resp, body := doJSON(t, srv, http.MethodPost, "/api/v1/otp/send", map[string]string{
		"identifier": "a@b.com",
		"channel":    "email",
	})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.False(t, decodeError(t, body).Success)
}

func TestHTTP_RateLimited(t *testing.T) {
	srv := newServer(t, &fakeUsecase{
		err: goerror.NewTooManyRequest("Too many OTP requests, please try again later", 90*time.Second, map[string]any{
			"retryAfterSeconds": int64(90),
		}),
	})

	resp, body := doJSON(t, srv, http.MethodPost, "/api/v1/otp/send", map[string]string{"identifier": "a@b.com"})

	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "90", resp.Header.Get("Retry-After"))
	env := decodeError(t, body)
	assert.Equal(t, float64(90), env.Data["retryAfterSeconds"])
}

func TestHTTP_VerifyInvalidCode(t *testing.T) {
	srv := newServer(t, &fakeUsecase{
		err: goerror.NewBusinessWithData("Invalid OTP", goerror.CodeBadRequest, map[string]any{"attemptsLeft": 4}),
	})

	resp, body := doJSON(t, srv, http.MethodPost, "/api/v1/otp/verify", map[string]string{
		"identifier": "a@b.com",
		"otp":        "111111",
	})

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	env := decodeError(t, body)
	assert.Equal(t, "Invalid OTP", env.Message)
	assert.Equal(t, float64(4), env.Data["attemptsLeft"])
}

func TestHTTP_VerifySuccess(t *testing.T) {
	srv := newServer(t, &fakeUsecase{})

	resp, body := doJSON(t, srv, http.MethodPost, "/api/v1/otp/verify", map[string]string{
		"identifier": "a@b.com",
		"otp":        "042137",
	})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var data VerifyResponse
	decodeSuccess(t, body, &data)
	assert.True(t, data.Verified)
	require.NotNil(t, data.User)
	assert.Equal(t, int64(42), data.User.ID)
	assert.Equal(t, int64(25), data.User.Points)
	assert.Contains(t, string(body), `"isVerified":true`)
}

func TestHTTP_Resend(t *testing.T) {
	srv := newServer(t, &fakeUsecase{})

	resp, body := doJSON(t, srv, http.MethodPost, "/api/v1/otp/resend", map[string]string{"identifier": "+15551234567"})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	env := decodeSuccess(t, body, nil)
	assert.Equal(t, "OTP resent successfully", env.Message)
}

func TestHTTP_Status(t *testing.T) {
	fuc := &fakeUsecase{}
	srv := newServer(t, fuc)

	resp, body := doJSON(t, srv, http.MethodGet, "/api/v1/otp/status?identifier=a@b.com&type=login", nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var data StatusResponse
	decodeSuccess(t, body, &data)
	assert.Equal(t, StatusResponse{Status: "active", TimeRemaining: 512, AttemptsLeft: 3, CanResend: true}, data)
	assert.Equal(t, usecase.StatusInput{Identifier: "a@b.com", Type: "login"}, fuc.statusIn)
}

func TestHTTP_Cancel(t *testing.T) {
	t.Run("body", func(t *testing.T) {
		fuc := &fakeUsecase{}
		srv := newServer(t, fuc)

		resp, body := doJSON(t, srv, http.MethodDelete, "/api/v1/otp/cancel", map[string]string{"identifier": "a@b.com"})

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "OTP cancelled successfully", decodeSuccess(t, body, nil).Message)
		assert.Equal(t, "a@b.com", fuc.cancelIn.Identifier)
	})

	t.Run("query", func(t *testing.T) {
		fuc := &fakeUsecase{}
		srv := newServer(t, fuc)

		resp, _ := doJSON(t, srv, http.MethodDelete, "/api/v1/otp/cancel?identifier=%2B15551234567&type=login", nil)

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, usecase.CancelInput{Identifier: "+15551234567", Type: "login"}, fuc.cancelIn)
	})

	t.Run("not found", func(t *testing.T) {
		srv := newServer(t, &fakeUsecase{err: goerror.NewBusiness("No active OTP found", goerror.CodeNotFound)})

		resp, body := doJSON(t, srv, http.MethodDelete, "/api/v1/otp/cancel", map[string]string{"identifier": "a@b.com"})

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "No active OTP found", decodeError(t, body).Message)
	})
}
