package entity

import (
	"errors"
	"time"
)

var (
	// ErrNoChannel is returned when no usable channel exists for a delivery.
	ErrNoChannel = errors.New("delivery: no usable channel")
	// ErrDeliveryFailed is returned when every attempted channel failed.
	ErrDeliveryFailed = errors.New("delivery: send failed")
)

// DeliveryRequest describes one code to deliver. User may be nil when the
// identifier has no account yet.
type DeliveryRequest struct {
	Identifier string
	Code       string
	Purpose    Purpose
	Method     Method
	User       *User
	ExpiresIn  time.Duration
}

// DeliveryResult reports where the code went.
type DeliveryResult struct {
	Channel  Channel
	Fallback bool
}
