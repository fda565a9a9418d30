package model

import "time"

// Profile is the application-side record of an authenticated user.
// ID is the identity provider's user id.
type Profile struct {
	ID               string
	Email            string
	FullName         string
	Tier             Tier
	StripeCustomerID string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Identity is the verified caller of a request.
type Identity struct {
	UserID string
	Email  string
}

// Session is the result of a successful sign-in with the hosted auth service.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Identity     Identity
	FullName     string
}
