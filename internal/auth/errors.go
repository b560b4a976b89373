package auth

import "errors"

var (
	// ErrUpstreamAuth reports that the identity provider rejected the code exchange or
	// the profile fetch, or answered with something unusable.
	ErrUpstreamAuth = errors.New("upstream auth failure")
	// ErrEmailNotVerified reports a provider profile whose email is not verified.
	ErrEmailNotVerified = errors.New("email not verified")

	// ErrMissingCredential reports a request without a bearer credential.
	ErrMissingCredential = errors.New("missing credential")
	// ErrMalformedToken reports a session token that failed signature or format checks.
	ErrMalformedToken = errors.New("malformed or tampered token")
	// ErrExpiredToken reports a correctly signed session token past its expiry.
	ErrExpiredToken = errors.New("expired token")

	// ErrDirectory wraps every failure of the user directory.
	ErrDirectory = errors.New("user directory failure")
	// ErrDuplicateEmail is returned by Repository.CreateUser when the email is taken.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrUserNotFound is returned by update operations addressing a missing user.
	ErrUserNotFound = errors.New("user not found")
)
