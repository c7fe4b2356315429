package auth

import "errors"

var (
	// ErrInvalidCredentials is the single opaque failure for login and
	// refresh. It never distinguishes an unknown email from a wrong password
	// or a missing refresh-token hash.
	ErrInvalidCredentials = errors.New("credential is not valid")

	// ErrRefreshTokenMissing is returned by extractors when the request
	// carries no refresh token at all.
	ErrRefreshTokenMissing = errors.New("refresh token missing")
)

// InvalidCredentialsMessage is the user-visible message for every
// unauthorized login/refresh outcome.
const InvalidCredentialsMessage = "Credential is not valid"
