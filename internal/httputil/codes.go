package httputil

// Machine-readable error codes returned alongside error messages so API
// clients can branch without parsing human-readable text.
const (
	CodeInvalidRequestBody  = "invalid_request_body"
	CodeInvalidCredentials  = "invalid_credentials"
	CodeInvalidAuthHeader   = "invalid_auth_header"
	CodeMissingAuth         = "missing_auth"
	CodeTokenExpired        = "token_expired"
	CodeInvalidToken        = "invalid_token"
	CodeRefreshTokenMissing = "refresh_token_missing"
	CodeEmailAlreadyExists  = "email_already_exists"
	CodeEmailRequired       = "email_required"
	CodePasswordRequired    = "password_required"
	CodePasswordTooShort    = "password_too_short"
	CodeInvalidEmailFormat  = "invalid_email_format"
	CodeTitleRequired       = "title_required"
	CodeNotFound            = "not_found"
	CodeInternalError       = "internal_error"
)
