package auth

import "github.com/goliatone/go-errors"

// Stable machine-readable codes surfaced in the `code` field of error
// envelopes. Clients branch on these, never on messages.
const (
	TextCodeInvalidCredentials  = "INVALID_CREDENTIALS"
	TextCodeDuplicateIdentity   = "DUPLICATE_IDENTITY"
	TextCodeUnauthorized        = "UNAUTHORIZED"
	TextCodeTokenExpired        = "TOKEN_EXPIRED"
	TextCodeTokenInvalid        = "TOKEN_INVALID"
	TextCodeForbidden           = "FORBIDDEN"
	TextCodeMissingRefreshToken = "REFRESH_TOKEN_MISSING"
	TextCodeIdentityNotFound    = "IDENTITY_NOT_FOUND"
	TextCodePasswordMismatch    = "PASSWORD_MISMATCH"
)

// ErrInvalidCredentials covers both unknown email and wrong password. The
// two cases must stay indistinguishable to block account enumeration.
var ErrInvalidCredentials = errors.New("invalid credentials", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrDuplicateIdentity is returned when registering an email that exists.
var ErrDuplicateIdentity = errors.New("a user with this email already exists", errors.CategoryConflict).
	WithTextCode(TextCodeDuplicateIdentity).
	WithCode(errors.CodeConflict)

// ErrUnauthorized is the generic missing/invalid access credential failure.
var ErrUnauthorized = errors.New("access denied, token required", errors.CategoryAuth).
	WithTextCode(TextCodeUnauthorized).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired signals the credential is past expiry. It carries a
// distinct text code so clients call refresh instead of prompting re-login.
var ErrTokenExpired = errors.New("token expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenInvalid covers malformed, mis-signed, and wrong-kind credentials.
var ErrTokenInvalid = errors.New("invalid token", errors.CategoryAuth).
	WithTextCode(TextCodeTokenInvalid).
	WithCode(errors.CodeUnauthorized)

// ErrForbidden is a role mismatch on an authenticated request.
var ErrForbidden = errors.New("insufficient permissions for this action", errors.CategoryAuthz).
	WithTextCode(TextCodeForbidden).
	WithCode(errors.CodeForbidden)

// ErrMissingRefreshToken means the refresh cookie is absent.
var ErrMissingRefreshToken = errors.New("refresh token not found", errors.CategoryAuth).
	WithTextCode(TextCodeMissingRefreshToken).
	WithCode(errors.CodeUnauthorized)

// ErrIdentityNotFound means the subject behind a verified credential is gone
// or soft-deleted.
var ErrIdentityNotFound = errors.New("user not found", errors.CategoryNotFound).
	WithTextCode(TextCodeIdentityNotFound).
	WithCode(errors.CodeNotFound)

// ErrPasswordMismatch is returned by change-password when the current
// password does not verify.
var ErrPasswordMismatch = errors.New("current password is incorrect", errors.CategoryBadInput).
	WithTextCode(TextCodePasswordMismatch).
	WithCode(errors.CodeBadRequest)
