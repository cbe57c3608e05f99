package session

import (
	"github.com/mediascan/console/authapi"
	apperrors "github.com/mediascan/console/internal/errors"
)

// Messages surfaced through Result.Message and Snapshot.LastError
const (
	MsgMissingInput     = "Email and password are required."
	MsgSecretMismatch   = "Passwords do not match."
	MsgLoginFailed      = "Login failed. Please check your credentials."
	MsgRegisterFailed   = "Registration failed. Please try again."
	MsgProfileFailed    = "Signed in, but your profile could not be loaded."
	MsgUnreachable      = "Unable to reach the authentication service. Please try again."
	MsgSuperseded       = "This sign-in attempt was replaced by a newer one."
	MsgStoreUnavailable = "Session storage is unavailable."
	MsgInProgress       = "A sign-in is already in progress."
	MsgInvalidEmail     = "Enter a valid email address."
)

// MessageFor picks the text shown for a failed Auth API call. Transport and
// authentication failures share state handling and differ only here.
func MessageFor(err error, fallback string) string {
	if apperrors.Is(err, apperrors.ErrTransport) {
		return MsgUnreachable
	}
	if apperrors.Is(err, apperrors.ErrInvalidEmail) {
		return MsgInvalidEmail
	}
	if detail, ok := authapi.Detail(err); ok {
		return detail
	}
	return fallback
}

// ConfirmSecret is the caller-side check required before Register.
func ConfirmSecret(secret, confirmation string) error {
	if secret != confirmation {
		return apperrors.ErrSecretMismatch
	}
	return nil
}
