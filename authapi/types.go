package authapi

import (
	"github.com/go-playground/validator/v10"

	apperrors "github.com/mediascan/console/internal/errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// RegisterRequest is the JSON body of POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Validate rejects requests the API would refuse anyway.
func (r RegisterRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		var fieldErrs validator.ValidationErrors
		if apperrors.As(err, &fieldErrs) && len(fieldErrs) > 0 && fieldErrs[0].Field() == "Email" {
			return apperrors.Wrapf(apperrors.ErrInvalidEmail, "register")
		}
		return apperrors.Wrapf(apperrors.ErrMissingInput, "register")
	}
	return nil
}
