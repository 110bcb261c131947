package auth

import (
	"github.com/go-playground/validator/v10"

	"chat-relay/errors"
)

var validate = validator.New()

// IdentityPayload is the first frame a connection must send. Both fields are
// mandatory; there is deliberately no password or token, the known-email
// check is the whole authentication scheme.
type IdentityPayload struct {
	Name  string `validate:"required"`
	Email string `validate:"required"`
}

func ValidateIdentity(payload IdentityPayload) error {
	if err := validate.Struct(payload); err != nil {
		return errors.ErrMissingIdentity
	}
	return nil
}
