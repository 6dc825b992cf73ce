package base

import (
	"errors"
	"fmt"

	"github.com/hashicorp-forge/fragments/pkg/auth"
	"github.com/hashicorp-forge/fragments/pkg/fragments"
)

// ErrorMessage renders err for the terminal by error kind.
func ErrorMessage(err error) string {
	var (
		authnErr *fragments.AuthenticationError
		netErr   *fragments.NetworkError
		apiErr   *fragments.APIError
		valErr   *fragments.ValidationError
		authErr  *auth.AuthError
	)

	switch {
	case errors.As(err, &authnErr), errors.Is(err, auth.ErrNoSession):
		return `Not signed in or session expired. Run "fragments login".`
	case errors.As(err, &netErr):
		return fmt.Sprintf("Could not reach the fragments service: %v", netErr.Err)
	case errors.As(err, &apiErr):
		return fmt.Sprintf("Error (%d): %s", apiErr.Status, apiErr.Message)
	case errors.As(err, &valErr):
		return valErr.Message
	case errors.As(err, &authErr):
		if authErr.Cause != nil {
			return fmt.Sprintf("%s: %v", authErr.Message, authErr.Cause)
		}
		return authErr.Message
	default:
		return err.Error()
	}
}

// Fail reports err on the UI and returns the failure exit code.
func (c *Command) Fail(err error) int {
	c.UI.Error(ErrorMessage(err))
	return 1
}
