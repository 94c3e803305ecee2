package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// validate is shared across handlers; validator instances cache struct
// metadata and are safe for concurrent use.
var validate = validator.New(validator.WithRequiredStructEnabled())

var errBadRequest = errors.New("invalid request body")

// decodeJSON parses and validates a JSON request body into dst. Unknown
// fields are rejected so client typos fail loudly instead of silently.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errBadRequest
	}
	if err := validate.Struct(dst); err != nil {
		return errBadRequest
	}
	return nil
}
