package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// maxBodySize caps request bodies; nothing this API accepts is large.
const maxBodySize = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

var errBadBody = errors.New("invalid request body")

// decodeJSON reads and validates a JSON request body into dst. dst must be a
// pointer to a struct carrying `validate` tags.
func decodeJSON(r *http.Request, dst any) error {
	body := http.MaxBytesReader(nil, r.Body, maxBodySize)
	defer func() {
		_, _ = io.Copy(io.Discard, body)
	}()

	if err := json.NewDecoder(body).Decode(dst); err != nil {
		return errBadBody
	}

	if err := validate.Struct(dst); err != nil {
		return errBadBody
	}
	return nil
}
