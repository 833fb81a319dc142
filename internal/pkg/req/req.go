/*
Package req provides helper functions for HTTP request parsing and data binding.

Bodies are size-capped and decoded strictly: unknown fields and trailing
content are rejected with the matching business error.
*/
package req

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"bookshelf/internal/pkg/errs"
)

// MaxJSONBodySize caps the size of any JSON request body (1 MB).
const MaxJSONBodySize int64 = 1 << 20

// BindJSON decodes the JSON body of r into dst.
func BindJSON(w http.ResponseWriter, r *http.Request, dst any) *errs.CustomError {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxJSONBodySize)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errs.Wrap(errs.ErrInvalidParams, err)
		}
		return errs.Wrap(errs.ErrInvalidJSONFormat, err)
	}

	if decoder.More() {
		return errs.NewError(errs.ErrExtraContentInBody)
	}

	return nil
}
