package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

const maxBodyBytes = 1 << 20

var errTrailingJSON = errors.New("multiple json values")

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	_, err := decodeBody(w, r, dst, false)
	return err
}

// decodeJSONAllowEmpty is decodeJSON for optional bodies. It reports whether
// the body was empty.
func decodeJSONAllowEmpty(w http.ResponseWriter, r *http.Request, dst any) (bool, error) {
	return decodeBody(w, r, dst, true)
}

// decodeBody reads exactly one JSON value with no unknown fields.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) (empty bool, err error) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return true, nil
		}
		return false, err
	}
	switch err := dec.Decode(&struct{}{}); {
	case err == nil:
		return false, errTrailingJSON
	case !errors.Is(err, io.EOF):
		return false, err
	}
	return false, nil
}
