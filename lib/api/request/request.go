package request

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/render"
)

const maxBody = 64 << 10

// Bind decodes a JSON body rejecting unknown fields and trailing data, then
// runs the payload's own Bind
func Bind(r *http.Request, v render.Binder) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty body")
		}
		return fmt.Errorf("decode: %w", err)
	}
	if decoder.More() {
		return errors.New("unexpected data after JSON body")
	}
	return v.Bind(r)
}
