package httpapi

import (
	"encoding/json"
	"io"
	"net/http"

	stderrors "errors"

	"github.com/talenthive/recruiting_layer/internal/errors"
)

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError serializes the service error taxonomy as
// {"error":{"kind","message","details"}}. Anything outside the taxonomy is
// reported as an opaque internal error.
func writeError(w http.ResponseWriter, err error) {
	var se *errors.ServiceError
	if !stderrors.As(err, &se) {
		se = errors.Internal("internal server error", err)
	}
	writeJSON(w, errors.StatusOf(se), map[string]interface{}{"error": se})
}

// writeBadRequest wraps malformed-payload errors in the validation kind.
func writeBadRequest(w http.ResponseWriter, err error) {
	writeError(w, errors.Validation("invalid request body: "+err.Error()))
}
