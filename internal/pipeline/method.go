package pipeline

import (
	"net/http"
	"regexp"
	"strings"
)

var allowedMethods = map[string]struct{}{
	http.MethodGet:     {},
	http.MethodPost:    {},
	http.MethodPut:     {},
	http.MethodDelete:  {},
	http.MethodOptions: {},
	http.MethodHead:    {},
}

const allowHeader = "GET, POST, PUT, DELETE, OPTIONS, HEAD"

var trailingNumericSegment = regexp.MustCompile(`/\d+$`)

// MethodValidation rejects unsupported methods and structurally invalid
// writes before any logging or handler work. It never returns an error;
// a rejection is a status on the exchange and an early return.
type MethodValidation struct{}

func (MethodValidation) Name() string { return "method_validation" }

func (MethodValidation) Serve(ex *Exchange, next Next) error {
	r := ex.Request

	if _, ok := allowedMethods[r.Method]; !ok {
		ex.Header().Set("Allow", allowHeader)
		reject(ex, http.StatusMethodNotAllowed)
		return nil
	}

	switch r.Method {
	case http.MethodPost:
		if !isJSON(r) {
			reject(ex, http.StatusUnsupportedMediaType)
			return nil
		}
	case http.MethodPut:
		if !isJSON(r) || !hasResourceID(r) {
			reject(ex, http.StatusBadRequest)
			return nil
		}
	case http.MethodDelete:
		if !hasResourceID(r) {
			reject(ex, http.StatusBadRequest)
			return nil
		}
	}

	return next(ex)
}

func reject(ex *Exchange, status int) {
	ex.ResetBody()
	ex.SetStatus(status)
}

func isJSON(r *http.Request) bool {
	return strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json")
}

// hasResourceID accepts a trailing numeric path segment or an id query
// parameter, even an empty one.
func hasResourceID(r *http.Request) bool {
	return trailingNumericSegment.MatchString(r.URL.Path) || r.URL.Query().Has("id")
}
