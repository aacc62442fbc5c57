package requestid

import (
	"net/http"
	"regexp"

	"github.com/google/uuid"
)

// Header is the request id header read from requests and echoed in responses.
const Header = "X-Request-ID"

const maxIDLength = 128

var validID = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// New returns a fresh request id.
func New() string {
	return uuid.NewString()
}

// Middleware reuses a well-formed X-Request-ID header or generates a new id,
// stores it in the request context and echoes it in the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(Header)
		if !IsValid(requestID) {
			requestID = New()
		}
		w.Header().Set(Header, requestID)
		next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), requestID)))
	})
}

// IsValid reports whether id is a non-empty token of at most 128 letters,
// digits, dashes or underscores.
func IsValid(id string) bool {
	if id == "" || len(id) > maxIDLength {
		return false
	}
	return validID.MatchString(id)
}
