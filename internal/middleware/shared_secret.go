package middleware

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/rentwise/api/internal/model"
)

// SharedSecretHeader carries the static community token
const SharedSecretHeader = "token"

// SharedSecret returns a middleware that compares the token header against
// a bcrypt hash. An empty hash rejects every request.
func SharedSecret(hash string) Middleware {
	hashed := []byte(hash)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(SharedSecretHeader)
			if token == "" || len(hashed) == 0 {
				sharedSecretError().WriteJSON(w)
				return
			}
			if err := bcrypt.CompareHashAndPassword(hashed, []byte(token)); err != nil {
				sharedSecretError().WriteJSON(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func sharedSecretError() *model.ProblemDetails {
	p := model.NewUnauthorizedError("Unauthorized")
	p.Code = model.ErrCodeSharedSecret
	return p
}
