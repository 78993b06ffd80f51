package mock_server

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/brojonat/server-tools/stools"
	"github.com/gorilla/handlers"
)

// healthMode wraps the health routes: panics become 500s, responses are JSON
// and any origin may call them.
func healthMode(logger *slog.Logger) stools.HandlerAdapter {
	return func(next http.HandlerFunc) http.HandlerFunc {
		next = makeGraceful(logger)(next)
		next = setContentType("application/json")(next)
		return handlers.CORS(
			handlers.AllowedMethods([]string{http.MethodGet}),
			handlers.AllowedOrigins([]string{"*"}),
		)(next).ServeHTTP
	}
}

func makeGraceful(logger *slog.Logger) stools.HandlerAdapter {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("recovered from panic", "error", fmt.Sprint(err))
					http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		}
	}
}

func setContentType(content string) stools.HandlerAdapter {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", content)
			next(w, r)
		}
	}
}
