package auth

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// LoginHandler exchanges the board password for a bearer token.
func LoginHandler(m Middleware, ttl time.Duration, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Password string `json:"password"`
		}
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<10)).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json"})
			return
		}

		if !m.Matches(body.Password) {
			log.Warn().Msg("login with incorrect password")
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "incorrect password"})
			return
		}

		token, expiresAt, err := GenerateToken(m.tokenSecret, ttl, time.Now())
		if err != nil {
			log.Error().Err(err).Msg("failed to generate token")
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": http.StatusText(http.StatusInternalServerError)})
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"token":      token,
			"expires_at": expiresAt.UTC(),
		})
	}
}

func LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Tokens are stateless; the client drops its copy.
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
