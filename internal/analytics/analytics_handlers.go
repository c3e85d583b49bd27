package analytics

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

// board_opened: the kanban page was loaded
func BoardOpenedHandler(rec Recorder, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ColdStart bool   `json:"cold_start"`
			From      string `json:"from"` // link/bookmark/embed/unknown
		}
		_ = json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<10)).Decode(&body)

		ctx := r.Context()
		if _, ok := EnvelopeFromContext(ctx); !ok {
			ctx = WithEnvelope(ctx, FromRequest(r))
		}

		props := map[string]any{
			"cold_start": body.ColdStart,
			"from":       body.From,
		}
		if err := rec.Record(ctx, EventBoardOpened, props); err != nil {
			log.Warn().Err(err).Msg("failed to record board_opened")
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}
}
