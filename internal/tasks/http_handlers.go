package tasks

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20

// CredentialSource resolves the board credential sent with a request.
type CredentialSource interface {
	Credential(r *http.Request, password string) string
}

type writeRequest struct {
	Password string `json:"password"`
	Task     Input  `json:"task"`
}

// -------------------------------
// HANDLERS
// -------------------------------

func ListHandler(s *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := s.List(r.Context())
		if err != nil {
			writeError(w, s.log, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func GetHandler(s *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		t, err := s.Get(r.Context(), id)
		if err != nil {
			writeError(w, s.log, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

func CreateHandler(s *Store, creds CredentialSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body writeRequest
		if !decode(w, r, &body) {
			return
		}

		id, err := s.Create(r.Context(), body.Task, creds.Credential(r, body.Password))
		if err != nil {
			writeError(w, s.log, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"id": id})
	}
}

func UpdateHandler(s *Store, creds CredentialSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var body writeRequest
		if !decode(w, r, &body) {
			return
		}
		if body.Task.ID != 0 && body.Task.ID != id {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "task id does not match path"})
			return
		}
		body.Task.ID = id

		if err := s.Update(r.Context(), body.Task, creds.Credential(r, body.Password)); err != nil {
			writeError(w, s.log, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}

func DeleteHandler(s *Store, creds CredentialSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var body struct {
			Password string `json:"password"`
		}
		if !decodeOptional(w, r, &body) {
			return
		}

		if err := s.Delete(r.Context(), id, creds.Credential(r, body.Password)); err != nil {
			writeError(w, s.log, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}

func MoveHandler(s *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var body struct {
			Status string `json:"status"`
		}
		if !decode(w, r, &body) {
			return
		}

		status, err := s.MoveStatus(r.Context(), id, body.Status)
		if err != nil {
			writeError(w, s.log, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "status": status})
	}
}

func AssignHandler(s *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var body struct {
			Assignee string `json:"assignee"`
		}
		if !decode(w, r, &body) {
			return
		}

		assignee, changed, err := s.Assign(r.Context(), id, body.Assignee)
		if err != nil {
			writeError(w, s.log, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "assignee": assignee, "changed": changed})
	}
}

func ToggleReviewHandler(s *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		flag, err := s.ToggleReviewFlag(r.Context(), id)
		if err != nil {
			writeError(w, s.log, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "needsReview": flag})
	}
}

func ArchiveHandler(s *Store, creds CredentialSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Password string `json:"password"`
		}
		if !decodeOptional(w, r, &body) {
			return
		}

		count, err := s.ArchiveCompleted(r.Context(), creds.Credential(r, body.Password))
		if err != nil {
			writeError(w, s.log, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"count": count})
	}
}

// -------------------------------
// HELPERS
// -------------------------------

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid task id"})
		return 0, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json"})
		return false
	}
	return true
}

// decodeOptional accepts an empty body, for requests authorized by a bearer
// token alone.
func decodeOptional(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json"})
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, log zerolog.Logger, err error) {
	kind := KindOf(err)
	msg := err.Error()
	if kind == KindInternal {
		var e *Error
		if !errors.As(err, &e) {
			log.Error().Err(err).Msg("unexpected error")
			msg = http.StatusText(http.StatusInternalServerError)
		}
	}
	writeJSON(w, kind.HTTPStatus(), map[string]any{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
