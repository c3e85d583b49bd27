package tasks

import "net/http"

// Register mounts the task API on mux.
func Register(mux *http.ServeMux, s *Store, creds CredentialSource) {
	mux.HandleFunc("GET /api/tasks", ListHandler(s))
	mux.HandleFunc("POST /api/tasks", CreateHandler(s, creds))
	mux.HandleFunc("POST /api/tasks/archive", ArchiveHandler(s, creds))

	mux.HandleFunc("GET /api/tasks/{id}", GetHandler(s))
	mux.HandleFunc("PUT /api/tasks/{id}", UpdateHandler(s, creds))
	mux.HandleFunc("DELETE /api/tasks/{id}", DeleteHandler(s, creds))

	// No credential on the drag and drop path.
	mux.HandleFunc("POST /api/tasks/{id}/move", MoveHandler(s))
	mux.HandleFunc("PATCH /api/tasks/{id}/status", MoveHandler(s))
	mux.HandleFunc("POST /api/tasks/{id}/assign", AssignHandler(s))
	mux.HandleFunc("POST /api/tasks/{id}/review", ToggleReviewHandler(s))
}
