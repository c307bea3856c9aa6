// Package relay is the local relay process: a small HTTP endpoint that hands
// a rule off to an external sorting script and reports what the script
// printed. It sits outside the core sorting engine; the script's behavior is
// its own business.
package relay

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"os/exec"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// RunRequest is the payload accepted by POST /run.
type RunRequest struct {
	SenderEmail string `json:"sender_email"`
	LabelName   string `json:"label_name"`
}

// RunResponse is returned on success; ErrorResponse on failure.
type RunResponse struct {
	Output string `json:"output"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// Server spawns the configured command once per request, passing the sender
// address and label name as arguments.
type Server struct {
	command string
	args    []string
	log     *slog.Logger
}

// NewServer returns a relay that runs command with the given leading
// arguments; sender and label are appended per request.
func NewServer(command string, args []string, log *slog.Logger) *Server {
	return &Server{command: command, args: args, log: log}
}

// Router builds the relay's HTTP routes.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(chiMiddleware.Recoverer)
	r.Post("/run", s.handleRun)
	return r
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON body"})
		return
	}
	if req.SenderEmail == "" || req.LabelName == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "both sender_email and label_name are required"})
		return
	}

	args := append(append([]string{}, s.args...), req.SenderEmail, req.LabelName)
	cmd := exec.CommandContext(r.Context(), s.command, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	s.log.Info("running sort script", "sender", req.SenderEmail, "label", req.LabelName)
	if err := cmd.Run(); err != nil {
		detail := stderr.String()
		if detail == "" {
			detail = err.Error()
		}
		s.log.Error("sort script failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: detail})
		return
	}

	writeJSON(w, http.StatusOK, RunResponse{Output: stdout.String()})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
