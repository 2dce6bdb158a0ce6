package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// maxBodyBytes bounds the POST /users request body.
const maxBodyBytes = 1 << 20

// Response messages.
const (
	msgRoot          = "Hello World from Mackerel Tracing Sample!"
	msgUserCreated   = "User created successfully"
	msgFieldsMissing = "Name and email are required"
	defaultName      = "Anonymous"
)

type createUserRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required"`
}

type user struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type createUserResponse struct {
	Message string `json:"message"`
	User    user   `json:"user"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.log.InfoWithContext(r.Context(), "Request received for /", nil)
	writeText(w, http.StatusOK, msgRoot)
}

func (s *Server) handleHello(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		name = defaultName
	}
	s.log.InfoWithContext(r.Context(), "Request received for /hello", nil, map[string]interface{}{
		"name": name,
	})

	if err := s.simulateWork(r.Context()); err != nil {
		return
	}
	writeText(w, http.StatusOK, fmt.Sprintf("Hello, %s! This request should be traced.", name))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createUserRequest
	decodeErr := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req)
	s.log.InfoWithContext(ctx, "POST request received for /users", decodeErr, map[string]interface{}{
		"name": req.Name,
	})

	if err := s.simulateWork(ctx); err != nil {
		return
	}

	if decodeErr != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgFieldsMissing})
		return
	}
	if err := s.validate.StructCtx(ctx, req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgFieldsMissing})
		return
	}

	_, span := s.tracer.StartSpan(ctx, "create-user")
	span.SetAttributes(map[string]interface{}{"user.name": req.Name})
	span.End()

	writeJSON(w, http.StatusCreated, createUserResponse{
		Message: msgUserCreated,
		User:    user(req),
	})
}

// simulateWork stands in for an asynchronous dependency call. It returns the
// context error when the client goes away first.
func (s *Server) simulateWork(ctx context.Context) error {
	ctx, span := s.tracer.StartSpan(ctx, "simulate-work")
	defer span.End()
	span.SetAttributes(map[string]interface{}{"work.delay_ms": s.cfg.WorkDelay.Milliseconds()})

	timer := time.NewTimer(s.cfg.WorkDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		span.RecordError(ctx.Err())
		return ctx.Err()
	}
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
