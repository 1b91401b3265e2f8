// Package web serves the local draft API used by the browser front end.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/conorfennell/studybuddy/internal/client"
	"github.com/conorfennell/studybuddy/internal/domain"
	"github.com/conorfennell/studybuddy/internal/draft"
	"github.com/conorfennell/studybuddy/internal/sync"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// DraftStore is the draft session the server edits.
type DraftStore interface {
	Add(d domain.Draft) error
	RemoveAt(index int) error
	Clear() error
	List() []domain.Draft
}

// Syncer uploads the draft session.
type Syncer interface {
	Sync(ctx context.Context) (domain.UploadResult, error)
	State() sync.State
	Last() *sync.Outcome
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	drafts DraftStore
	syncer Syncer
	router *mux.Router
	log    *zap.Logger
}

// NewServer creates and configures a new server.
func NewServer(drafts DraftStore, syncer Syncer, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		drafts: drafts,
		syncer: syncer,
		router: mux.NewRouter(),
		log:    log,
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// routes sets up the routing for the server.
func (s *Server) routes() {
	s.router.HandleFunc("/health", s.handleHealth()).Methods(http.MethodGet)

	s.router.HandleFunc("/drafts", s.handleListDrafts()).Methods(http.MethodGet)
	s.router.HandleFunc("/drafts", s.handleAddDraft()).Methods(http.MethodPost)
	s.router.HandleFunc("/drafts", s.handleClearDrafts()).Methods(http.MethodDelete)
	s.router.HandleFunc("/drafts/{index:[0-9]+}", s.handleRemoveDraft()).Methods(http.MethodDelete)

	s.router.HandleFunc("/sync", s.handleGetSync()).Methods(http.MethodGet)
	s.router.HandleFunc("/sync", s.handlePostSync()).Methods(http.MethodPost)
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

type draftsResponse struct {
	Drafts []domain.Draft `json:"drafts"`
	Count  int            `json:"count"`
}

func (s *Server) listResponse() draftsResponse {
	drafts := s.drafts.List()
	if drafts == nil {
		drafts = []domain.Draft{}
	}
	return draftsResponse{Drafts: drafts, Count: len(drafts)}
}

// handleListDrafts returns the pending drafts in insertion order.
func (s *Server) handleListDrafts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, s.listResponse())
	}
}

// handleAddDraft validates and appends one draft.
func (s *Server) handleAddDraft() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var d domain.Draft
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&d); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid JSON body", nil)
			return
		}

		if err := draft.Validate(d); err != nil {
			var invalid *draft.InvalidError
			if errors.As(err, &invalid) {
				s.writeError(w, http.StatusBadRequest, err.Error(), map[string]interface{}{"missing": invalid.Missing})
				return
			}
			s.writeError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}

		if err := s.drafts.Add(draft.Normalize(d)); err != nil {
			s.log.Error("Failed to add draft", zap.Error(err))
			s.writeError(w, http.StatusInternalServerError, "failed to save draft", nil)
			return
		}
		s.writeJSON(w, http.StatusCreated, s.listResponse())
	}
}

// handleRemoveDraft removes a draft by position. Out-of-range positions are
// ignored.
func (s *Server) handleRemoveDraft() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, err := strconv.Atoi(mux.Vars(r)["index"])
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid draft index", nil)
			return
		}

		if err := s.drafts.RemoveAt(index); err != nil {
			s.log.Error("Failed to remove draft", zap.Int("index", index), zap.Error(err))
			s.writeError(w, http.StatusInternalServerError, "failed to remove draft", nil)
			return
		}
		s.writeJSON(w, http.StatusOK, s.listResponse())
	}
}

// handleClearDrafts discards every pending draft.
func (s *Server) handleClearDrafts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.drafts.Clear(); err != nil {
			s.log.Error("Failed to clear drafts", zap.Error(err))
			s.writeError(w, http.StatusInternalServerError, "failed to clear drafts", nil)
			return
		}
		s.writeJSON(w, http.StatusOK, s.listResponse())
	}
}

type outcomeResponse struct {
	State     string     `json:"state"`
	Drafts    int        `json:"drafts"`
	Uploaded  int        `json:"uploaded"`
	Skipped   int        `json:"skipped"`
	Error     string     `json:"error,omitempty"`
	Retryable bool       `json:"retryable,omitempty"`
	Finished  *time.Time `json:"finished,omitempty"`
}

// handleGetSync reports whether a sync is running and how the last one ended.
func (s *Server) handleGetSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]interface{}{"state": s.syncer.State().String()}
		if last := s.syncer.Last(); last != nil {
			out := outcomeResponse{
				State:    last.State.String(),
				Drafts:   last.Drafts,
				Uploaded: last.Result.Uploaded,
				Skipped:  last.Result.Skipped,
				Finished: &last.Finished,
			}
			if last.Err != nil {
				out.Error = last.Err.Error()
				out.Retryable = client.IsRetryable(last.Err)
			}
			resp["last"] = out
		}
		s.writeJSON(w, http.StatusOK, resp)
	}
}

// handlePostSync uploads the pending drafts and waits for the outcome.
func (s *Server) handlePostSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := s.syncer.Sync(r.Context())
		if err != nil {
			status := syncStatus(err)
			if status == http.StatusInternalServerError {
				s.log.Error("Sync failed unexpectedly", zap.Error(err))
			}
			s.writeError(w, status, err.Error(), map[string]interface{}{"retryable": client.IsRetryable(err)})
			return
		}
		s.writeJSON(w, http.StatusOK, res)
	}
}

func syncStatus(err error) int {
	switch {
	case errors.Is(err, sync.ErrInFlight):
		return http.StatusConflict
	case errors.Is(err, client.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, client.ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, client.ErrNetwork), errors.Is(err, client.ErrServerRejection):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("Failed to write response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string, extra map[string]interface{}) {
	body := map[string]interface{}{"error": msg}
	for k, v := range extra {
		body[k] = v
	}
	s.writeJSON(w, status, body)
}
