package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/smartsell/internal/session"
	domain "github.com/donaldgifford/smartsell/pkg/types"
)

// SessionsHandler manages per-client filter sessions.
type SessionsHandler struct {
	store *session.Store
}

// NewSessionsHandler creates a new SessionsHandler.
func NewSessionsHandler(s *session.Store) *SessionsHandler {
	return &SessionsHandler{store: s}
}

// --- Input/Output types ---

// SessionBody is the wire form of a session.
type SessionBody struct {
	ID        string            `json:"id"`
	DatasetID string            `json:"dataset_id"`
	LoadID    string            `json:"load_id"   doc:"Snapshot the current view was computed from"`
	Spec      domain.FilterSpec `json:"spec"      doc:"Last accepted filter spec"`
	ViewSize  int               `json:"view_size" doc:"Number of records in the current view"`
	CreatedAt time.Time         `json:"created_at"`
	LastSeen  time.Time         `json:"last_seen"`
}

func sessionBody(s session.Session) SessionBody {
	b := SessionBody{
		ID:        s.ID,
		DatasetID: s.DatasetID,
		Spec:      s.Spec,
		CreatedAt: s.CreatedAt,
		LastSeen:  s.LastSeen,
	}
	if s.View != nil {
		b.LoadID = s.View.LoadID
		b.ViewSize = s.View.Len()
	}
	return b
}

// SessionOutput is the response for single-session operations.
type SessionOutput struct {
	Body SessionBody
}

// ListSessionsOutput is the response for listing sessions.
type ListSessionsOutput struct {
	Body struct {
		IDs []string `json:"ids"`
	}
}

// CreateSessionInput is the input for starting a session.
type CreateSessionInput struct {
	Body struct {
		DatasetID string            `json:"dataset_id"       doc:"Dataset the session filters" example:"products"`
		Filter    domain.FilterSpec `json:"filter,omitempty" doc:"Initial filter spec"`
	}
}

// SessionIDInput identifies a session.
type SessionIDInput struct {
	ID string `path:"id" doc:"Session UUID"`
}

// UpdateFilterInput is the input for replacing a session's filter.
type UpdateFilterInput struct {
	SessionIDInput
	Body struct {
		Filter domain.FilterSpec `json:"filter,omitempty"`
	}
}

// --- Handlers ---

// ListSessions returns the ids of live sessions.
func (h *SessionsHandler) ListSessions(_ context.Context, _ *struct{}) (*ListSessionsOutput, error) {
	resp := &ListSessionsOutput{}
	resp.Body.IDs = h.store.IDs()
	return resp, nil
}

// CreateSession starts a session on a dataset.
func (h *SessionsHandler) CreateSession(ctx context.Context, input *CreateSessionInput) (*SessionOutput, error) {
	s, err := h.store.Create(ctx, input.Body.DatasetID, input.Body.Filter)
	if err != nil {
		return nil, apiError("creating session", err)
	}
	return &SessionOutput{Body: sessionBody(s)}, nil
}

// GetSession returns a session's current spec and view size.
func (h *SessionsHandler) GetSession(_ context.Context, input *SessionIDInput) (*SessionOutput, error) {
	s, err := h.store.Get(input.ID)
	if err != nil {
		return nil, apiError("getting session", err)
	}
	return &SessionOutput{Body: sessionBody(s)}, nil
}

// UpdateFilter replaces a session's filter. A rejected spec leaves the
// session unchanged.
func (h *SessionsHandler) UpdateFilter(ctx context.Context, input *UpdateFilterInput) (*SessionOutput, error) {
	s, err := h.store.UpdateFilter(ctx, input.ID, input.Body.Filter)
	if err != nil {
		return nil, apiError("updating session filter", err)
	}
	return &SessionOutput{Body: sessionBody(s)}, nil
}

// DeleteSession ends a session.
func (h *SessionsHandler) DeleteSession(_ context.Context, input *SessionIDInput) (*struct{}, error) {
	if err := h.store.Delete(input.ID); err != nil {
		return nil, apiError("deleting session", err)
	}
	return nil, nil
}

// RegisterSessionRoutes registers session endpoints with the Huma API.
func RegisterSessionRoutes(api huma.API, h *SessionsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-sessions",
		Method:      http.MethodGet,
		Path:        "/api/v1/sessions",
		Summary:     "List sessions",
		Tags:        []string{"sessions"},
	}, h.ListSessions)

	huma.Register(api, huma.Operation{
		OperationID:   "create-session",
		Method:        http.MethodPost,
		Path:          "/api/v1/sessions",
		Summary:       "Create a session",
		Description:   "Starts a filter session on a dataset. The initial filter must be valid.",
		Tags:          []string{"sessions"},
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusNotFound, http.StatusUnprocessableEntity},
	}, h.CreateSession)

	huma.Register(api, huma.Operation{
		OperationID: "get-session",
		Method:      http.MethodGet,
		Path:        "/api/v1/sessions/{id}",
		Summary:     "Get a session",
		Tags:        []string{"sessions"},
		Errors:      []int{http.StatusNotFound},
	}, h.GetSession)

	huma.Register(api, huma.Operation{
		OperationID: "update-session-filter",
		Method:      http.MethodPut,
		Path:        "/api/v1/sessions/{id}/filter",
		Summary:     "Replace a session's filter",
		Description: "Re-evaluates the session's view. On a rejected filter the previous spec and view are kept.",
		Tags:        []string{"sessions"},
		Errors:      []int{http.StatusNotFound, http.StatusUnprocessableEntity},
	}, h.UpdateFilter)

	huma.Register(api, huma.Operation{
		OperationID:   "delete-session",
		Method:        http.MethodDelete,
		Path:          "/api/v1/sessions/{id}",
		Summary:       "End a session",
		Tags:          []string{"sessions"},
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound},
	}, h.DeleteSession)
}
