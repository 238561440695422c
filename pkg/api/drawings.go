package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/pixelshare/pkg/drawing"
	"github.com/matzehuels/pixelshare/pkg/errors"
	"github.com/matzehuels/pixelshare/pkg/store"
)

// DrawingRequest is the body of create, update and share requests.
type DrawingRequest struct {
	DrawingData *drawing.Document `json:"drawingData"`
}

// DrawingMeta identifies a stored drawing.
type DrawingMeta struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DrawingSummary is one entry of the list response. Drawing holds the
// compact form.
type DrawingSummary struct {
	DrawingMeta
	Drawing string `json:"drawing"`
}

// DrawingResponse is the body of a load response.
type DrawingResponse struct {
	ID          string            `json:"id"`
	DrawingData *drawing.Document `json:"drawingData"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// MeResponse describes the caller's session.
type MeResponse struct {
	UserID    string    `json:"userId"`
	Name      string    `json:"name,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func metaOf(rec *store.Record) DrawingMeta {
	return DrawingMeta{ID: rec.ID, CreatedAt: rec.CreatedAt, UpdatedAt: rec.UpdatedAt}
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	s.writeJSON(w, r, http.StatusOK, MeResponse{UserID: sess.UserID, Name: sess.Name, ExpiresAt: sess.ExpiresAt})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	recs, err := s.drawings.List(r.Context(), sess.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]DrawingSummary, len(recs))
	for i, rec := range recs {
		out[i] = DrawingSummary{DrawingMeta: metaOf(rec), Drawing: rec.Drawing}
	}
	s.writeJSON(w, r, http.StatusOK, map[string]any{"drawings": out})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	doc, err := readDrawing(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	sess := sessionFrom(r.Context())
	rec, err := s.drawings.Create(r.Context(), sess.UserID, doc)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("drawing created", "id", rec.ID, "owner", sess.UserID)
	s.writeJSON(w, r, http.StatusCreated, map[string]any{"drawing": metaOf(rec)})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.ownedRecord(w, r)
	if !ok {
		return
	}
	doc, err := rec.Document()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, DrawingResponse{
		ID:          rec.ID,
		DrawingData: doc,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	doc, err := readDrawing(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rec, ok := s.ownedRecord(w, r)
	if !ok {
		return
	}

	rec, err = s.drawings.Update(r.Context(), rec.ID, doc)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string]any{"drawing": metaOf(rec)})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.ownedRecord(w, r)
	if !ok {
		return
	}
	if err := s.drawings.Delete(r.Context(), rec.ID); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("drawing deleted", "id", rec.ID)
	s.writeJSON(w, r, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleDrawingPreview(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.ownedRecord(w, r)
	if !ok {
		return
	}
	doc, err := rec.Document()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.renderPreview(w, r, doc)
}

// ownedRecord loads the {id} record and checks the caller owns it, writing
// the error response itself when not.
func (s *Server) ownedRecord(w http.ResponseWriter, r *http.Request) (*store.Record, bool) {
	rec, err := s.drawings.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	if rec.OwnerID != sessionFrom(r.Context()).UserID {
		s.writeError(w, r, errors.New(errors.ErrCodeForbidden, "Forbidden"))
		return nil, false
	}
	return rec, true
}

// readDrawing decodes a DrawingRequest and fills defaults for omitted
// fields.
func readDrawing(w http.ResponseWriter, r *http.Request) (*drawing.Document, error) {
	var req DrawingRequest
	if err := decodeBody(w, r, &req); err != nil {
		return nil, err
	}
	if req.DrawingData == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "Drawing data is required")
	}
	req.DrawingData.ApplyDefaults()
	return req.DrawingData, nil
}
