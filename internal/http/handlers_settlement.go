package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"splitbook/internal/core"
	"splitbook/internal/services"
	"splitbook/internal/storage"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, field, message string) {
	writeJSON(w, status, errorResponse{Error: message, Field: field})
}

// writeServiceError maps application errors to HTTP status codes.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *services.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeError(w, http.StatusBadRequest, vErr.Field, vErr.Err.Error())
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "", "settlement not found")
	default:
		slog.ErrorContext(r.Context(), "Settlement operation failed",
			"error", err, "method", r.Method, "url", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "", "internal server error")
	}
}

func toListResponse(settlements []core.Settlement) []settlementResponse {
	out := make([]settlementResponse, 0, len(settlements))
	for i := range settlements {
		out = append(out, toSettlementResponse(&settlements[i]))
	}
	return out
}

// handleSettlements serves GET (list) and POST (create) on /api/settlements.
func (s *Server) handleSettlements(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListSettlements(w, r)
	case http.MethodPost:
		s.handleCreateSettlement(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "", "method not allowed")
	}
}

func (s *Server) handleListSettlements(w http.ResponseWriter, r *http.Request) {
	if cached, found := s.listCache.Get(listCacheKey); found {
		slog.DebugContext(r.Context(), "Settlement list cache hit", "count", len(cached))
		writeJSON(w, http.StatusOK, toListResponse(cached))
		return
	}

	settlements, err := s.service.ListSettlements(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	s.listCache.Set(listCacheKey, settlements)
	writeJSON(w, http.StatusOK, toListResponse(settlements))
}

func (s *Server) handleCreateSettlement(w http.ResponseWriter, r *http.Request) {
	settlement, reqErr := parseSettlementRequest(r.Body)
	if reqErr != nil {
		writeError(w, http.StatusBadRequest, reqErr.Field, reqErr.Message)
		return
	}

	if err := s.service.CreateSettlement(r.Context(), settlement); err != nil {
		writeServiceError(w, r, err)
		return
	}

	s.invalidateList()
	writeJSON(w, http.StatusCreated, toSettlementResponse(settlement))
}

// handleSettlementByID routes /api/settlements/{id} and
// /api/settlements/{id}/export.
func (s *Server) handleSettlementByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/settlements/")
	idPart, tail, _ := strings.Cut(rest, "/")

	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "id", "settlement id must be a positive integer")
		return
	}

	switch tail {
	case "":
	case "export":
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", "GET")
			writeError(w, http.StatusMethodNotAllowed, "", "method not allowed")
			return
		}
		s.handleExportSettlement(w, r, id)
		return
	default:
		writeError(w, http.StatusNotFound, "", "not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleGetSettlement(w, r, id)
	case http.MethodPut:
		s.handleUpdateSettlement(w, r, id)
	case http.MethodDelete:
		s.handleDeleteSettlement(w, r, id)
	default:
		w.Header().Set("Allow", "GET, PUT, DELETE")
		writeError(w, http.StatusMethodNotAllowed, "", "method not allowed")
	}
}

func (s *Server) handleGetSettlement(w http.ResponseWriter, r *http.Request, id int64) {
	settlement, err := s.service.GetSettlement(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSettlementResponse(settlement))
}

func (s *Server) handleUpdateSettlement(w http.ResponseWriter, r *http.Request, id int64) {
	settlement, reqErr := parseSettlementRequest(r.Body)
	if reqErr != nil {
		writeError(w, http.StatusBadRequest, reqErr.Field, reqErr.Message)
		return
	}

	if err := s.service.UpdateSettlement(r.Context(), id, settlement); err != nil {
		writeServiceError(w, r, err)
		return
	}

	s.invalidateList()
	writeJSON(w, http.StatusOK, toSettlementResponse(settlement))
}

func (s *Server) handleDeleteSettlement(w http.ResponseWriter, r *http.Request, id int64) {
	if err := s.service.DeleteSettlement(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}

	s.invalidateList()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExportSettlement(w http.ResponseWriter, r *http.Request, id int64) {
	if s.generator == nil {
		writeError(w, http.StatusServiceUnavailable, "", "report export is not configured")
		return
	}

	settlement, err := s.service.GetSettlement(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	doc, err := s.generator.Generate(r.Context(), settlement)
	if err != nil {
		slog.ErrorContext(r.Context(), "Report generation failed", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "", "report generation failed")
		return
	}

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Content)
}
