package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"

	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/config"
	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/report"
)

// maxScreenBody bounds a screen request body.
const maxScreenBody = 64 << 10

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// snapshot returns the served catalog or writes 503.
func (s *Server) snapshot(w http.ResponseWriter) (*Snapshot, bool) {
	snap := s.state.Current()
	if snap == nil {
		w.Header().Set("Retry-After", "10")
		writeError(w, http.StatusServiceUnavailable, "catalog not yet propagated")
		return nil, false
	}
	return snap, true
}

// handleCatalog serves the propagated catalog.
// GET /api/v1/catalog
func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toCatalog(snap, s.opts.Frame))
}

// handleObject serves one catalog series.
// GET /api/v1/catalog/objects/{id}
func (s *Server) handleObject(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w)
	if !ok {
		return
	}
	id := r.PathValue("id")
	series, found := snap.Catalog.Lookup(id)
	if !found {
		writeError(w, http.StatusNotFound, fmt.Sprintf("object %q not in catalog", id))
		return
	}
	writeJSON(w, http.StatusOK, toSeries(series))
}

// handleRefresh reloads element data and repropagates on a fresh grid. The
// refresh outlives a disconnecting client so the catalog is still swapped in.
// POST /api/v1/catalog/refresh
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	snap, err := s.state.Refresh(context.WithoutCancel(r.Context()))
	switch {
	case errors.Is(err, ErrRefreshInProgress):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		s.logger.Error("catalog refresh failed", "error", err)
		writeError(w, http.StatusBadGateway, "catalog refresh failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"source":   snap.Dataset.Source,
		"objects":  len(snap.Catalog.Series),
		"warnings": len(snap.Catalog.Warnings),
		"grid":     toGrid(snap.Catalog.Grid),
	})
}

// handleScreen screens a candidate against the served catalog.
// POST /api/v1/screen
func (s *Server) handleScreen(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r, s.opts.TrustProxy)
	if !s.limiter.allow(ip) {
		s.logger.Warn("screen rate limit exceeded", "remote_ip", ip)
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusTooManyRequests, "too many screening requests")
		return
	}

	var req screenRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxScreenBody))
	dec.DisallowUnknownFields()
	// An empty body screens the configured default candidate.
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	candidate := req.Candidate.apply(s.opts.Candidate)
	if err := config.ValidateCandidate(candidate, s.opts.Limits); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	threshold := s.state.Engine().Options().ThresholdKm
	if req.ThresholdKm != nil {
		threshold = *req.ThresholdKm
		if math.IsNaN(threshold) || math.IsInf(threshold, 0) || threshold < 0 {
			writeError(w, http.StatusBadRequest, "threshold_km must be a finite value >= 0")
			return
		}
	}

	snap, ok := s.snapshot(w)
	if !ok {
		return
	}

	res, err := s.state.Engine().Screen(snap.Catalog, candidate, threshold)
	var ce *report.ConsistencyError
	if err != nil && !errors.As(err, &ce) {
		s.logger.Error("screen failed", "candidate", candidate.Name, "error", err)
		writeError(w, http.StatusInternalServerError, "screen failed")
		return
	}

	resp := toScreen(res)
	if ce != nil {
		resp.ConsistencyError = ce.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}
