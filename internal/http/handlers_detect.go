package http

import (
	"net/http"
	"strings"

	"bilancio/internal/core"
)

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	userID, err := userIDFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}

	charges, err := s.detector.Scan(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, charges)
}

func (s *Server) handleDetections(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	userID, err := userIDFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}

	pendingOnly := strings.TrimSpace(r.URL.Query().Get("pending")) == "1"
	charges, err := s.detector.ListCharges(r.Context(), userID, pendingOnly)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, charges)
}

type respondRequest struct {
	Action string `json:"action"`
}

func (s *Server) handleDetectionRespond(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if _, err := userIDFrom(r); err != nil {
		writeError(w, err)
		return
	}

	chargeID, err := pathID(r.URL.Path, "/detections/", "/respond")
	if err != nil {
		writeError(w, err)
		return
	}

	var req respondRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	action, err := core.ParseDetectionAction(req.Action)
	if err != nil {
		writeError(w, err)
		return
	}

	charge, err := s.detector.Respond(r.Context(), chargeID, action)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, charge)
}
