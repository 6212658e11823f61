package http

import (
	"net/http"

	"bilancio/internal/core"
)

type createCategoryRequest struct {
	Name       string `json:"name"`
	LimitCents int64  `json:"limit_cents"`
	EcoScore   string `json:"eco_score"`
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		views, err := s.budgets.ListCategories(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, views)

	case http.MethodPost:
		var req createCategoryRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		category, err := s.budgets.CreateCategory(r.Context(), core.BudgetCategory{
			UserID:     userID,
			Name:       req.Name,
			LimitCents: req.LimitCents,
			EcoScore:   core.EcoScore(req.EcoScore),
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, category)

	default:
		methodNotAllowed(w)
	}
}

type closeMonthRequest struct {
	Period string `json:"period"`
}

func (s *Server) handleCloseMonth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	userID, err := userIDFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req closeMonthRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	period, err := parsePeriod(req.Period)
	if err != nil {
		writeError(w, err)
		return
	}

	leftovers, err := s.budgets.CloseMonth(r.Context(), userID, period)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"period":    period,
		"leftovers": leftovers,
	})
}
