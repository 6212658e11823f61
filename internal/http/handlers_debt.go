package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"bilancio/internal/core"
	"bilancio/internal/planner"
)

type createDebtRequest struct {
	Name             string `json:"name"`
	TotalAmountCents int64  `json:"total_amount_cents"`
	BalanceCents     int64  `json:"current_balance_cents"`
	InterestRateBps  int64  `json:"interest_rate_bps"`
	MinPaymentCents  int64  `json:"min_payment_cents"`
	DisplayColor     string `json:"display_color"`
}

func (s *Server) handleDebts(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		debts, err := s.debts.ListDebts(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, debts)

	case http.MethodPost:
		var req createDebtRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		debt, err := s.debts.CreateDebt(r.Context(), core.Debt{
			UserID:           userID,
			Name:             req.Name,
			TotalAmountCents: req.TotalAmountCents,
			BalanceCents:     req.BalanceCents,
			InterestRateBps:  req.InterestRateBps,
			MinPaymentCents:  req.MinPaymentCents,
			DisplayColor:     req.DisplayColor,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		s.invalidatePlans(userID)
		writeJSON(w, http.StatusCreated, debt)

	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleDebtByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}
	userID, err := userIDFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	debtID, err := pathID(r.URL.Path, "/debts/", "")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.debts.DeleteDebt(r.Context(), userID, debtID); err != nil {
		writeError(w, err)
		return
	}
	s.invalidatePlans(userID)
	w.WriteHeader(http.StatusNoContent)
}

type applyInterestRequest struct {
	Period string `json:"period"`
}

func (s *Server) handleApplyInterest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	userID, err := userIDFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req applyInterestRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	period, err := parsePeriod(req.Period)
	if err != nil {
		writeError(w, err)
		return
	}

	deltas, err := s.debts.ApplyMonthlyInterest(r.Context(), userID, period)
	if err != nil {
		writeError(w, err)
		return
	}
	s.invalidatePlans(userID)
	writeJSON(w, http.StatusOK, map[string]any{
		"period": period,
		"deltas": deltas,
	})
}

// planResponse pairs the simulation outcome with the debts in
// pay-first order under the requested strategy.
type planResponse struct {
	planner.PayoffResult
	PayoffOrder []core.Debt `json:"payoff_order"`
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	userID, err := userIDFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}

	strategy, err := core.ParseStrategy(r.URL.Query().Get("strategy"))
	if err != nil {
		writeError(w, fmt.Errorf("%w: unknown strategy", core.ErrInvalidInput))
		return
	}

	var extraCents int64
	if v := strings.TrimSpace(r.URL.Query().Get("extra_cents")); v != "" {
		extraCents, err = strconv.ParseInt(v, 10, 64)
		if err != nil || extraCents < 0 {
			writeError(w, fmt.Errorf("%w: bad extra_cents", core.ErrInvalidInput))
			return
		}
	}

	key := planCacheKey(userID, strategy, extraCents)
	if resp, ok := s.planCache.Get(key); ok {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	result, ordered, err := s.debts.Plan(r.Context(), userID, strategy, extraCents)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := planResponse{PayoffResult: result, PayoffOrder: ordered}
	s.planCache.Set(key, resp)
	writeJSON(w, http.StatusOK, resp)
}

func planCacheKey(userID int64, strategy core.Strategy, extraCents int64) string {
	return fmt.Sprintf("plan:%d:%s:%d", userID, strategy, extraCents)
}

func (s *Server) invalidatePlans(userID int64) {
	s.planCache.DeletePrefix(fmt.Sprintf("plan:%d:", userID))
}

// parsePeriod validates a "YYYY-MM" period string; empty means the
// current month.
func parsePeriod(v string) (core.Period, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return core.PeriodOf(timeNow()), nil
	}
	if len(v) != 7 || v[4] != '-' {
		return "", fmt.Errorf("%w: period must be YYYY-MM", core.ErrInvalidInput)
	}
	year, err := strconv.Atoi(v[:4])
	if err != nil || year < 1970 {
		return "", fmt.Errorf("%w: bad period year", core.ErrInvalidInput)
	}
	month, err := strconv.Atoi(v[5:])
	if err != nil || month < 1 || month > 12 {
		return "", fmt.Errorf("%w: bad period month", core.ErrInvalidInput)
	}
	return core.Period(v), nil
}
