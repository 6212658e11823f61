package http

import (
	"net/http"
	"time"

	"bilancio/internal/core"
)

type createTransactionRequest struct {
	AmountCents  int64  `json:"amount_cents"`
	Amount       string `json:"amount"`
	Type         string `json:"type"`
	Category     string `json:"category"`
	Description  string `json:"description"`
	OccurredAt   string `json:"occurred_at"`
	DebtID       *int64 `json:"debt_id"`
	SavingGoalID *int64 `json:"saving_goal_id"`
}

// amountCents resolves the two accepted amount encodings. A decimal string
// ("12.34" or "12,34") wins only when amount_cents is absent.
func (req createTransactionRequest) amountCents() (int64, error) {
	if req.AmountCents != 0 || req.Amount == "" {
		return req.AmountCents, nil
	}
	return core.ParseDecimalToCents(req.Amount)
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		txs, err := s.transactions.ListTransactions(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, txs)

	case http.MethodPost:
		var req createTransactionRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}

		amountCents, err := req.amountCents()
		if err != nil {
			writeError(w, err)
			return
		}

		var occurredAt time.Time
		if req.OccurredAt != "" {
			occurredAt, err = time.Parse("2006-01-02", req.OccurredAt)
			if err != nil {
				writeError(w, core.ErrInvalidInput)
				return
			}
		}

		tx, err := s.transactions.RecordTransaction(r.Context(), core.Transaction{
			UserID:       userID,
			AmountCents:  amountCents,
			Type:         core.TransactionType(req.Type),
			Category:     req.Category,
			Description:  req.Description,
			OccurredAt:   occurredAt,
			DebtID:       req.DebtID,
			SavingGoalID: req.SavingGoalID,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		if req.DebtID != nil {
			s.invalidatePlans(userID)
		}
		writeJSON(w, http.StatusCreated, tx)

	default:
		methodNotAllowed(w)
	}
}

type createGoalRequest struct {
	Name        string `json:"name"`
	TargetCents int64  `json:"target_cents"`
	Deadline    string `json:"deadline"`
}

func (s *Server) handleGoals(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		goals, err := s.transactions.ListGoals(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, goals)

	case http.MethodPost:
		var req createGoalRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}

		goal := core.SavingGoal{
			UserID:      userID,
			Name:        req.Name,
			TargetCents: req.TargetCents,
		}
		if req.Deadline != "" {
			deadline, err := time.Parse("2006-01-02", req.Deadline)
			if err != nil {
				writeError(w, core.ErrInvalidInput)
				return
			}
			goal.Deadline = &deadline
		}

		created, err := s.transactions.CreateGoal(r.Context(), goal)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)

	default:
		methodNotAllowed(w)
	}
}
