// Package http is the JSON API surface of the engine. Handlers stay
// thin: parse and validate at the boundary, call a service, map domain
// errors to statuses.
package http

import (
	"net/http"
	"time"

	"bilancio/internal/cache"
	"bilancio/internal/services"
)

const (
	planCacheSize = 256
	planCacheTTL  = 5 * time.Minute
)

type Server struct {
	http.Server

	debts        *services.DebtService
	budgets      *services.BudgetService
	detector     *services.DetectorService
	transactions *services.TransactionService

	// planCache memoizes payoff simulations, keyed by user, strategy and
	// extra payment. Any debt or payment mutation drops the user's entries.
	planCache *cache.LRUCache[planResponse]
}

func NewServer(addr string, debts *services.DebtService, budgets *services.BudgetService, detector *services.DetectorService, transactions *services.TransactionService, middleware func(http.Handler) http.Handler) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		debts:        debts,
		budgets:      budgets,
		detector:     detector,
		transactions: transactions,
		planCache:    cache.NewLRUCache[planResponse](planCacheSize, planCacheTTL),
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("/debts", s.handleDebts)
	mux.HandleFunc("/debts/interest", s.handleApplyInterest)
	mux.HandleFunc("/debts/plan", s.handlePlan)
	mux.HandleFunc("/debts/", s.handleDebtByID)

	mux.HandleFunc("/categories", s.handleCategories)
	mux.HandleFunc("/budget/close", s.handleCloseMonth)

	mux.HandleFunc("/goals", s.handleGoals)
	mux.HandleFunc("/transactions", s.handleTransactions)

	mux.HandleFunc("/detections", s.handleDetections)
	mux.HandleFunc("/detections/scan", s.handleScan)
	mux.HandleFunc("/detections/", s.handleDetectionRespond)

	var handler http.Handler = mux
	if middleware != nil {
		handler = middleware(mux)
	}
	s.Handler = handler

	return s
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
