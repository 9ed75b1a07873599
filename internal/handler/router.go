package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/finflow/internal/config"
	"github.com/Dan9191/finflow/internal/middleware"
)

// NewRouter wires the public and authenticated routes.
func NewRouter(h *Handler, cfg *config.Config, log *logrus.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.RequestLogger(log))

	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/register", h.Register).Methods(http.MethodPost)
	r.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	r.HandleFunc("/categories", h.Categories).Methods(http.MethodGet)

	api := r.NewRoute().Subrouter()
	api.Use(middleware.AuthMiddleware(cfg))

	api.HandleFunc("/balance", h.Balance).Methods(http.MethodGet)
	api.HandleFunc("/ledger", h.ListEntries).Methods(http.MethodGet)
	api.HandleFunc("/ledger", h.CreateEntry).Methods(http.MethodPost)
	api.HandleFunc("/ledger/import", h.ImportStatement).Methods(http.MethodPost)
	api.HandleFunc("/ledger/{id:[0-9]+}", h.DeleteEntry).Methods(http.MethodDelete)

	api.HandleFunc("/obligations", h.ListObligations).Methods(http.MethodGet)
	api.HandleFunc("/obligations", h.CreateObligation).Methods(http.MethodPost)
	api.HandleFunc("/obligations/post", h.PostObligations).Methods(http.MethodPost)
	api.HandleFunc("/obligations/status", h.ObligationStatuses).Methods(http.MethodGet)
	api.HandleFunc("/obligations/{id:[0-9]+}", h.UpdateObligation).Methods(http.MethodPut)
	api.HandleFunc("/obligations/{id:[0-9]+}", h.DeleteObligation).Methods(http.MethodDelete)

	api.HandleFunc("/cards", h.ListCards).Methods(http.MethodGet)
	api.HandleFunc("/cards", h.CreateCard).Methods(http.MethodPost)
	api.HandleFunc("/cards/{id:[0-9]+}", h.DeleteCard).Methods(http.MethodDelete)
	api.HandleFunc("/cards/{id:[0-9]+}/purchases", h.AddPurchase).Methods(http.MethodPost)
	api.HandleFunc("/cards/{id:[0-9]+}/statements/{period}", h.Statement).Methods(http.MethodGet)
	api.HandleFunc("/cards/{id:[0-9]+}/statements/{period}/pay", h.PayStatement).Methods(http.MethodPost)
	api.HandleFunc("/cards/{id:[0-9]+}/statements/{period}/pay", h.ReopenStatement).Methods(http.MethodDelete)
	api.HandleFunc("/purchases/{batch}", h.UpdatePurchase).Methods(http.MethodPut)
	api.HandleFunc("/purchases/{batch}", h.DeletePurchase).Methods(http.MethodDelete)
	api.HandleFunc("/statements", h.Statements).Methods(http.MethodGet)

	api.HandleFunc("/goals", h.ListGoals).Methods(http.MethodGet)
	api.HandleFunc("/goals", h.SetGoal).Methods(http.MethodPut)
	api.HandleFunc("/goals", h.DeleteGoal).Methods(http.MethodDelete)
	api.HandleFunc("/goals/progress", h.GoalProgress).Methods(http.MethodGet)

	api.HandleFunc("/projection", h.Projection).Methods(http.MethodPost)
	api.HandleFunc("/alerts", h.Alerts).Methods(http.MethodGet)

	return r
}
