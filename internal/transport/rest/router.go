package rest

import (
	"database/sql"
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/hrops/attendance-ledger/internal/attendance"
	"github.com/hrops/attendance-ledger/internal/leave"
	"github.com/hrops/attendance-ledger/internal/ledger"
	"github.com/hrops/attendance-ledger/internal/transport/middleware"
)

// RegisterAllRoutes mounts the reconciliation API. Authentication is owned
// by the surrounding platform gateway, not this service.
func RegisterAllRoutes(
	router *chi.Mux,
	db *sql.DB,
	attendanceHandler *attendance.Handler,
	ledgerHandler *ledger.Handler,
	leaveHandler *leave.Handler,
	logger *slog.Logger,
) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		if attendanceHandler != nil {
			r.Route("/attendance", func(ar chi.Router) {
				ar.Post("/reconcile", attendanceHandler.Reconcile)
				ar.Get("/{employeeID}/{date}", attendanceHandler.GetAttendance)
			})
		}

		if ledgerHandler != nil {
			r.Route("/ledgers", func(lr chi.Router) {
				lr.Put("/", ledgerHandler.UpsertLedger)
				lr.Get("/{employeeID}", ledgerHandler.GetLedger)
			})
		}

		if leaveHandler != nil {
			r.Route("/leaves", func(lr chi.Router) {
				lr.Post("/", leaveHandler.CreateLeave)
				lr.Get("/{id}", leaveHandler.GetLeave)
				lr.Patch("/{id}/status", leaveHandler.SetStatus)
			})
		}
	})
}
