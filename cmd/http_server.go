package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/hrops/attendance-ledger/internal"
	"github.com/hrops/attendance-ledger/internal/attendance"
	attendancePostgres "github.com/hrops/attendance-ledger/internal/attendance/postgres"
	"github.com/hrops/attendance-ledger/internal/deduction"
	"github.com/hrops/attendance-ledger/internal/geo"
	"github.com/hrops/attendance-ledger/internal/leave"
	leavePostgres "github.com/hrops/attendance-ledger/internal/leave/postgres"
	"github.com/hrops/attendance-ledger/internal/ledger"
	ledgerPostgres "github.com/hrops/attendance-ledger/internal/ledger/postgres"
	"github.com/hrops/attendance-ledger/internal/roster"
	rosterPostgres "github.com/hrops/attendance-ledger/internal/roster/postgres"
	"github.com/hrops/attendance-ledger/internal/transport/rest"
	"github.com/hrops/attendance-ledger/pkg/logger"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle reconciliation and ledger requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	Gorm   *gorm.DB
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	setupRoutes(deps)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			slog.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}

func setupRoutes(deps *Dependencies) {
	lg := deps.Logger
	policy := deps.Config.Policy

	ledgerStore := ledgerPostgres.NewLedgerStore(deps.Gorm)
	ledgerService := ledger.NewService(ledgerStore, lg)
	ledgerHandler := ledger.NewHandler(ledgerService)

	dispatcher := deduction.NewDispatcher(ledgerService, policy, lg)

	rosterRepo := rosterPostgres.NewRosterRepository(deps.Gorm)
	rosterService := roster.NewService(rosterRepo, lg)

	attendanceRepo := attendancePostgres.NewAttendanceRepository(deps.Gorm)
	attendanceService := attendance.NewService(
		attendanceRepo,
		rosterService,
		geo.NewValidator(policy.GeofenceRadiusMeters),
		dispatcher,
		policy,
		lg,
	)
	attendanceHandler := attendance.NewHandler(attendanceService)

	leaveStore := leavePostgres.NewLeaveStore(deps.Gorm)
	leaveService := leave.NewService(leaveStore, lg)
	leaveHandler := leave.NewHandler(leaveService)

	rest.RegisterAllRoutes(deps.Router, deps.DB.DB, attendanceHandler, ledgerHandler, leaveHandler, lg)
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(config.Observability.Logging.Level, config.Observability.Logging.Format)

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := initGorm(db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	return &Dependencies{
		Config: config,
		Logger: logger.LoggerWrapper(),
		DB:     db,
		Gorm:   gormDB,
		Router: chi.NewRouter(),
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// verify connection; close underlying *sql.DB on failure
	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm layers GORM over the already-pooled pgx connection.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: db.DB}), &gorm.Config{})
}
