package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/hrops/attendance-ledger/internal/attendance"
	attendancePostgres "github.com/hrops/attendance-ledger/internal/attendance/postgres"
	"github.com/hrops/attendance-ledger/internal/deduction"
	"github.com/hrops/attendance-ledger/internal/geo"
	"github.com/hrops/attendance-ledger/internal/importer"
	"github.com/hrops/attendance-ledger/internal/ledger"
	ledgerPostgres "github.com/hrops/attendance-ledger/internal/ledger/postgres"
	"github.com/hrops/attendance-ledger/internal/roster"
	rosterPostgres "github.com/hrops/attendance-ledger/internal/roster/postgres"
	"github.com/hrops/attendance-ledger/pkg/logger"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import [file.xlsx]",
	Short: "Import an attendance sheet and reconcile every row",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runImport(args[0])
	},
}

func runImport(path string) {
	cfg, err := loadConfig(".")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
	lg := logger.LoggerWrapper()

	db, err := initDB(cfg.Database)
	if err != nil {
		log.Fatalf("failed to init db: %v", err)
	}
	defer db.Close()

	gormDB, err := initGorm(db)
	if err != nil {
		log.Fatalf("failed to init gorm: %v", err)
	}

	policy := cfg.Policy

	ledgerStore := ledgerPostgres.NewLedgerStore(gormDB)
	ledgerService := ledger.NewService(ledgerStore, lg)
	dispatcher := deduction.NewDispatcher(ledgerService, policy, lg)

	rosterService := roster.NewService(rosterPostgres.NewRosterRepository(gormDB), lg)
	attendanceService := attendance.NewService(
		attendancePostgres.NewAttendanceRepository(gormDB),
		rosterService,
		geo.NewValidator(policy.GeofenceRadiusMeters),
		dispatcher,
		policy,
		lg,
	)

	summary, err := importer.New(attendanceService, lg).ImportFile(path)
	if err != nil {
		log.Fatalf("import failed: %v", err)
	}

	out, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Fprintln(os.Stdout, string(out))
}
