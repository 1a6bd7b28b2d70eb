package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/hrops/attendance-ledger/internal/ledger"
	ledgerPostgres "github.com/hrops/attendance-ledger/internal/ledger/postgres"
	"github.com/hrops/attendance-ledger/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	creditMonth   int
	creditYear    int
	creditCompany int64
)

// monthlyCreditCmd is the external trigger for the monthly auto-credit:
// wire it to cron or a scheduler. Re-running for the same month is safe.
var monthlyCreditCmd = &cobra.Command{
	Use:   "monthly-credit",
	Short: "Apply the monthly leave auto-credit to every active employee",
	Run: func(cmd *cobra.Command, args []string) {
		runMonthlyCredit()
	},
}

func init() {
	now := time.Now()
	monthlyCreditCmd.Flags().IntVar(&creditMonth, "month", int(now.Month()), "ledger month (1-12)")
	monthlyCreditCmd.Flags().IntVar(&creditYear, "year", now.Year(), "ledger year")
	monthlyCreditCmd.Flags().Int64Var(&creditCompany, "company", 0, "restrict to one company (0 = all)")
}

func runMonthlyCredit() {
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

	store := ledgerPostgres.NewLedgerStore(gormDB)
	service := ledger.NewService(store, lg)

	employees, err := store.ActiveEmployees(creditCompany)
	if err != nil {
		log.Fatalf("failed to list active employees: %v", err)
	}

	credited := 0
	for _, emp := range employees {
		_, err := service.CreditMonth(ledger.CreditMonthDTO{
			EmployeeID: emp.ID,
			CompanyID:  emp.CompanyID,
			Month:      creditMonth,
			Year:       creditYear,
			AutoCredit: cfg.Policy.MonthlyAutoCredit,
			Remarks:    fmt.Sprintf("Monthly credit %02d/%d", creditMonth, creditYear),
		})
		if err != nil {
			lg.Error("monthly credit failed for employee", "error", err, "employee_id", emp.ID)
			continue
		}
		credited++
	}

	lg.Info("monthly credit batch finished",
		"month", creditMonth,
		"year", creditYear,
		"employees", len(employees),
		"credited", credited)
}
