package postgres_test

import (
	"errors"
	"testing"
	"time"

	employeeDatamodel "github.com/hrops/attendance-ledger/internal/core/datamodel/employee"
	"github.com/hrops/attendance-ledger/internal/ledger"
	ledgerPostgres "github.com/hrops/attendance-ledger/internal/ledger/postgres"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestLedgerPostgres(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Ledger Postgres Suite")
}

// SQLite-compatible mirrors: the real models carry postgres default:now()
// tags that SQLite cannot migrate.
type SQLiteLedger struct {
	ID                   int64     `gorm:"primaryKey"`
	EmployeeID           int64     `gorm:"column:employee_id;not null;uniqueIndex:idx_ledger_employee_month"`
	CompanyID            int64     `gorm:"column:company_id;not null"`
	Month                int       `gorm:"not null;uniqueIndex:idx_ledger_employee_month"`
	Year                 int       `gorm:"not null;uniqueIndex:idx_ledger_employee_month"`
	OpeningBalance       float64   `gorm:"column:opening_balance"`
	AutoCredit           float64   `gorm:"column:auto_credit"`
	TakenLeaves          float64   `gorm:"column:taken_leaves"`
	LateDeductions       float64   `gorm:"column:late_deductions"`
	ShortLeaveDeductions float64   `gorm:"column:short_leave_deductions"`
	ClosingBalance       float64   `gorm:"column:closing_balance"`
	Remarks              string    `gorm:"column:remarks"`
	CreatedAt            time.Time `gorm:"column:created_at"`
	UpdatedAt            time.Time `gorm:"column:updated_at"`
}

func (SQLiteLedger) TableName() string { return "leave_ledgers" }

type SQLiteDeductionMarker struct {
	ID         int64     `gorm:"primaryKey"`
	EmployeeID int64     `gorm:"column:employee_id;not null;uniqueIndex:idx_marker_employee_date_reason"`
	Date       time.Time `gorm:"column:date;not null;uniqueIndex:idx_marker_employee_date_reason"`
	Reason     string    `gorm:"not null;uniqueIndex:idx_marker_employee_date_reason"`
	Minutes    int
	Units      float64
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (SQLiteDeductionMarker) TableName() string { return "deduction_markers" }

type SQLiteEmployee struct {
	ID                  int64  `gorm:"primaryKey"`
	CompanyID           int64  `gorm:"column:company_id;not null"`
	Name                string `gorm:"not null"`
	Email               string
	IsActive            bool      `gorm:"column:is_active;default:true"`
	CurrentLeaveBalance float64   `gorm:"column:current_leave_balance"`
	LeaveBalances       string    `gorm:"column:leave_balances;default:'{}'"`
	CreatedAt           time.Time `gorm:"column:created_at"`
	UpdatedAt           time.Time `gorm:"column:updated_at"`
}

func (SQLiteEmployee) TableName() string { return "employees" }

var _ = Describe("Ledger Store", func() {
	var (
		db    *gorm.DB
		store ledger.Store
	)

	BeforeEach(func() {
		var err error
		// SQLite in-memory stands in for postgres; the store skips FOR UPDATE
		// on this dialect.
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&SQLiteLedger{}, &SQLiteDeductionMarker{}, &SQLiteEmployee{})
		Expect(err).NotTo(HaveOccurred())

		store = ledgerPostgres.NewLedgerStore(db)
	})

	Describe("Save and Get", func() {
		It("should round-trip a month row", func() {
			row := &ledger.Ledger{
				EmployeeID:     7,
				CompanyID:      1,
				Month:          3,
				Year:           2025,
				OpeningBalance: 2.0,
				AutoCredit:     1.5,
				ClosingBalance: 3.5,
			}
			Expect(store.Save(row)).To(Succeed())
			Expect(row.ID).To(BeNumerically(">", 0))

			got, err := store.Get(7, 3, 2025)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.OpeningBalance).To(Equal(2.0))
			Expect(got.ClosingBalance).To(Equal(3.5))
		})

		It("should return ErrLedgerNotFound for a missing row", func() {
			_, err := store.Get(7, 3, 2025)
			Expect(err).To(MatchError(ledger.ErrLedgerNotFound))
		})

		It("should enforce one row per employee-month", func() {
			Expect(store.Save(&ledger.Ledger{EmployeeID: 7, Month: 3, Year: 2025})).To(Succeed())

			dup := db.Create(&ledger.Ledger{EmployeeID: 7, Month: 3, Year: 2025})
			Expect(dup.Error).To(HaveOccurred())
		})

		It("should update in place through Save", func() {
			row := &ledger.Ledger{EmployeeID: 7, Month: 3, Year: 2025, AutoCredit: 1.5}
			Expect(store.Save(row)).To(Succeed())

			row.TakenLeaves = 1.0
			Expect(store.Save(row)).To(Succeed())

			got, err := store.Get(7, 3, 2025)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.TakenLeaves).To(Equal(1.0))

			var count int64
			Expect(db.Model(&ledger.Ledger{}).Count(&count).Error).To(Succeed())
			Expect(count).To(Equal(int64(1)))
		})
	})

	Describe("GetForUpdate", func() {
		It("should read the row without a locking clause on sqlite", func() {
			Expect(store.Save(&ledger.Ledger{EmployeeID: 7, Month: 3, Year: 2025, AutoCredit: 1.5})).To(Succeed())

			got, err := store.GetForUpdate(7, 3, 2025)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.AutoCredit).To(Equal(1.5))
		})

		It("should return ErrLedgerNotFound for a missing row", func() {
			_, err := store.GetForUpdate(7, 3, 2025)
			Expect(err).To(MatchError(ledger.ErrLedgerNotFound))
		})
	})

	Describe("List", func() {
		BeforeEach(func() {
			Expect(store.Save(&ledger.Ledger{EmployeeID: 7, Month: 12, Year: 2024})).To(Succeed())
			Expect(store.Save(&ledger.Ledger{EmployeeID: 7, Month: 1, Year: 2025})).To(Succeed())
			Expect(store.Save(&ledger.Ledger{EmployeeID: 8, Month: 1, Year: 2025})).To(Succeed())
		})

		It("should return the employee's rows in chronological order", func() {
			rows, err := store.List(7, 0, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(2))
			Expect(rows[0].Year).To(Equal(2024))
			Expect(rows[1].Year).To(Equal(2025))
		})

		It("should narrow by month and year", func() {
			rows, err := store.List(7, 1, 2025)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(1))
		})
	})

	Describe("CreateDeductionMarker", func() {
		date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

		It("should create a marker", func() {
			m := &ledger.DeductionMarker{
				EmployeeID: 7,
				Date:       date,
				Reason:     ledger.DeductionReasonLate,
				Minutes:    45,
				Units:      0.25,
			}
			Expect(store.CreateDeductionMarker(m)).To(Succeed())
			Expect(m.ID).To(BeNumerically(">", 0))
		})

		It("should map the unique violation onto ErrDuplicateDeduction", func() {
			first := &ledger.DeductionMarker{EmployeeID: 7, Date: date, Reason: ledger.DeductionReasonLate}
			Expect(store.CreateDeductionMarker(first)).To(Succeed())

			second := &ledger.DeductionMarker{EmployeeID: 7, Date: date, Reason: ledger.DeductionReasonLate}
			err := store.CreateDeductionMarker(second)
			Expect(err).To(MatchError(ledger.ErrDuplicateDeduction))
		})

		It("should allow distinct reasons on the same day", func() {
			Expect(store.CreateDeductionMarker(&ledger.DeductionMarker{
				EmployeeID: 7, Date: date, Reason: ledger.DeductionReasonLate,
			})).To(Succeed())
			Expect(store.CreateDeductionMarker(&ledger.DeductionMarker{
				EmployeeID: 7, Date: date, Reason: ledger.DeductionReasonShort,
			})).To(Succeed())
		})
	})

	Describe("SyncEmployeeBalance", func() {
		BeforeEach(func() {
			Expect(db.Create(&employeeDatamodel.Employee{
				ID:        7,
				CompanyID: 1,
				Name:      "Sari Wijaya",
				IsActive:  true,
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			}).Error).To(Succeed())
		})

		It("should update the cached balance", func() {
			Expect(store.SyncEmployeeBalance(7, 3.5)).To(Succeed())

			var emp employeeDatamodel.Employee
			Expect(db.First(&emp, 7).Error).To(Succeed())
			Expect(emp.CurrentLeaveBalance).To(Equal(3.5))
		})

		It("should return ErrEmployeeNotFound for an unknown employee", func() {
			err := store.SyncEmployeeBalance(99, 3.5)
			Expect(err).To(MatchError(ledger.ErrEmployeeNotFound))
		})
	})

	Describe("ActiveEmployees", func() {
		BeforeEach(func() {
			now := time.Now()
			Expect(db.Create(&employeeDatamodel.Employee{ID: 1, CompanyID: 1, Name: "a", IsActive: true, CreatedAt: now, UpdatedAt: now}).Error).To(Succeed())
			Expect(db.Create(&employeeDatamodel.Employee{ID: 2, CompanyID: 1, Name: "b", IsActive: true, CreatedAt: now, UpdatedAt: now}).Error).To(Succeed())
			Expect(db.Create(&employeeDatamodel.Employee{ID: 3, CompanyID: 2, Name: "c", IsActive: true, CreatedAt: now, UpdatedAt: now}).Error).To(Succeed())

			// Deactivate after create; a zero-value insert would fall back to
			// the column default.
			Expect(db.Model(&employeeDatamodel.Employee{}).Where("id = ?", 2).
				Update("is_active", false).Error).To(Succeed())
		})

		It("should return only active employees with their companies", func() {
			emps, err := store.ActiveEmployees(0)
			Expect(err).NotTo(HaveOccurred())
			Expect(emps).To(Equal([]ledger.ActiveEmployee{
				{ID: 1, CompanyID: 1},
				{ID: 3, CompanyID: 2},
			}))
		})

		It("should filter by company", func() {
			emps, err := store.ActiveEmployees(2)
			Expect(err).NotTo(HaveOccurred())
			Expect(emps).To(Equal([]ledger.ActiveEmployee{{ID: 3, CompanyID: 2}}))
		})
	})

	Describe("InTx", func() {
		It("should roll back every write when the callback fails", func() {
			err := store.InTx(func(tx ledger.Store) error {
				if err := tx.Save(&ledger.Ledger{EmployeeID: 7, Month: 3, Year: 2025}); err != nil {
					return err
				}
				return errors.New("boom")
			})
			Expect(err).To(HaveOccurred())

			_, err = store.Get(7, 3, 2025)
			Expect(err).To(MatchError(ledger.ErrLedgerNotFound))
		})

		It("should commit when the callback succeeds", func() {
			err := store.InTx(func(tx ledger.Store) error {
				return tx.Save(&ledger.Ledger{EmployeeID: 7, Month: 3, Year: 2025, AutoCredit: 1.5})
			})
			Expect(err).NotTo(HaveOccurred())

			got, err := store.Get(7, 3, 2025)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.AutoCredit).To(Equal(1.5))
		})
	})
})
