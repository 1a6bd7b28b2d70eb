package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer sqlDB.Close()

		db, err := initGorm(sqlDB)
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		companyName := "Acme Logistics"
		var companyID int64
		row := db.Raw("SELECT id FROM companies WHERE name = ?", companyName).Row()
		if err := row.Scan(&companyID); err != nil {
			if err := db.Exec("INSERT INTO companies (name, latitude, longitude, created_at, updated_at) VALUES (?, ?, ?, now(), now())",
				companyName, -6.2146, 106.8451).Error; err != nil {
				log.Fatalf("failed to insert company: %v", err)
			}
			if err := db.Raw("SELECT id FROM companies WHERE name = ?", companyName).Row().Scan(&companyID); err != nil {
				log.Fatalf("company not found after insert: %v", err)
			}
			fmt.Println("Seeded company:", companyName)
		} else {
			fmt.Println("company already exists:", companyName)
		}

		shifts := []struct {
			Name  string
			Start string
			End   string
			Grace int
		}{
			{"General", "09:00", "17:00", 10},
			{"Early", "07:00", "15:00", 10},
			{"Night", "22:00", "06:00", 15},
		}

		shiftIDs := map[string]int64{}
		for _, s := range shifts {
			var sid int64
			row := db.Raw("SELECT id FROM shifts WHERE company_id = ? AND name = ?", companyID, s.Name).Row()
			if err := row.Scan(&sid); err != nil {
				if err := db.Exec("INSERT INTO shifts (company_id, name, start_time, end_time, grace_minutes, created_at, updated_at) VALUES (?, ?, ?, ?, ?, now(), now())",
					companyID, s.Name, s.Start, s.End, s.Grace).Error; err != nil {
					log.Fatalf("failed to insert shift %s: %v", s.Name, err)
				}
				if err := db.Raw("SELECT id FROM shifts WHERE company_id = ? AND name = ?", companyID, s.Name).Row().Scan(&sid); err != nil {
					log.Fatalf("shift not found after insert %s: %v", s.Name, err)
				}
				fmt.Printf("Seeded shift: %s (%s-%s)\n", s.Name, s.Start, s.End)
			}
			shiftIDs[s.Name] = sid
		}

		employees := []struct {
			Email string
			Name  string
			Shift string
		}{
			{"sari@acme.test", "Sari Wijaya", "General"},
			{"budi@acme.test", "Budi Santoso", "General"},
			{"rina@acme.test", "Rina Hartono", "Early"},
			{"agus@acme.test", "Agus Pranoto", "Night"},
		}

		for _, e := range employees {
			var eid int64
			row := db.Raw("SELECT id FROM employees WHERE email = ?", e.Email).Row()
			if err := row.Scan(&eid); err != nil {
				if err := db.Exec("INSERT INTO employees (company_id, email, name, is_active, current_leave_balance, leave_balances, created_at, updated_at) VALUES (?, ?, ?, true, 12.0, ?, now(), now())",
					companyID, e.Email, e.Name, `{"annual":{"total":12,"used":0},"sick":{"total":6,"used":0},"casual":{"total":6,"used":0},"compensatory":{"total":0,"used":0}}`).Error; err != nil {
					log.Fatalf("failed to insert employee %s: %v", e.Email, err)
				}
				if err := db.Raw("SELECT id FROM employees WHERE email = ?", e.Email).Row().Scan(&eid); err != nil {
					log.Fatalf("employee not found after insert %s: %v", e.Email, err)
				}
				fmt.Println("Seeded employee:", e.Email)
			}

			// roster the employee for the next two weeks, one entry per day
			rostered := 0
			for day := 0; day < 14; day++ {
				date := time.Now().AddDate(0, 0, day).Format("2006-01-02")
				var exists int
				if err := db.Raw("SELECT 1 FROM shift_rosters WHERE employee_id = ? AND date = ?", eid, date).Row().Scan(&exists); err == nil {
					continue
				}
				if err := db.Exec("INSERT INTO shift_rosters (employee_id, date, shift_id) VALUES (?, ?, ?)",
					eid, date, shiftIDs[e.Shift]).Error; err != nil {
					log.Fatalf("failed to roster employee %s: %v", e.Email, err)
				}
				rostered++
			}
			if rostered > 0 {
				fmt.Printf("Rostered %s onto %s shift for %d days\n", e.Email, e.Shift, rostered)
			}
		}

		fmt.Println("Sample data seeded successfully")
	},
}
