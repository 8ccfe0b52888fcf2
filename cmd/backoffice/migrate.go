package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/tbourn/go-agency-backoffice/internal/domain"
	"github.com/tbourn/go-agency-backoffice/internal/observability"
	"github.com/tbourn/go-agency-backoffice/internal/repo"
)

var withSeed bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		observability.SetupLogging(os.Stderr, cfg.LogLevel, cfg.LogPretty, cfg.OTEL.ServiceName)

		db, err := repo.Open(cfg.DB.Driver, dsn(cfg))
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
		if err := repo.AutoMigrate(db); err != nil {
			return err
		}
		log.Info().Str("driver", db.Dialector.Name()).Msg("schema migrated")

		purged, err := repo.PurgeExpiredIdempotency(cmd.Context(), db, time.Now().UTC())
		if err != nil {
			return err
		}
		if purged > 0 {
			log.Info().Int64("records", purged).Msg("expired idempotency keys purged")
		}

		if !withSeed {
			return nil
		}
		n, err := seedDemo(cmd.Context(), db)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d customers\n", n)
		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&withSeed, "seed", false, "insert demo customers and postings into an empty database")
}

// seedDemo inserts a small demo data set unless customers already exist.
// It returns the number of customers created.
func seedDemo(ctx context.Context, db *gorm.DB) (int, error) {
	existing, err := repo.CountLive(ctx, db, &domain.Customer{})
	if err != nil {
		return 0, err
	}
	if existing > 0 {
		log.Info().Int64("customers", existing).Msg("database not empty, seed skipped")
		return 0, nil
	}

	rate := func(v int64) *decimal.Decimal {
		d := decimal.NewFromInt(v)
		return &d
	}
	demo := []struct {
		name     string
		typ      domain.CustomerType
		salary   int64
		employer *decimal.Decimal
		desired  int64
		employee *decimal.Decimal
	}{
		{"Hanul Construction", domain.CustomerEmployer, 4_000_000, rate(10), 0, nil},
		{"Park Jiwoo", domain.CustomerEmployee, 0, nil, 3_600_000, rate(8)},
		{"Seoul Freight Co.", domain.CustomerBoth, 3_200_000, nil, 2_900_000, nil},
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, d := range demo {
			c := &domain.Customer{Name: d.name, CustomerType: d.typ}
			if err := repo.CreateCustomer(ctx, tx, c); err != nil {
				return err
			}
			if d.salary > 0 {
				jp := &domain.JobPosting{CustomerID: c.ID, Salary: decimal.NewFromInt(d.salary), EmployerFeeRate: d.employer}
				if err := repo.CreateJobPosting(ctx, tx, jp); err != nil {
					return err
				}
			}
			if d.desired > 0 {
				js := &domain.JobSeekingPosting{CustomerID: c.ID, DesiredSalary: decimal.NewFromInt(d.desired), EmployeeFeeRate: d.employee}
				if err := repo.CreateJobSeekingPosting(ctx, tx, js); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(demo), nil
}
