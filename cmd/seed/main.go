// Command seed loads two sample settlements into the local database, one on
// each side of the split cutoff.
package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"splitbook/internal/config"
	"splitbook/internal/core"
	applog "splitbook/internal/log"
	"splitbook/internal/services"
	"splitbook/internal/storage"
)

func main() {
	_ = godotenv.Load()

	logger := applog.Setup()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	policy, err := cfg.SplitPolicy()
	if err != nil {
		logger.Error("Split policy setup failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}

	service := services.NewSettlementService(repo, nil, policy)
	defer service.Close()

	settlements := []*core.Settlement{
		{
			WeekStartDate: core.NewDate(2026, 1, 26),
			WeekEndDate:   core.NewDate(2026, 2, 1),
			GrossIncome:   core.Money{Cents: 100000},
			PaypalFees:    core.Money{Cents: 1000},
			Notes:         "First tracked week",
			Expenses: []core.Expense{
				{Description: "Server hosting", Amount: core.Money{Cents: 5000}},
				{Description: "Domain renewal", Amount: core.Money{Cents: 2000}},
			},
		},
		{
			WeekStartDate: core.NewDate(2026, 2, 9),
			WeekEndDate:   core.NewDate(2026, 2, 15),
			GrossIncome:   core.Money{Cents: 150000},
			PaypalFees:    core.Money{Cents: 1500},
			Expenses: []core.Expense{
				{Description: "Facebook Ads", Amount: core.Money{Cents: 10000}},
			},
		},
	}

	ctx := context.Background()
	for _, s := range settlements {
		if err := service.CreateSettlement(ctx, s); err != nil {
			logger.Error("Failed to seed settlement", "error", err, "week_end_date", s.WeekEndDate.String())
			os.Exit(1)
		}
		logger.Info("Seeded settlement",
			"id", s.ID,
			"week_end_date", s.WeekEndDate.String(),
			"net_income", s.NetIncome.String(),
			"party_a", s.PartyAShare.String(),
			"party_b", s.PartyBShare.String(),
			"party_c", s.PartyCShare.String())
	}
}
