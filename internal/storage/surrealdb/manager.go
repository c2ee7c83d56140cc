// Package surrealdb implements the storage interfaces on SurrealDB.
package surrealdb

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"

	"github.com/bobmcallan/scrip/internal/common"
	"github.com/bobmcallan/scrip/internal/interfaces"
)

// Manager implements interfaces.StorageManager using SurrealDB.
type Manager struct {
	db     *surrealdb.DB
	logger *common.Logger

	reportStore *ReportStore
	marketStore *MarketStore
	userStore   *UserStore
}

// NewManager connects to SurrealDB and prepares the schema.
func NewManager(logger *common.Logger, config *common.Config) (*Manager, error) {
	ctx := context.Background()

	db, err := surrealdb.New(config.Storage.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if _, err := db.SignIn(ctx, map[string]interface{}{
		"user": config.Storage.Username,
		"pass": config.Storage.Password,
	}); err != nil {
		return nil, fmt.Errorf("failed to sign in to SurrealDB: %w", err)
	}

	if err := db.Use(ctx, config.Storage.Namespace, config.Storage.Database); err != nil {
		return nil, fmt.Errorf("failed to select namespace/database: %w", err)
	}

	// Define tables up front (SurrealDB v3 errors on querying tables
	// that do not exist yet).
	tables := []string{"report", "market_data", "news", "user", "subscription"}
	for _, table := range tables {
		sql := fmt.Sprintf("DEFINE TABLE IF NOT EXISTS %s SCHEMALESS", table)
		if _, err := surrealdb.Query[any](ctx, db, sql, nil); err != nil {
			return nil, fmt.Errorf("failed to define table %s: %w", table, err)
		}
	}

	// The uniqueness constraint is the cross-process backstop for
	// report generation: a losing writer gets a duplicate error and
	// rereads the winner's row.
	indexSQL := "DEFINE INDEX IF NOT EXISTS report_ticker_date ON TABLE report COLUMNS ticker, report_date UNIQUE"
	if _, err := surrealdb.Query[any](ctx, db, indexSQL, nil); err != nil {
		return nil, fmt.Errorf("failed to define report index: %w", err)
	}

	m := &Manager{
		db:     db,
		logger: logger,
	}
	m.reportStore = NewReportStore(db, logger)
	m.marketStore = NewMarketStore(db, logger)
	m.userStore = NewUserStore(db, logger)

	logger.Info().
		Str("address", config.Storage.Address).
		Str("namespace", config.Storage.Namespace).
		Str("database", config.Storage.Database).
		Msg("SurrealDB storage manager initialized")

	return m, nil
}

func (m *Manager) ReportStore() interfaces.ReportStore {
	return m.reportStore
}

func (m *Manager) MarketStore() interfaces.MarketStore {
	return m.marketStore
}

func (m *Manager) UserStore() interfaces.UserStore {
	return m.userStore
}

// Close closes the database connection.
func (m *Manager) Close() error {
	m.db.Close(context.Background())
	m.logger.Debug().Msg("SurrealDB connection closed")
	return nil
}

// Ensure Manager implements StorageManager
var _ interfaces.StorageManager = (*Manager)(nil)
