package manager

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/nutriguide/nutriload/pkg/nutriload"
)

const queryDatabaseExists = "SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)"

// Manager is stateless and safe for concurrent use.
type Manager struct{}

func New() *Manager {
	return &Manager{}
}

func (m *Manager) Exists(ctx context.Context, conn nutriload.DBConnection, dbName string) (bool, error) {
	var exists bool
	if err := conn.QueryRow(ctx, queryDatabaseExists, dbName).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check database existence: %w", err)
	}
	return exists, nil
}

// Create runs CREATE DATABASE outside any transaction.
func (m *Manager) Create(ctx context.Context, conn nutriload.DBConnection, dbName string) error {
	query := "CREATE DATABASE " + pgx.Identifier{dbName}.Sanitize()
	if _, err := conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create database %q: %w", dbName, err)
	}
	return nil
}

// EnsureDatabase creates dbName unless it already exists and reports
// whether it did.
func EnsureDatabase(ctx context.Context, mgr nutriload.DatabaseManager, conn nutriload.DBConnection, dbName string) (bool, error) {
	if dbName == "" {
		return false, fmt.Errorf("target database name is required: %w", nutriload.ErrInvalidConfig)
	}

	exists, err := mgr.Exists(ctx, conn, dbName)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if err := mgr.Create(ctx, conn, dbName); err != nil {
		return false, err
	}
	return true, nil
}

var _ nutriload.DatabaseManager = (*Manager)(nil)
