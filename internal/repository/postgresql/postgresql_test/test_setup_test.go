package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// TestDatabaseSetup holds a connection to a database migrated with migrations/.
type TestDatabaseSetup struct {
	DB *database.DB
}

// NewTestDatabase connects to TEST_DATABASE_URL and skips the test when it is unset.
func NewTestDatabase(t *testing.T) *TestDatabaseSetup {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := database.NewPostgreSQLDB(dsn, database.PoolConfig{MaxConns: 5, MinConns: 1})
	require.NoError(t, err, "failed to connect to test database")

	setup := &TestDatabaseSetup{DB: db}
	require.NoError(t, setup.TruncateAllTables(context.Background()))
	t.Cleanup(setup.Close)
	return setup
}

// TruncateAllTables removes all rows from the engine's tables.
func (s *TestDatabaseSetup) TruncateAllTables(ctx context.Context) error {
	tx, err := s.DB.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tables := []string{
		"salary_generations",
		"salary_master_components",
		"employee_salary_masters",
		"salary_components",
		"attendances",
		"leave_requests",
		"leave_allocations",
		"leave_periods",
		"leave_policies",
		"leave_types",
		"employees",
		"departments",
		"positions",
		"companies",
	}

	for _, table := range tables {
		if _, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return tx.Commit(ctx)
}

func (s *TestDatabaseSetup) Close() {
	s.DB.Close()
}

func (s *TestDatabaseSetup) createCompany(t *testing.T, ctx context.Context) string {
	t.Helper()
	var id string
	err := s.DB.QueryRow(ctx, `INSERT INTO companies (name) VALUES ('Test Company') RETURNING id`).Scan(&id)
	require.NoError(t, err)
	return id
}

func (s *TestDatabaseSetup) createEmployee(t *testing.T, ctx context.Context, companyID, code, name string) string {
	t.Helper()
	var id string
	err := s.DB.QueryRow(ctx, `
		INSERT INTO employees (company_id, employee_code, full_name, hire_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, companyID, code, name, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)).Scan(&id)
	require.NoError(t, err)
	return id
}

func newID(t *testing.T) string {
	t.Helper()
	id, err := uuid.NewV7()
	require.NoError(t, err)
	return id.String()
}
