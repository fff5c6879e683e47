package testutil

import (
	"database/sql"
	"os"
	"testing"

	mysqldriver "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"logiledger/internal/infrastructure/mysql"
)

const defaultTestDSN = "root:@tcp(localhost:3306)/logiledger_test?parseTime=true&time_zone=%27%2B00%3A00%27"

// SetupTestDB opens the MySQL test database named by TEST_DB_DSN and brings
// its schema up to date. The test is skipped when no database is reachable.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		dsn = defaultTestDSN
	}

	parsed, err := mysqldriver.ParseDSN(dsn)
	if err != nil {
		t.Fatalf("invalid TEST_DB_DSN: %v", err)
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("test database not available: %v", err)
	}

	if err := mysql.Migrate(db, parsed.DBName, zap.NewNop()); err != nil {
		db.Close()
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// CleanupConsignment removes a consignment and everything hanging off it
// when the test ends. Packages share the test database, so tests only
// delete the rows they created.
func CleanupConsignment(t *testing.T, db *sql.DB, consignmentID string) {
	t.Helper()

	t.Cleanup(func() {
		for _, table := range []string{"jobs", "bids"} {
			if _, err := db.Exec("DELETE FROM "+table+" WHERE consignment_id = ?", consignmentID); err != nil {
				t.Logf("failed to clean %s for %s: %v", table, consignmentID, err)
			}
		}
		if _, err := db.Exec("DELETE FROM consignments WHERE id = ?", consignmentID); err != nil {
			t.Logf("failed to clean consignment %s: %v", consignmentID, err)
		}
	})
}
