package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/multierr"

	"github.com/avelasquez/freshbasket-backend/pkg/migrate"
)

func writeMigrationFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestValidateDirReportsAllProblems(t *testing.T) {
	dir := t.TempDir()
	writeMigrationFile(t, dir, "badname.sql", "-- +goose Up\n-- +goose Down\n")
	writeMigrationFile(t, dir, "20250412100000_missing_down.sql", "-- +goose Up\nSELECT 1;\n")

	err := migrate.ValidateDir(dir)
	if err == nil {
		t.Fatal("expected validation errors")
	}
	errs := multierr.Errors(err)
	if len(errs) != 2 {
		t.Fatalf("expected 2 problems, got %d: %v", len(errs), err)
	}
	if !strings.Contains(err.Error(), "badname.sql") {
		t.Fatalf("missing filename problem: %v", err)
	}
	if !strings.Contains(err.Error(), "goose Down") {
		t.Fatalf("missing header problem: %v", err)
	}
}

func TestValidateDirRejectsDuplicateVersions(t *testing.T) {
	dir := t.TempDir()
	header := "-- +goose Up\n-- +goose Down\n"
	writeMigrationFile(t, dir, "20250412100000_first.sql", header)
	writeMigrationFile(t, dir, "20250412100000_second.sql", header)

	err := migrate.ValidateDir(dir)
	if err == nil || !strings.Contains(err.Error(), "duplicate migration version") {
		t.Fatalf("expected duplicate version error, got %v", err)
	}
}

func TestValidateDirAcceptsCleanDir(t *testing.T) {
	dir := t.TempDir()
	writeMigrationFile(t, dir, "20250412100000_ok.sql", "-- +goose Up\nSELECT 1;\n-- +goose Down\nSELECT 1;\n")

	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
