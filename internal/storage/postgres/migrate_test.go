package postgres

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
)

func TestMigrationFiles(t *testing.T) {
	entries, err := fs.ReadDir(migrationFiles, "migrations")
	if err != nil {
		t.Fatal(err)
	}

	var ups, downs int
	for _, e := range entries {
		switch {
		case strings.HasSuffix(e.Name(), ".up.sql"):
			ups++
		case strings.HasSuffix(e.Name(), ".down.sql"):
			downs++
		}
	}
	if ups == 0 || ups != downs {
		t.Fatalf("got %d up and %d down migrations", ups, downs)
	}

	body, err := fs.ReadFile(migrationFiles, "migrations/0001_init.up.sql")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"CREATE TABLE IF NOT EXISTS short_urls",
		"CREATE TABLE IF NOT EXISTS click_events",
		"ON DELETE CASCADE",
		"increment_click_counters(link_id UUID, is_unique BOOLEAN)",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("initial migration missing %q", want)
		}
	}
}

func TestNullableText(t *testing.T) {
	if v := toNullableText("   "); v.Valid {
		t.Errorf("blank string should be NULL, got %+v", v)
	}
	if v := toNullableText(" owner "); !v.Valid || v.String != "owner" {
		t.Errorf("got %+v", v)
	}
	if got := nullableTextValue(pgtype.Text{}); got != "" {
		t.Errorf("NULL should map to empty, got %q", got)
	}
}
