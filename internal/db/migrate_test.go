package db

import "testing"

func TestMigrateURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://u:p@h:5432/db?sslmode=disable", "pgx5://u:p@h:5432/db?sslmode=disable"},
		{"postgresql://u:p@h/db", "pgx5://u:p@h/db"},
		{"pgx5://u:p@h/db", "pgx5://u:p@h/db"},
	}

	for _, tt := range tests {
		if got := migrateURL(tt.in); got != tt.want {
			t.Fatalf("migrateURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		t.Fatalf("read embedded migrations: %v", err)
	}
	if len(entries) == 0 || len(entries)%2 != 0 {
		t.Fatalf("expected paired up/down migrations, got %d files", len(entries))
	}
}
