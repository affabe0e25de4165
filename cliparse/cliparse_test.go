// cliparse/cliparse_test.go
package cliparse

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{"PORT", "DATABASE_URL", "DATABASE_TYPE", "ADMIN_KEY_SALT", "HISTORY_LIMIT", "CLOSE_RETRY"} {
		t.Setenv(key, "")
	}
}

func TestParseFlags_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("ADMIN_KEY_SALT", "test-salt")

	cfg, err := ParseFlags([]string{"-env-file", ""})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 3318 {
		t.Errorf("expected port 3318, got %d", cfg.Port)
	}
	if cfg.DatabaseType != "sqlite" {
		t.Errorf("expected sqlite, got %s", cfg.DatabaseType)
	}
	if cfg.DatabaseURL != "file:livepoll.db" {
		t.Errorf("expected default sqlite URL, got %s", cfg.DatabaseURL)
	}
	if cfg.HistoryLimit != 20 {
		t.Errorf("expected history limit 20, got %d", cfg.HistoryLimit)
	}
	if cfg.CloseRetry != 2*time.Second {
		t.Errorf("expected close retry 2s, got %s", cfg.CloseRetry)
	}
}

func TestParseFlags_EnvVars(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_URL", "postgres://test")
	t.Setenv("DATABASE_TYPE", "postgres")
	t.Setenv("ADMIN_KEY_SALT", "test-salt")
	t.Setenv("HISTORY_LIMIT", "5")
	t.Setenv("CLOSE_RETRY", "500ms")

	cfg, err := ParseFlags([]string{"-env-file", ""})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.DatabaseType != "postgres" {
		t.Errorf("expected postgres, got %s", cfg.DatabaseType)
	}
	if cfg.HistoryLimit != 5 {
		t.Errorf("expected history limit 5, got %d", cfg.HistoryLimit)
	}
	if cfg.CloseRetry != 500*time.Millisecond {
		t.Errorf("expected close retry 500ms, got %s", cfg.CloseRetry)
	}
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")

	cfg, err := ParseFlags([]string{"-env-file", "", "-p", "8080", "-d", "file:test.db", "-admin-salt", "s1"})
	if err != nil {
		t.Fatal(err)
	}

	// CLI should override env
	if cfg.Port != 8080 {
		t.Errorf("CLI should override env: expected 8080, got %d", cfg.Port)
	}
	if cfg.DatabaseURL != "file:test.db" {
		t.Errorf("expected file:test.db, got %s", cfg.DatabaseURL)
	}
}

func TestParseFlags_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		args []string
	}{
		{"missing salt", nil, nil},
		{"bad port", map[string]string{"ADMIN_KEY_SALT": "s", "PORT": "abc"}, nil},
		{"bad type", map[string]string{"ADMIN_KEY_SALT": "s"}, []string{"-t", "mysql"}},
		{"postgres without url", map[string]string{"ADMIN_KEY_SALT": "s", "DATABASE_TYPE": "postgres"}, nil},
		{"bad retry", map[string]string{"ADMIN_KEY_SALT": "s", "CLOSE_RETRY": "soon"}, nil},
		{"negative history", map[string]string{"ADMIN_KEY_SALT": "s"}, []string{"-history", "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			args := append([]string{"-env-file", ""}, tt.args...)
			if _, err := ParseFlags(args); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestParseFlags_EnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	content := "ADMIN_KEY_SALT=from-file\nPORT=7000\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	// godotenv.Load does not override variables that are already set, and
	// t.Setenv("X", "") counts as set.
	os.Unsetenv("ADMIN_KEY_SALT")
	os.Unsetenv("PORT")

	cfg, err := ParseFlags([]string{"-env-file", path})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Unsetenv("ADMIN_KEY_SALT")
		os.Unsetenv("PORT")
	})

	if cfg.AdminKeySalt != "from-file" {
		t.Errorf("expected salt from file, got %q", cfg.AdminKeySalt)
	}
	if cfg.Port != 7000 {
		t.Errorf("expected port 7000, got %d", cfg.Port)
	}
}

func TestParseFlags_MissingEnvFileIgnored(t *testing.T) {
	clearEnv(t)
	t.Setenv("ADMIN_KEY_SALT", "s")

	if _, err := ParseFlags([]string{"-env-file", filepath.Join(t.TempDir(), "nope.env")}); err != nil {
		t.Errorf("missing env file should be ignored, got %v", err)
	}
}
