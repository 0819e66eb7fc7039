package env

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseLine(t *testing.T) {
	cases := []struct {
		line string
		k, v string
		ok   bool
	}{
		{"PAY_PORT=5000", "PAY_PORT", "5000", true},
		{"  PAY_ENV = dev  ", "PAY_ENV", "dev", true},
		{"export PAY_STRIPE_KEY=sk_test_abc", "PAY_STRIPE_KEY", "sk_test_abc", true},
		{`PAY_DATA_DIR="./data"`, "PAY_DATA_DIR", "./data", true},
		{"PAY_KAFKA_TOPIC='payment-events'", "PAY_KAFKA_TOPIC", "payment-events", true},
		{"PAY_SWEEP_AGE=15m # stale cutoff", "PAY_SWEEP_AGE", "15m", true},
		{"# a comment", "", "", false},
		{"", "", "", false},
		{"=nokey", "", "", false},
		{"noequals", "", "", false},
	}
	for _, c := range cases {
		k, v, ok := parseLine(c.line)
		if k != c.k || v != c.v || ok != c.ok {
			t.Fatalf("parseLine(%q) = %q %q %v", c.line, k, v, ok)
		}
	}
}

func TestLoad_DoesNotOverrideProcessEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "TEST_ENV_KEPT=from_file\nTEST_ENV_NEW=from_file\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	t.Setenv("TEST_ENV_KEPT", "from_process")
	os.Unsetenv("TEST_ENV_NEW")
	t.Cleanup(func() { os.Unsetenv("TEST_ENV_NEW") })

	Load(path, filepath.Join(dir, "missing.env"))

	if got := os.Getenv("TEST_ENV_KEPT"); got != "from_process" {
		t.Fatalf("kept = %q", got)
	}
	if got := os.Getenv("TEST_ENV_NEW"); got != "from_file" {
		t.Fatalf("new = %q", got)
	}
}
