package logging

import (
	"os"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		input   string
		want    LogLevel
		wantErr bool
	}{
		{"debug", DEBUG, false},
		{"INFO", INFO, false},
		{"Warn", WARN, false},
		{"error", ERROR, false},
		{"fatal", FATAL, false},
		{"verbose", -1, true},
		{"", -1, true},
	}

	for _, tc := range cases {
		got, err := parseLevel(tc.input)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseLevel(%q): expected error", tc.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseLevel(%q): unexpected error: %v", tc.input, err)
		}
		if got != tc.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestPackageLogLevels(t *testing.T) {
	defer func() { _ = SetPackageLogLevels(map[string]string{}) }()

	err := SetPackageLogLevels(map[string]string{
		"research.search": "debug",
		"research.*":      "warn",
		"batch":           "error",
	})
	if err != nil {
		t.Fatalf("SetPackageLogLevels failed: %v", err)
	}

	// Exact match beats wildcard
	if got := GetPackageLogLevel("research.search"); got != DEBUG {
		t.Errorf("research.search: got %v, want DEBUG", got)
	}
	// Wildcard applies to other subpackages
	if got := GetPackageLogLevel("research.scrape"); got != WARN {
		t.Errorf("research.scrape: got %v, want WARN", got)
	}
	if got := GetPackageLogLevel("batch"); got != ERROR {
		t.Errorf("batch: got %v, want ERROR", got)
	}
	// Unknown packages have no override
	if got := GetPackageLogLevel("notion"); got != LogLevel(-1) {
		t.Errorf("notion: got %v, want -1", got)
	}
}

func TestSetPackageLogLevels_InvalidLevel(t *testing.T) {
	err := SetPackageLogLevels(map[string]string{"batch": "loud"})
	if err == nil {
		t.Fatal("expected error for invalid level")
	}
}

func TestWithFieldImmutable(t *testing.T) {
	base := GetLogger("test")
	child := base.WithField("topic", "infusion pumps")

	if len(base.fields) != 0 {
		t.Errorf("base logger mutated: %v", base.fields)
	}
	if child.fields["topic"] != "infusion pumps" {
		t.Errorf("child missing field: %v", child.fields)
	}
}

func TestFatalUsesExitFunc(t *testing.T) {
	var code int
	called := false
	exitFunc = func(c int) {
		called = true
		code = c
	}
	defer func() { exitFunc = os.Exit }()

	logger := GetLogger("test")
	logger.Fatal("boom")

	if !called {
		t.Fatal("Fatal did not call exitFunc")
	}
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
}
