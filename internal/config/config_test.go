package config

import (
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.ListenAddr(); got != DefaultAddr {
		t.Errorf("ListenAddr() = %q, want %q", got, DefaultAddr)
	}
	if got := cfg.Argv(); !slices.Equal(got, []string{"git", "pull"}) {
		t.Errorf("Argv() = %q, want [git pull]", got)
	}
	if got := cfg.NoOpStatusCode(); got != http.StatusAlreadyReported {
		t.Errorf("NoOpStatusCode() = %d, want 208", got)
	}
	if got := cfg.Timeout(); got != 0 {
		t.Errorf("Timeout() = %s, want 0 (no deadline)", got)
	}
	if got := cfg.SerializeMode(); got != SerializeOff {
		t.Errorf("SerializeMode() = %q, want %q", got, SerializeOff)
	}
	if got := cfg.HistorySize(); got != DefaultHistory {
		t.Errorf("HistorySize() = %d, want %d", got, DefaultHistory)
	}
	if !cfg.DetectHeads() {
		t.Error("DetectHeads() = false, want true by default")
	}
}

func TestLoad_AllFields(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `addr: ":9000"
command: [git, pull, --ff-only]
noop_status: 204
timeout: 30s
max_output: 4096
serialize: reject
history: 5
detect_heads: false
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.ListenAddr(); got != ":9000" {
		t.Errorf("ListenAddr() = %q, want %q", got, ":9000")
	}
	if got := cfg.Argv(); !slices.Equal(got, []string{"git", "pull", "--ff-only"}) {
		t.Errorf("Argv() = %q", got)
	}
	if got := cfg.NoOpStatusCode(); got != http.StatusNoContent {
		t.Errorf("NoOpStatusCode() = %d, want 204", got)
	}
	if got := cfg.Timeout(); got != 30*time.Second {
		t.Errorf("Timeout() = %s, want 30s", got)
	}
	if cfg.MaxOutput != 4096 {
		t.Errorf("MaxOutput = %d, want 4096", cfg.MaxOutput)
	}
	if got := cfg.SerializeMode(); got != SerializeReject {
		t.Errorf("SerializeMode() = %q, want %q", got, SerializeReject)
	}
	if got := cfg.HistorySize(); got != 5 {
		t.Errorf("HistorySize() = %d, want 5", got)
	}
	if cfg.DetectHeads() {
		t.Error("DetectHeads() = true, want false")
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"noop status":  "noop_status: 200\n",
		"serialize":    "serialize: sometimes\n",
		"timeout":      "timeout: soon\n",
		"max output":   "max_output: -1\n",
		"empty binary": "command: ['', pull]\n",
		"yaml":         "command: [git\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, body)
			if _, err := Load(dir); err == nil {
				t.Fatalf("Load(%q) succeeded, want error", body)
			}
		})
	}
}

func TestLoadFile_Required(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")
	_, err := LoadFile(path, true)
	if err == nil {
		t.Fatal("expected error for missing required file")
	}
	if !strings.Contains(err.Error(), "missing.yaml") {
		t.Errorf("error = %q, want to mention the path", err)
	}
}
