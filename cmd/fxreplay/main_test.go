package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRunUsage(t *testing.T) {
	if code := run(nil); code != 1 {
		t.Fatalf("expected exit 1 without arguments, got %d", code)
	}
	if code := run([]string{"a.csv", "b.csv"}); code != 1 {
		t.Fatalf("expected exit 1 with two arguments, got %d", code)
	}
}

func TestRunReplaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quotes.csv")
	data := "1709294400000000,USD,EUR,0.9\n1709294400000001,EUR,JPY,120\n1709294400000002,JPY,USD,0.0095\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	if code := run([]string{path}); code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if code := run([]string{filepath.Join(t.TempDir(), "missing.csv")}); code != 1 {
		t.Fatalf("expected exit 1 for missing file, got %d", code)
	}
}
