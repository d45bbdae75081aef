package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	_ = os.Unsetenv("FXARB_CONFIG")
	_ = os.Unsetenv("FXARB_LOG_LEVEL")
	_ = os.Unsetenv("FXARB_HTTP_ADDR")
	_ = os.Unsetenv("FXARB_KAFKA_BROKERS")

	c := Load()
	if c.Logging.Level != "info" {
		t.Fatalf("expected default log level info, got %s", c.Logging.Level)
	}
	if c.Feed.StaleAfterMs != 1500 {
		t.Fatalf("expected stale window 1500ms, got %d", c.Feed.StaleAfterMs)
	}
	if c.Feed.SilenceTimeoutSeconds != 60 {
		t.Fatalf("expected silence timeout 60s, got %d", c.Feed.SilenceTimeoutSeconds)
	}
	if c.Detector.Tolerance != 1e-12 {
		t.Fatalf("expected tolerance 1e-12, got %g", c.Detector.Tolerance)
	}
	if c.Detector.StartAmount != 100 {
		t.Fatalf("expected start amount 100, got %g", c.Detector.StartAmount)
	}
	if c.Report.Kafka.Enabled {
		t.Fatalf("kafka reporting must be off by default")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("FXARB_LOG_LEVEL", "debug")
	t.Setenv("FXARB_STALE_AFTER_MS", "2500")
	t.Setenv("FXARB_TOLERANCE", "1e-9")
	t.Setenv("FXARB_KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("FXARB_HTTP_ADDR", "")
	c := Load()
	if c.Logging.Level != "debug" {
		t.Fatalf("env override failed for log level, got %s", c.Logging.Level)
	}
	if c.Feed.StaleAfterMs != 2500 {
		t.Fatalf("env override failed for stale window, got %d", c.Feed.StaleAfterMs)
	}
	if c.Detector.Tolerance != 1e-9 {
		t.Fatalf("env override failed for tolerance, got %g", c.Detector.Tolerance)
	}
	if !c.Report.Kafka.Enabled || len(c.Report.Kafka.Brokers) != 2 || c.Report.Kafka.Brokers[1] != "k2:9092" {
		t.Fatalf("env override failed for kafka brokers, got %v", c.Report.Kafka.Brokers)
	}
	if c.Server.Addr != "" {
		t.Fatalf("empty FXARB_HTTP_ADDR should disable the admin server, got %q", c.Server.Addr)
	}
}

func TestYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fxarb.yaml")
	doc := []byte("feed:\n  poll_interval_ms: 50\n  listen_addr: 127.0.0.1:40000\ndetector:\n  start_amount: 1000\n")
	if err := os.WriteFile(path, doc, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FXARB_CONFIG", path)
	c := Load()
	if c.Feed.PollIntervalMs != 50 || c.Feed.ListenAddr != "127.0.0.1:40000" {
		t.Fatalf("yaml feed section not applied: %+v", c.Feed)
	}
	if c.Detector.StartAmount != 1000 {
		t.Fatalf("yaml detector section not applied: %+v", c.Detector)
	}
	if c.Feed.StaleAfterMs != 1500 {
		t.Fatalf("defaults must survive a partial file, got %d", c.Feed.StaleAfterMs)
	}
}

func TestLoadCheckedReportsBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fxarb.yaml")
	doc := []byte("feed:\n  poll_interval_ms: [50\ndetector:\n  start_amount: 1000\n")
	if err := os.WriteFile(path, doc, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FXARB_CONFIG", path)
	t.Setenv("FXARB_STALE_AFTER_MS", "2000")

	c, err := LoadChecked()
	if err == nil {
		t.Fatalf("expected an error for invalid yaml")
	}
	if !strings.Contains(err.Error(), path) {
		t.Fatalf("error should name the file, got %v", err)
	}
	if c.Detector.StartAmount != 100 || c.Feed.PollIntervalMs != 200 {
		t.Fatalf("a broken file must not be applied partially: %+v %+v", c.Feed, c.Detector)
	}
	if c.Feed.StaleAfterMs != 2000 {
		t.Fatalf("env overrides still apply after a bad file, got %d", c.Feed.StaleAfterMs)
	}

	t.Setenv("FXARB_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := LoadChecked(); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
	t.Setenv("FXARB_CONFIG", "")
	if _, err := LoadChecked(); err != nil {
		t.Fatalf("no file configured should not be an error, got %v", err)
	}
}
