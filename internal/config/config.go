package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Logging struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"logging"`
	Server struct {
		Addr                string   `yaml:"addr"`
		Pprof               bool     `yaml:"pprof"`
		ReadTimeoutSeconds  int      `yaml:"read_timeout_seconds"`
		WriteTimeoutSeconds int      `yaml:"write_timeout_seconds"`
		IdleTimeoutSeconds  int      `yaml:"idle_timeout_seconds"`
		AdminAllowCIDRs     []string `yaml:"admin_allow_cidrs"`
	} `yaml:"server"`
	Feed struct {
		ListenAddr            string `yaml:"listen_addr"`
		AdvertiseHost         string `yaml:"advertise_host"`
		BufferSize            int    `yaml:"buffer_size"`
		PollIntervalMs        int    `yaml:"poll_interval_ms"`
		SilenceTimeoutSeconds int    `yaml:"silence_timeout_seconds"`
		StaleAfterMs          int    `yaml:"stale_after_ms"`
	} `yaml:"feed"`
	Detector struct {
		Tolerance   float64 `yaml:"tolerance"`
		StartAmount float64 `yaml:"start_amount"`
	} `yaml:"detector"`
	Report struct {
		Kafka struct {
			Enabled  bool     `yaml:"enabled"`
			Brokers  []string `yaml:"brokers"`
			Topic    string   `yaml:"topic"`
			ClientID string   `yaml:"client_id"`
		} `yaml:"kafka"`
	} `yaml:"report"`
}

func defaultConfig() Config {
	var c Config
	c.Logging.Level = "info"
	c.Logging.Pretty = false
	c.Server.Addr = ":9090"
	c.Server.Pprof = false
	c.Server.ReadTimeoutSeconds = 5
	c.Server.WriteTimeoutSeconds = 10
	c.Server.IdleTimeoutSeconds = 60
	c.Server.AdminAllowCIDRs = []string{"127.0.0.0/8", "::1/128"}
	c.Feed.ListenAddr = "127.0.0.1:0"
	c.Feed.BufferSize = 4096
	c.Feed.PollIntervalMs = 200
	c.Feed.SilenceTimeoutSeconds = 60
	c.Feed.StaleAfterMs = 1500
	c.Detector.Tolerance = 1e-12
	c.Detector.StartAmount = 100
	c.Report.Kafka.Enabled = false
	c.Report.Kafka.Brokers = []string{"127.0.0.1:9092"}
	c.Report.Kafka.Topic = "fx.arbitrage"
	c.Report.Kafka.ClientID = "fxarb"
	return c
}

// Load returns defaults, then the $FXARB_CONFIG file, then FXARB_* env
// overrides. An unreadable or invalid file is skipped; use LoadChecked to see why.
func Load() Config {
	c, _ := LoadChecked()
	return c
}

// LoadChecked is Load that also reports a config file it had to skip. The
// returned Config is usable either way.
func LoadChecked() (Config, error) {
	c := defaultConfig()
	var fileErr error
	if path := os.Getenv("FXARB_CONFIG"); path != "" {
		fileErr = loadFile(path, &c)
	}
	applyEnv(&c)
	return c, fileErr
}

func loadFile(path string, c *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	fc := *c
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	*c = fc
	return nil
}

func applyEnv(c *Config) {
	if v := os.Getenv("FXARB_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("FXARB_LOG_PRETTY"); v == "1" || v == "true" {
		c.Logging.Pretty = true
	}
	// empty string is meaningful here: it disables the admin server
	if v, ok := os.LookupEnv("FXARB_HTTP_ADDR"); ok {
		c.Server.Addr = v
	}
	if v := os.Getenv("FXARB_PPROF"); v == "1" || v == "true" {
		c.Server.Pprof = true
	}
	if v := os.Getenv("FXARB_ADMIN_ALLOW_CIDRS"); v != "" {
		c.Server.AdminAllowCIDRs = splitCSV(v)
	}
	if v := os.Getenv("FXARB_LISTEN_ADDR"); v != "" {
		c.Feed.ListenAddr = v
	}
	if v := os.Getenv("FXARB_ADVERTISE_HOST"); v != "" {
		c.Feed.AdvertiseHost = v
	}
	if v := os.Getenv("FXARB_STALE_AFTER_MS"); v != "" {
		var n int
		_, _ = fmt.Sscan(v, &n)
		if n > 0 {
			c.Feed.StaleAfterMs = n
		}
	}
	if v := os.Getenv("FXARB_SILENCE_TIMEOUT_SECONDS"); v != "" {
		var n int
		_, _ = fmt.Sscan(v, &n)
		if n > 0 {
			c.Feed.SilenceTimeoutSeconds = n
		}
	}
	if v := os.Getenv("FXARB_TOLERANCE"); v != "" {
		var f float64
		_, _ = fmt.Sscan(v, &f)
		if f >= 0 {
			c.Detector.Tolerance = f
		}
	}
	if v := os.Getenv("FXARB_KAFKA_BROKERS"); v != "" {
		c.Report.Kafka.Brokers = splitCSV(v)
		c.Report.Kafka.Enabled = true
	}
	if v := os.Getenv("FXARB_KAFKA_TOPIC"); v != "" {
		c.Report.Kafka.Topic = v
	}
}

func splitCSV(s string) []string {
	var out []string
	buf := []rune{}
	for _, r := range s {
		if r == ',' {
			if len(buf) > 0 {
				out = append(out, string(buf))
				buf = buf[:0]
			}
			continue
		}
		if r == ' ' {
			continue
		}
		buf = append(buf, r)
	}
	if len(buf) > 0 {
		out = append(out, string(buf))
	}
	return out
}
