package config

import (
	"os"
	"path/filepath"
	"testing"
)

const testYAML = `environment: test
server:
  port: 5000
  read_timeout: 10s
  write_timeout: 10s
  shutdown_timeout: 5s
store:
  type: memory
ledger:
  type: memory
  table: signals
ingest:
  backend: direct
expo:
  url: https://exp.host/--/api/v2/push/send
  timeout: 10s
  rate_per_sec: 30
  burst: 60
dispatch:
  workers: 8
  pref_cache_ttl: 5s
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, testYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 5000 {
		t.Fatalf("unexpected port %d", cfg.Server.Port)
	}
	if cfg.Store.Type != "memory" || cfg.Ledger.Type != "memory" {
		t.Fatalf("unexpected backends %s/%s", cfg.Store.Type, cfg.Ledger.Type)
	}
	if cfg.Dispatch.Workers != 8 {
		t.Fatalf("unexpected workers %d", cfg.Dispatch.Workers)
	}
}

func TestLoadRejectsUnknownStore(t *testing.T) {
	body := `environment: test
store:
  type: cassandra
ledger:
  type: memory
expo:
  url: https://exp.host/--/api/v2/push/send
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestLoadRequiresKafkaWhenSelected(t *testing.T) {
	body := `environment: test
store:
  type: memory
ledger:
  type: memory
ingest:
  backend: kafka
expo:
  url: https://exp.host/--/api/v2/push/send
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatalf("expected missing brokers error")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("EXPO_URL", "http://localhost:9999/push")

	cfg, err := LoadWithEnv(writeConfig(t, testYAML))
	if err != nil {
		t.Fatalf("load with env: %v", err)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[0] != "k1:9092" {
		t.Fatalf("unexpected brokers %v", cfg.Kafka.Brokers)
	}
	if cfg.Expo.URL != "http://localhost:9999/push" {
		t.Fatalf("unexpected expo url %s", cfg.Expo.URL)
	}
}
