package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/LavaJover/shvark-genealogy-service/internal/config"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
env: "dev"
grpc_server:
  host: "127.0.0.1"
  port: "6000"
genealogy_db:
  driver: "memory"
kafka-service:
  host: "kafka"
  port: "9092"
placement:
  max_retries: 3
reconciliation:
  flashout: "subtree"
  batch_interval: "10m"
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	require.Equal(t, "dev", cfg.Env)
	require.Equal(t, "6000", cfg.GRPCServer.Port)
	require.Equal(t, "memory", cfg.GenealogyDB.Driver)
	require.Equal(t, []string{"kafka:9092"}, cfg.KafkaService.Brokers())
	require.Equal(t, "genealogy-service", cfg.KafkaService.GroupID)
	require.Equal(t, "member-status-events", cfg.KafkaService.StatusTopic)
	require.Equal(t, 3, cfg.Placement.MaxRetries)
	require.Equal(t, 1000, cfg.Placement.MaxDepth)
	require.Equal(t, 20*time.Millisecond, cfg.Placement.RetryBaseDelay)
	require.Equal(t, "subtree", cfg.Reconciliation.Flashout)
	require.Equal(t, 10*time.Minute, cfg.Reconciliation.BatchInterval)
	require.Equal(t, 500, cfg.Reconciliation.WriteChunkSize)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestKafkaService_BrokersUnset(t *testing.T) {
	require.Nil(t, config.KafkaService{}.Brokers())
}
