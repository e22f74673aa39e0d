package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type GenealogyConfig struct {
	Env            string `yaml:"env" env:"ENV" env-default:"local"`
	GRPCServer     `yaml:"grpc_server"`
	MetricsServer  `yaml:"metrics_server"`
	GenealogyDB    `yaml:"genealogy_db"`
	LogConfig      `yaml:"log_config"`
	KafkaService   `yaml:"kafka-service"`
	Placement      `yaml:"placement"`
	Reconciliation `yaml:"reconciliation"`
}

type GRPCServer struct {
	Host string `yaml:"host" env:"GRPC_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"GRPC_PORT" env-default:"50057"`
}

type MetricsServer struct {
	Host string `yaml:"host" env:"METRICS_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"METRICS_PORT" env-default:"9107"`
}

type GenealogyDB struct {
	// Driver is postgres or memory.
	Driver         string `yaml:"driver" env:"GENEALOGY_DB_DRIVER" env-default:"postgres"`
	Dsn            string `yaml:"dsn" env:"GENEALOGY_DB_DSN"`
	MigrationsPath string `yaml:"migrations_path" env:"GENEALOGY_DB_MIGRATIONS_PATH"`
}

type LogConfig struct {
	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT" env-default:"text"`
	LogOutput string `yaml:"log_output" env:"LOG_OUTPUT" env-default:"stdout"`
}

type KafkaService struct {
	Host        string `yaml:"host" env:"KAFKA_HOST"`
	Port        string `yaml:"port" env:"KAFKA_PORT"`
	GroupID     string `yaml:"group_id" env:"KAFKA_GROUP_ID" env-default:"genealogy-service"`
	StatusTopic string `yaml:"status_topic" env:"KAFKA_STATUS_TOPIC" env-default:"member-status-events"`
	VolumeTopic string `yaml:"volume_topic" env:"KAFKA_VOLUME_TOPIC" env-default:"volume-credit-events"`
	LedgerTopic string `yaml:"ledger_topic" env:"KAFKA_LEDGER_TOPIC" env-default:"genealogy-ledger-events"`
	// Backoff between attempts to apply a consumed event.
	RetryBaseDelay time.Duration `yaml:"retry_base_delay" env:"KAFKA_RETRY_BASE_DELAY" env-default:"200ms"`
	MaxRetryDelay  time.Duration `yaml:"max_retry_delay" env:"KAFKA_MAX_RETRY_DELAY" env-default:"30s"`
}

type Placement struct {
	MaxDepth       int           `yaml:"max_depth" env:"PLACEMENT_MAX_DEPTH" env-default:"1000"`
	MaxRetries     int           `yaml:"max_retries" env:"PLACEMENT_MAX_RETRIES" env-default:"5"`
	RetryBaseDelay time.Duration `yaml:"retry_base_delay" env:"PLACEMENT_RETRY_BASE_DELAY" env-default:"20ms"`
}

type Reconciliation struct {
	Flashout       string        `yaml:"flashout" env:"RECONCILIATION_FLASHOUT" env-default:"own-volume"`
	OrphanPolicy   string        `yaml:"orphan_policy" env:"RECONCILIATION_ORPHAN_POLICY" env-default:"skip"`
	BatchInterval  time.Duration `yaml:"batch_interval" env:"RECONCILIATION_BATCH_INTERVAL" env-default:"1h"`
	WriteChunkSize int           `yaml:"write_chunk_size" env:"RECONCILIATION_WRITE_CHUNK_SIZE" env-default:"500"`
}

// Brokers is empty when Kafka is not configured.
func (k KafkaService) Brokers() []string {
	if k.Host == "" {
		return nil
	}
	return []string{fmt.Sprintf("%s:%s", k.Host, k.Port)}
}

func Load(configPath string) (*GenealogyConfig, error) {
	if _, err := os.Stat(configPath); err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	// YAML to struct object
	var cfg GenealogyConfig
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return &cfg, nil
}

func MustLoad() *GenealogyConfig {
	// Processing env config variable and file
	configPath := os.Getenv("GENEALOGY_CONFIG_PATH")

	if configPath == "" {
		log.Fatalf("GENEALOGY_CONFIG_PATH was not found\n")
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("%v\n", err)
	}
	return cfg
}
