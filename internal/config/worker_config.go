package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/shlex"
	"github.com/joho/godotenv"
	"github.com/mini-maxit/judge-harness/internal/logger"
	"github.com/mini-maxit/judge-harness/pkg/constants"
	customErr "github.com/mini-maxit/judge-harness/pkg/errors"
	"go.uber.org/zap"
)

type Config struct {
	RabbitMQURL      string
	PublishChanSize  int
	ConsumeQueueName string
	MaxWorkers       int
	ExecutionMode    string
	JudgeTimeout     time.Duration
	RunTimeLimit     time.Duration
	WorkspaceRoot    string
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	ResultTTL        time.Duration
	CppCompileFlags  []string
}

func NewConfig() *Config {
	logger := logger.NewNamedLogger("config")
	loadDotEnv(logger)

	rabbitmqURL, publishChanSize := rabbitmqConfig(logger)
	workerQueueName, maxWorkers := workerConfig(logger)
	redisAddr, redisPassword, redisDB, resultTTL := redisConfig(logger)

	return &Config{
		RabbitMQURL:      rabbitmqURL,
		PublishChanSize:  publishChanSize,
		ConsumeQueueName: workerQueueName,
		MaxWorkers:       maxWorkers,
		ExecutionMode:    executionModeConfig(logger, constants.DefaultExecutionMode),
		JudgeTimeout:     time.Duration(getEnvInt(logger, "JUDGE_TIMEOUT_SEC", constants.DefaultJudgeTimeoutSec)) * time.Second,
		RunTimeLimit:     time.Duration(getEnvInt(logger, "RUN_TIME_LIMIT_MS", constants.DefaultRunTimeLimitMs)) * time.Millisecond,
		WorkspaceRoot:    getEnvString(logger, "WORKSPACE_ROOT", constants.DefaultWorkspaceRoot),
		RedisAddr:        redisAddr,
		RedisPassword:    redisPassword,
		RedisDB:          redisDB,
		ResultTTL:        resultTTL,
		CppCompileFlags:  compileFlagsConfig(logger),
	}
}

func loadDotEnv(logger *zap.SugaredLogger) {
	if err := readDotEnv(logger); err != nil {
		logger.Fatalf("%v", err)
	}
}

func readDotEnv(logger *zap.SugaredLogger) error {
	_, err := os.Stat(".env")
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: failed to stat .env file: %w", customErr.ErrInvalidConfig, err)
		}
		return nil
	}

	if os.Getenv("ENV") == "PROD" {
		logger.Warn(".env file detected in production environment. This is not recommended.")
	}
	if err := godotenv.Load(".env"); err != nil {
		return fmt.Errorf("%w: failed to load .env file: %w", customErr.ErrInvalidConfig, err)
	}
	return nil
}

func getEnvString(logger *zap.SugaredLogger, key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		logger.Warnf("%s is not set, using default value %s", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvInt(logger *zap.SugaredLogger, key string, defaultValue int) int {
	value, err := parseEnvInt(logger, key, defaultValue)
	if err != nil {
		logger.Fatalf("%v", err)
	}
	return value
}

// parseEnvInt reads a non-negative integer.
func parseEnvInt(logger *zap.SugaredLogger, key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		logger.Warnf("%s is not set, using default value %d", key, defaultValue)
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer, got %q",
			customErr.ErrInvalidConfig, key, valueStr)
	}
	return value, nil
}

func rabbitmqConfig(logger *zap.SugaredLogger) (string, int) {
	rabbitmqHost := getEnvString(logger, "RABBITMQ_HOST", constants.DefaultRabbitmqHost)
	rabbitmqPortStr := getEnvString(logger, "RABBITMQ_PORT", constants.DefaultRabbitmqPort)
	rabbitmqPort, err := strconv.ParseUint(rabbitmqPortStr, 10, 16)
	if err != nil {
		logger.Fatalf("failed to parse RABBITMQ_PORT with error: %v", err)
	}
	rabbitmqUser := getEnvString(logger, "RABBITMQ_USER", constants.DefaultRabbitmqUser)
	rabbitmqPassword := os.Getenv("RABBITMQ_PASSWORD")
	if rabbitmqPassword == "" {
		rabbitmqPassword = constants.DefaultRabbitmqPassword
		logger.Warn("RABBITMQ_PASSWORD is not set, using default value")
	}
	publishChanSize := getEnvInt(logger, "RABBITMQ_PUBLISH_CHAN_SIZE", constants.DefaultRabbitmqPublishChanSize)

	rabbitmqURL := fmt.Sprintf("amqp://%s:%s@%s:%d/", rabbitmqUser, rabbitmqPassword, rabbitmqHost, rabbitmqPort)

	return rabbitmqURL, publishChanSize
}

func workerConfig(logger *zap.SugaredLogger) (string, int) {
	workerQueueName := getEnvString(logger, "WORKER_QUEUE_NAME", constants.DefaultWorkerQueueName)
	maxWorkers := getEnvInt(logger, "MAX_WORKERS", constants.DefaultMaxWorkers)
	if maxWorkers == 0 {
		logger.Fatalf("MAX_WORKERS must be positive")
	}

	return workerQueueName, maxWorkers
}

func executionModeConfig(logger *zap.SugaredLogger, defaultMode string) string {
	mode, err := parseExecutionMode(logger, defaultMode)
	if err != nil {
		logger.Fatalf("%v", err)
	}
	return mode
}

func parseExecutionMode(logger *zap.SugaredLogger, defaultMode string) (string, error) {
	mode := getEnvString(logger, "EXECUTION_MODE", defaultMode)
	switch mode {
	case constants.ExecutionModeHost, constants.ExecutionModeDocker:
		return mode, nil
	default:
		return "", fmt.Errorf("%w: EXECUTION_MODE %q, expected %s or %s",
			customErr.ErrInvalidExecutionMode, mode, constants.ExecutionModeHost, constants.ExecutionModeDocker)
	}
}

// redisConfig reads the optional result store settings. An empty REDIS_ADDR
// disables the store.
func redisConfig(logger *zap.SugaredLogger) (string, string, int, time.Duration) {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		logger.Warn("REDIS_ADDR is not set, result store is disabled")
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := getEnvInt(logger, "REDIS_DB", constants.DefaultRedisDB)
	resultTTL := time.Duration(getEnvInt(logger, "RESULT_TTL_SEC", constants.DefaultResultTTLSec)) * time.Second

	return redisAddr, redisPassword, redisDB, resultTTL
}

func compileFlagsConfig(logger *zap.SugaredLogger) []string {
	flags, err := parseCompileFlags(logger)
	if err != nil {
		logger.Fatalf("%v", err)
	}
	return flags
}

func parseCompileFlags(logger *zap.SugaredLogger) ([]string, error) {
	flagsStr := getEnvString(logger, "CPP_COMPILE_FLAGS", constants.DefaultCppCompileFlags)
	flags, err := shlex.Split(flagsStr)
	if err != nil {
		return nil, fmt.Errorf("%w: CPP_COMPILE_FLAGS: %w", customErr.ErrInvalidConfig, err)
	}
	return flags, nil
}
