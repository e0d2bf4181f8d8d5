package main

import (
	"github.com/mini-maxit/judge-harness/internal/config"
	"github.com/mini-maxit/judge-harness/internal/docker"
	"github.com/mini-maxit/judge-harness/internal/judge"
	"github.com/mini-maxit/judge-harness/internal/logger"
	"github.com/mini-maxit/judge-harness/internal/pipeline"
	"github.com/mini-maxit/judge-harness/internal/rabbitmq"
	"github.com/mini-maxit/judge-harness/internal/rabbitmq/consumer"
	"github.com/mini-maxit/judge-harness/internal/rabbitmq/responder"
	"github.com/mini-maxit/judge-harness/internal/resultstore"
	"github.com/mini-maxit/judge-harness/internal/scheduler"
	"github.com/mini-maxit/judge-harness/internal/stages/compiler"
	"github.com/mini-maxit/judge-harness/internal/stages/executor"
	"github.com/mini-maxit/judge-harness/internal/stages/packager"
	"github.com/mini-maxit/judge-harness/pkg/constants"
)

func main() {
	logger := logger.NewNamedLogger("main")

	logger.Info("Starting worker")

	// Load the configuration
	cfg := config.NewConfig()

	// Connect to RabbitMQ
	conn := rabbitmq.NewRabbitMqConnection(cfg)
	defer func() {
		if err := conn.Close(); err != nil {
			logger.Errorf("Failed to close RabbitMQ connection: %s", err)
		}
	}()

	workerChannel := rabbitmq.NewRabbitMQChannel(conn)

	// Initialize the services
	var dCli docker.DockerClient
	if cfg.ExecutionMode == constants.ExecutionModeDocker {
		var err error
		dCli, err = docker.NewDockerClient()
		if err != nil {
			logger.Fatalf("Failed to initialize Docker client: %s", err)
		}
	}
	executors, err := executor.NewFactory(cfg.ExecutionMode, dCli)
	if err != nil {
		logger.Fatalf("Failed to initialize executor: %s", err)
	}

	var store resultstore.Store
	if cfg.RedisAddr != "" {
		store, err = resultstore.NewRedisStore(resultstore.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.ResultTTL,
		})
		if err != nil {
			logger.Fatalf("Failed to initialize result store: %s", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Errorf("Failed to close result store: %s", err)
			}
		}()
	}

	resp := responder.NewResponder(workerChannel, cfg.PublishChanSize)
	defer func() {
		if err := resp.Close(); err != nil {
			logger.Errorf("Failed to close responder: %s", err)
		}
	}()

	sched := scheduler.NewScheduler(cfg.MaxWorkers,
		pipeline.Settings{
			JudgeTimeout: cfg.JudgeTimeout,
			RunTimeLimit: cfg.RunTimeLimit,
		},
		pipeline.Stages{
			Compiler:  compiler.NewCompiler(cfg.CppCompileFlags),
			Packager:  packager.NewPackager(cfg.WorkspaceRoot),
			Executors: executors,
			Engine:    judge.NewEngine(),
			Responder: resp,
			Store:     store,
		})

	queueListener := consumer.NewConsumer(workerChannel, cfg.ConsumeQueueName, sched, resp, store)

	logger.Info("Listening for messages")
	// Start listening for messages
	queueListener.Listen()
}
