package main

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/mini-maxit/judge-harness/internal/config"
	"github.com/mini-maxit/judge-harness/internal/docker"
	"github.com/mini-maxit/judge-harness/internal/harness"
	"github.com/mini-maxit/judge-harness/internal/judge"
	"github.com/mini-maxit/judge-harness/internal/logger"
	"github.com/mini-maxit/judge-harness/internal/stages/compiler"
	"github.com/mini-maxit/judge-harness/internal/stages/executor"
	"github.com/mini-maxit/judge-harness/pkg/constants"
	"github.com/mini-maxit/judge-harness/pkg/verdict"
)

func main() {
	logger := logger.NewNamedLogger("main")

	if err := writeReport(os.Stdout, run(context.Background())); err != nil {
		logger.Fatalf("Failed to write report: %s", err)
	}
}

// run never fails: setup errors become a report without test results.
func run(ctx context.Context) verdict.Report {
	logger := logger.NewNamedLogger("main")

	cfg, err := config.NewHarnessConfig()
	if err != nil {
		logger.Errorf("Invalid harness configuration: %s", err)
		return verdict.BuildFailure(0, err.Error())
	}
	logger.Infof("Judging %s %s solution in %s", cfg.LanguageType, cfg.LanguageVersion, cfg.SourceDir)

	var dCli docker.DockerClient
	if cfg.ExecutionMode == constants.ExecutionModeDocker {
		dCli, err = docker.NewDockerClient()
		if err != nil {
			logger.Errorf("Failed to initialize Docker client: %s", err)
			return verdict.BuildFailure(0, err.Error())
		}
	}

	factory, err := executor.NewFactory(cfg.ExecutionMode, dCli)
	if err != nil {
		logger.Errorf("Failed to initialize executor: %s", err)
		return verdict.BuildFailure(0, err.Error())
	}

	h := harness.New(cfg, compiler.NewCompiler(cfg.CppCompileFlags), factory, judge.NewEngine())
	return h.Run(ctx)
}

func writeReport(w io.Writer, report verdict.Report) error {
	return json.NewEncoder(w).Encode(report)
}
