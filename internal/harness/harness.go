// Package harness runs one judge pass over a prepared source directory and
// produces a verdict report. It is the in-container counterpart of the queue
// worker pipeline.
package harness

import (
	"context"

	"github.com/mini-maxit/judge-harness/internal/config"
	"github.com/mini-maxit/judge-harness/internal/corpus"
	"github.com/mini-maxit/judge-harness/internal/entrypoint"
	"github.com/mini-maxit/judge-harness/internal/judge"
	"github.com/mini-maxit/judge-harness/internal/logger"
	"github.com/mini-maxit/judge-harness/internal/signature"
	"github.com/mini-maxit/judge-harness/internal/stages/compiler"
	"github.com/mini-maxit/judge-harness/internal/stages/executor"
	"github.com/mini-maxit/judge-harness/pkg/verdict"
	"go.uber.org/zap"
)

const runID = "harness"

type Harness interface {
	// Run always returns a report. Load and build failures are reported as a
	// build error rather than returned.
	Run(ctx context.Context) verdict.Report
}

type harness struct {
	cfg       *config.HarnessConfig
	compiler  compiler.Compiler
	executors executor.Factory
	engine    judge.Engine
	logger    *zap.SugaredLogger
}

func New(cfg *config.HarnessConfig, c compiler.Compiler, executors executor.Factory, engine judge.Engine) Harness {
	return &harness{
		cfg:       cfg,
		compiler:  c,
		executors: executors,
		engine:    engine,
		logger:    logger.NewNamedLogger("harness"),
	}
}

func (h *harness) Run(ctx context.Context) verdict.Report {
	cases, err := corpus.LoadFile(h.cfg.TestsFile)
	if err != nil {
		h.logger.Errorf("Failed to load test cases from %s: %s", h.cfg.TestsFile, err)
		return h.engine.Judge(ctx, nil, nil, err)
	}

	sig, err := signature.Load(h.cfg.SignatureFile)
	if err != nil {
		h.logger.Errorf("Invalid signature %s: %s", h.cfg.SignatureFile, err)
		return h.engine.Judge(ctx, cases, nil, err)
	}

	exec, entry, err := h.build(ctx, sig)
	if exec != nil {
		defer func() {
			if err := exec.Close(); err != nil {
				h.logger.Errorf("Failed to close executor: %s", err)
			}
		}()
	}

	return h.engine.Judge(ctx, cases, entry, err)
}

func (h *harness) build(ctx context.Context, sig signature.Signature) (executor.Executor, entrypoint.EntryPoint, error) {
	if err := h.compiler.PrepareDriver(h.cfg.SourceDir, h.cfg.LanguageType, sig); err != nil {
		return nil, nil, err
	}

	exec, err := h.executors.NewExecutor(ctx, executor.SessionConfig{
		MessageID:       runID,
		WorkspaceDir:    h.cfg.SourceDir,
		LanguageType:    h.cfg.LanguageType,
		LanguageVersion: h.cfg.LanguageVersion,
	})
	if err != nil {
		return nil, nil, err
	}

	artifact, err := h.compiler.Build(ctx, exec, h.cfg.LanguageType, h.cfg.LanguageVersion, runID)
	if err != nil {
		return exec, nil, err
	}
	h.logger.Infof("Built solution in %s", h.cfg.SourceDir)

	return exec, entrypoint.NewProcess(sig, exec, artifact.Command, h.cfg.RunTimeLimit), nil
}
