package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mini-maxit/judge-harness/internal/logger"
	"github.com/mini-maxit/judge-harness/pkg/constants"
	"github.com/mini-maxit/judge-harness/pkg/languages"
)

// HarnessConfig configures a single in-container judge run.
type HarnessConfig struct {
	LanguageType    languages.LanguageType
	LanguageVersion string
	SourceDir       string
	TestsFile       string
	SignatureFile   string
	ExecutionMode   string
	RunTimeLimit    time.Duration
	CppCompileFlags []string
}

// NewHarnessConfig reads the run settings from the environment. Unlike the
// worker it never exits: the harness must still report a malformed setup.
func NewHarnessConfig() (*HarnessConfig, error) {
	logger := logger.NewNamedLogger("config")
	if err := readDotEnv(logger); err != nil {
		return nil, err
	}

	langType, err := languages.ParseLanguageType(getEnvString(logger, "LANGUAGE", constants.DefaultLanguageType))
	if err != nil {
		return nil, err
	}
	langVersion := os.Getenv("LANGUAGE_VERSION")
	if langVersion == "" {
		langVersion = languages.DefaultVersion(langType)
		logger.Warnf("LANGUAGE_VERSION is not set, using default value %s", langVersion)
	}
	if _, err := languages.GetVersionFlag(langType, langVersion); err != nil {
		return nil, fmt.Errorf("%w: LANGUAGE_VERSION %q for %s", err, langVersion, langType)
	}

	mode, err := parseExecutionMode(logger, constants.ExecutionModeHost)
	if err != nil {
		return nil, err
	}
	runTimeLimitMs, err := parseEnvInt(logger, "RUN_TIME_LIMIT_MS", constants.DefaultRunTimeLimitMs)
	if err != nil {
		return nil, err
	}
	flags, err := parseCompileFlags(logger)
	if err != nil {
		return nil, err
	}

	sourceDir := getEnvString(logger, "SOURCE_DIR", constants.DefaultHarnessSourceDir)

	return &HarnessConfig{
		LanguageType:    langType,
		LanguageVersion: langVersion,
		SourceDir:       sourceDir,
		TestsFile:       getEnvString(logger, "TESTS_FILE", constants.DefaultHarnessTestsFile),
		SignatureFile:   getEnvString(logger, "SIGNATURE_FILE", filepath.Join(sourceDir, constants.SignatureFileName)),
		ExecutionMode:   mode,
		RunTimeLimit:    time.Duration(runTimeLimitMs) * time.Millisecond,
		CppCompileFlags: flags,
	}, nil
}
