package packager

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/mini-maxit/judge-harness/internal/logger"
	"github.com/mini-maxit/judge-harness/pkg/constants"
	"github.com/mini-maxit/judge-harness/pkg/errors"
	"github.com/mini-maxit/judge-harness/pkg/languages"
	"github.com/mini-maxit/judge-harness/pkg/messages"
	"github.com/mini-maxit/judge-harness/utils"
	"go.uber.org/zap"
)

type Packager interface {
	PrepareWorkspace(
		task *messages.TaskQueueMessage,
		langType languages.LanguageType,
		msgID string,
	) (*Workspace, error)
}

type packager struct {
	root   string
	logger *zap.SugaredLogger
}

// Workspace is the per-submission directory handed to the executor.
type Workspace struct {
	DirPath          string
	SolutionPath     string
	TestCasesPath    string
	SignaturePath    string
	HasSignatureFile bool
}

// Cleanup removes the workspace directory.
func (w *Workspace) Cleanup() error {
	return utils.RemoveIO(w.DirPath, true, true)
}

func NewPackager(root string) Packager {
	logger := logger.NewNamedLogger("packager")
	return &packager{
		root:   root,
		logger: logger,
	}
}

func (p *packager) PrepareWorkspace(
	task *messages.TaskQueueMessage,
	langType languages.LanguageType,
	msgID string,
) (*Workspace, error) {
	if strings.TrimSpace(task.SourceCode) == "" {
		return nil, errors.ErrEmptySourceCode
	}

	solutionName, err := languages.GetSolutionFileNameWithExtension(constants.SolutionFileBaseName, langType)
	if err != nil {
		return nil, err
	}

	dirName := filepath.Base(msgID)
	if dirName == "." || dirName == ".." || dirName == string(filepath.Separator) {
		dirName = uuid.NewString()
	}
	basePath := filepath.Join(p.root, dirName)

	ws := &Workspace{
		DirPath:       basePath,
		SolutionPath:  filepath.Join(basePath, solutionName),
		TestCasesPath: filepath.Join(basePath, constants.TestCasesFileName),
		SignaturePath: filepath.Join(basePath, constants.SignatureFileName),
	}

	if err := os.MkdirAll(basePath, 0o755); err != nil {
		p.logger.Errorf("Failed to create workspace %s: %s [MsgID: %s]", basePath, err, msgID)
		return nil, err
	}

	files := map[string][]byte{
		ws.SolutionPath:  []byte(task.SourceCode),
		ws.TestCasesPath: task.TestCases,
	}
	if len(task.Signature) > 0 {
		files[ws.SignaturePath] = task.Signature
		ws.HasSignatureFile = true
	}

	for path, content := range files {
		if err := os.WriteFile(path, content, 0o644); err != nil {
			p.logger.Errorf("Failed to write %s: %s [MsgID: %s]", path, err, msgID)
			_ = ws.Cleanup()
			return nil, err
		}
	}

	p.logger.Infof("Prepared workspace at %s [MsgID: %s]", basePath, msgID)
	return ws, nil
}
