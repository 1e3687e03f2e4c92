package search

import (
	"context"
	"os"
	"time"

	"github.com/Cyclone1070/kiro/internal/tool/service/executor"
)

// pathResolver confines model-supplied paths to the workspace.
type pathResolver interface {
	Abs(path string) (string, error)
	RelOf(abs string) string
}

type dirChecker interface {
	Stat(path string) (os.FileInfo, error)
}

// commandExecutor runs rg.
type commandExecutor interface {
	Run(ctx context.Context, command []string, dir string, env []string, timeout time.Duration) (*executor.Result, error)
}
