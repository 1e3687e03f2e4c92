package shell

import (
	"context"
	"os"
	"time"

	"github.com/Cyclone1070/kiro/internal/tool/service/executor"
)

type envFileReader interface {
	ReadFile(path string) ([]byte, error)
}

type dirChecker interface {
	Stat(path string) (os.FileInfo, error)
}

type fileSystem interface {
	envFileReader
	dirChecker
}

type pathResolver interface {
	Abs(path string) (string, error)
	RelOf(abs string) string
}

type commandExecutor interface {
	Run(ctx context.Context, command []string, dir string, env []string, timeout time.Duration) (*executor.Result, error)
}
