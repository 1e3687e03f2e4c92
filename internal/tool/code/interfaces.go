package code

import (
	"context"
	"time"

	"github.com/Cyclone1070/kiro/internal/tool/service/executor"
)

type commandExecutor interface {
	Run(ctx context.Context, command []string, dir string, env []string, timeout time.Duration) (*executor.Result, error)
}
