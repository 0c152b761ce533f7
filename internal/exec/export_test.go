package exec

import (
	"context"

	"github.com/PraverBajaj/doobie/internal/driver"
)

// Bridges for external tests (package exec_test): those tests live outside
// the package because testutil imports exec, which would otherwise form an
// import cycle with in-package tests.
var CreateStep = createStep

func (ex *Executor) BindStep(args []any) func(context.Context, driver.Stmt) error {
	return ex.bindStep(args)
}

func (ex *Executor) Stamp(info LogInfo) LogInfo {
	return ex.stamp(info)
}
