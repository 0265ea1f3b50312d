package mon
// misc utilities

import (
	"context"
	"fmt"

	"github.com/taodd/ceph-ci/internal/log"
	"github.com/taodd/ceph-ci/internal/task"
)

// running is syntactic sugar to push new task to operational stack, log it and
// adjust error return with task prefix.
//
// use like this:
//
//	defer running(&ctx, "my task")(&err)
func running(ctxp *context.Context, name string) func(*error) {
	return _running(ctxp, name)
}

// runningf is running cousin with formatting support
func runningf(ctxp *context.Context, format string, argv ...interface{}) func(*error) {
	return _running(ctxp, fmt.Sprintf(format, argv...))
}

func _running(ctxp *context.Context, name string) func(*error) {
	ctx := task.Running(*ctxp, name)
	*ctxp = ctx
	log.Depth(2).Info(ctx, "start")

	return func(errp *error) {
		if *errp != nil {
			log.Depth(1).Error(ctx, *errp)
		} else {
			log.Depth(1).Info(ctx, "ok")
		}

		// NOTE not *ctxp here - as context pointed by ctxp could be
		// changed when this deferred function is run
		task.ErrContext(errp, ctx)
	}
}
