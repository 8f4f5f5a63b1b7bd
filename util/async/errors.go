package async

import "github.com/curtisnewbie/cpubridge/util/errs"

const (
	ErrCodeChannelClosed         = "CHANNEL_CLOSED"
	ErrCodeAlreadyResolved       = "ALREADY_RESOLVED"
	ErrCodePoolStopped           = "POOL_STOPPED"
	ErrCodeGlobalPoolInitialized = "GLOBAL_POOL_INITIALIZED"
	ErrCodeBridgeBroken          = "BRIDGE_BROKEN"
	ErrCodeGoexit                = "GOEXIT"
)

var (
	// The sender was released without sending an Outcome, e.g., the pool was shut down
	// before the task could run.
	ErrChannelClosed = errs.NewErrfCode(ErrCodeChannelClosed, "completion channel closed before an outcome was sent")

	// The outcome has already been taken, or the handle was dropped.
	ErrAlreadyResolved = errs.NewErrfCode(ErrCodeAlreadyResolved, "task handle already resolved")

	ErrPoolStopped = errs.NewErrfCode(ErrCodePoolStopped, "worker pool is stopped")

	ErrGlobalPoolInitialized = errs.NewErrfCode(ErrCodeGlobalPoolInitialized, "global worker pool has already been initialized")

	// Raised by the panic-propagating contract when the channel is closed without an outcome.
	ErrBridgeBroken = errs.NewErrfCode(ErrCodeBridgeBroken, "task handle observed a closed channel, the task never produced an outcome")

	// Payload of an aborted Outcome when the task called runtime.Goexit.
	ErrGoexit = errs.NewErrfCode(ErrCodeGoexit, "task called runtime.Goexit")
)
