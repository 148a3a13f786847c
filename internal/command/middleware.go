package command

import (
	"time"

	"cbhands/internal/logger"
)

// LoggingMiddleware logs every invocation and its outcome.
func LoggingMiddleware() (BeforeFunc, AfterFunc) {
	before := func(ctx *Context, def *Definition, opts Options) *Result {
		logger.WithFields(logger.Fields{
			"command": def.Path(),
			"plugin":  ctx.Plugin,
		}).Debug("Executing command")
		return nil
	}
	after := func(ctx *Context, def *Definition, opts Options, result *Result) *Result {
		entry := logger.WithFields(logger.Fields{
			"command": def.Path(),
			"success": result.Success,
		})
		if result.Success {
			entry.Debug("Command completed")
		} else {
			entry.WithField("message", result.Message).Debug("Command failed")
		}
		return nil
	}
	return before, after
}

// TimingMiddleware attaches execution duration to the result payload.
func TimingMiddleware() (BeforeFunc, AfterFunc) {
	starts := make(map[string]time.Time)

	before := func(ctx *Context, def *Definition, opts Options) *Result {
		starts[ctx.InvocationID] = time.Now()
		return nil
	}
	after := func(ctx *Context, def *Definition, opts Options, result *Result) *Result {
		start, ok := starts[ctx.InvocationID]
		if !ok {
			return nil
		}
		delete(starts, ctx.InvocationID)

		if result.Data == nil {
			result.Data = map[string]interface{}{}
		}
		result.Data["execution_time"] = time.Since(start).String()
		return result
	}
	return before, after
}
