package observer

import (
	"github.com/vango-dev/observer/internal/errors"
)

// warn reports a diagnostic. Hooks always see it; the logger only in DevMode.
// It never panics and never returns an error to the caller.
func warn(err *errors.Error) {
	currentHooks().Warned(err)
	if !DevMode {
		return
	}
	Logger().Warn(err.Message,
		"code", err.Code,
		"detail", err.Detail,
	)
}
