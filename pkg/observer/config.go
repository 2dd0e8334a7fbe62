package observer

import (
	"log/slog"
	"sync"
)

// =============================================================================
// Development Mode
// =============================================================================

// DevMode enables developer-facing warnings.
// When true:
//   - Set/Del on invalid targets log a warning
//   - Adding or deleting root-level reactive keys logs a warning
//   - Custom setters passed to DefineReactive are invoked on writes
//
// When false (production):
//   - Refusals are silent, the defined fallback still applies
//   - Custom setters are skipped
//
// Set this at application startup:
//
//	func main() {
//	    observer.DevMode = os.Getenv("OBSERVER_DEV") == "1"
//	    // ...
//	}
var DevMode = false

// HasProto selects the array interception strategy. When true, an observed
// array's method chain points at the shared interceptor table. When false,
// the interceptors are copied onto each array instance. Both behave the same.
var HasProto = true

// ServerRendering reports whether the process is in an execution context
// where observation must be skipped. Nil means never.
var ServerRendering func() bool

func isServerRendering() bool {
	return ServerRendering != nil && ServerRendering()
}

// DebugConfig controls diagnostics that are off by default.
type DebugConfig struct {
	// ReportReadOnlyWrites warns when a write hits a property that has a
	// getter but no setter. The write is dropped either way.
	// Default: false.
	ReportReadOnlyWrites bool
}

// DefaultDebugConfig returns a DebugConfig with all diagnostics disabled.
func DefaultDebugConfig() DebugConfig {
	return DebugConfig{
		ReportReadOnlyWrites: false,
	}
}

// Debug is the global debug configuration.
var Debug = DefaultDebugConfig()

// =============================================================================
// Logging
// =============================================================================

var (
	loggerMu sync.RWMutex
	logger   *slog.Logger
)

// SetLogger sets the logger used for warnings. Nil restores slog.Default().
func SetLogger(l *slog.Logger) {
	loggerMu.Lock()
	logger = l
	loggerMu.Unlock()
}

// Logger returns the logger used for warnings.
func Logger() *slog.Logger {
	loggerMu.RLock()
	l := logger
	loggerMu.RUnlock()
	if l == nil {
		return slog.Default()
	}
	return l
}

// =============================================================================
// Instrumentation
// =============================================================================

// Hooks receives instrumentation callbacks from the core.
// Implementations must not read or write reactive values.
type Hooks interface {
	// ObserverCreated is called after a new Observer instruments a value.
	ObserverCreated(ob *Observer)

	// Notified is called when a Dep begins notifying its subscribers.
	Notified(d *Dep, subscribers int)

	// NotifyDone is called after every subscriber of d was updated.
	// Calls nest when an update triggers further notifications.
	NotifyDone(d *Dep)

	// Warned is called for every reported warning, in any mode.
	Warned(err error)
}

// NopHooks is a Hooks implementation that does nothing.
// Embed it to implement only some callbacks.
type NopHooks struct{}

func (NopHooks) ObserverCreated(*Observer) {}
func (NopHooks) Notified(*Dep, int)        {}
func (NopHooks) NotifyDone(*Dep)           {}
func (NopHooks) Warned(error)              {}

var (
	hooksMu sync.RWMutex
	hooks   Hooks = NopHooks{}
)

// SetHooks installs h as the instrumentation sink. Nil disables it.
func SetHooks(h Hooks) {
	if h == nil {
		h = NopHooks{}
	}
	hooksMu.Lock()
	hooks = h
	hooksMu.Unlock()
}

func currentHooks() Hooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return hooks
}

type multiHooks []Hooks

// MultiHooks fans every callback out to each of hs in order.
func MultiHooks(hs ...Hooks) Hooks {
	out := make(multiHooks, 0, len(hs))
	for _, h := range hs {
		if h != nil {
			out = append(out, h)
		}
	}
	return out
}

func (m multiHooks) ObserverCreated(ob *Observer) {
	for _, h := range m {
		h.ObserverCreated(ob)
	}
}

func (m multiHooks) Notified(d *Dep, subscribers int) {
	for _, h := range m {
		h.Notified(d, subscribers)
	}
}

func (m multiHooks) NotifyDone(d *Dep) {
	for i := len(m) - 1; i >= 0; i-- {
		m[i].NotifyDone(d)
	}
}

func (m multiHooks) Warned(err error) {
	for _, h := range m {
		h.Warned(err)
	}
}
