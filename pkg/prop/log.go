package prop

import (
	"log/slog"
	"sync/atomic"
)

var pkgLogger atomic.Pointer[slog.Logger]

// SetLogger sets the logger used by the package. A nil logger restores the
// default, slog.Default() tagged with component=prop.
func SetLogger(l *slog.Logger) {
	pkgLogger.Store(l)
}

func logger() *slog.Logger {
	if l := pkgLogger.Load(); l != nil {
		return l
	}
	return slog.Default().With("component", "prop")
}
