package reactor

import (
	stderrors "errors"

	"github.com/vango-dev/prop/internal/errors"
)

// ErrNotRunning is returned when posting to, syncing with or stopping a
// reactor that is not running.
var ErrNotRunning = stderrors.New("reactor: not running")

// ErrAlreadyRunning is returned when starting or reconfiguring a reactor
// that has not been stopped.
var ErrAlreadyRunning = stderrors.New("reactor: already running")

func notRunning(name string) error {
	return errors.New("E050").
		WithDetailf("reactor %q", name).
		Wrap(ErrNotRunning)
}

func alreadyRunning(name string) error {
	return errors.New("E051").
		WithDetailf("reactor %q", name).
		Wrap(ErrAlreadyRunning)
}
