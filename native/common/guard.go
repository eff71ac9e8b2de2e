package common

import "errors"

// ErrSystemPaused is returned by mutating entry points while the system-wide
// pause flag is set.
var ErrSystemPaused = errors.New("system paused")

// PauseView exposes the shared pause flag to the native modules.
type PauseView interface {
	IsPaused() bool
}

// Guard rejects the call when the pause flag is set. A nil view never pauses.
func Guard(p PauseView) error {
	if p == nil {
		return nil
	}
	if p.IsPaused() {
		return ErrSystemPaused
	}
	return nil
}
