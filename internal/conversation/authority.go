package conversation

import (
	"errors"
	"fmt"
)

type authorityStatus int

const (
	authorityFree authorityStatus = iota
	authorityHeld
	authorityRevoked
)

// Authority is the single-owner token for the audio output device. At
// most one interaction holds it; Revoke makes it unacquirable until the
// coordinator calls Reset. Not self-locking: all mutation happens under
// the coordinator mutex.
type Authority struct {
	status authorityStatus
	holder uint64
}

// Acquire claims the output device for an interaction.
func (a *Authority) Acquire(id uint64) error {
	switch a.status {
	case authorityFree:
		a.status = authorityHeld
		a.holder = id
		return nil
	case authorityHeld:
		return fmt.Errorf("audio authority already held by interaction %d", a.holder)
	default:
		return errors.New("audio authority is revoked, awaiting reset")
	}
}

// Release returns the token if id still holds it. A stale release
// (after a revoke advanced the session) is a no-op.
func (a *Authority) Release(id uint64) {
	if a.status == authorityHeld && a.holder == id {
		a.status = authorityFree
		a.holder = 0
	}
}

// Revoke unconditionally strips ownership. The token stays unacquirable
// until Reset.
func (a *Authority) Revoke() {
	a.status = authorityRevoked
	a.holder = 0
}

// Reset makes a revoked token acquirable again. Resetting a held token
// would silently break the single-owner discipline, so it fails instead.
func (a *Authority) Reset() error {
	if a.status == authorityHeld {
		return fmt.Errorf("cannot reset audio authority while held by interaction %d", a.holder)
	}
	a.status = authorityFree
	a.holder = 0
	return nil
}

// Holder reports the owning interaction, if any.
func (a *Authority) Holder() (uint64, bool) {
	if a.status == authorityHeld {
		return a.holder, true
	}
	return 0, false
}

func (a *Authority) Status() string {
	switch a.status {
	case authorityHeld:
		return "held"
	case authorityRevoked:
		return "revoked"
	default:
		return "free"
	}
}
