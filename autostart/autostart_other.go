//go:build !windows && !linux

package autostart

type unsupported struct{}

// New returns a manager that always reports ErrUnsupported
func New() (Manager, error) {
	return unsupported{}, nil
}

func (unsupported) Enabled() (bool, error) { return false, nil }
func (unsupported) Set(bool) error         { return ErrUnsupported }
