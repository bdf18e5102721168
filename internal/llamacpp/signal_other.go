//go:build !unix

package llamacpp

import (
	"errors"
	"os"
)

var errProcessDone = os.ErrProcessDone

// No SIGTERM outside unix; kill straight away.
func terminate(p *os.Process) error {
	if err := p.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}
