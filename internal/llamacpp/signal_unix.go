//go:build unix

package llamacpp

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

var errProcessDone = os.ErrProcessDone

func terminate(p *os.Process) error {
	err := unix.Kill(p.Pid, unix.SIGTERM)
	if errors.Is(err, unix.ESRCH) {
		return nil
	}
	return err
}
