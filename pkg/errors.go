package pkg

import (
	"os"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/process"
)

var (
	// ErrNoSuchProcess means the process exited between enumeration and the read.
	ErrNoSuchProcess = errors.New("no such process")
	// ErrAccessDenied means the caller lacks the privilege to read an attribute.
	ErrAccessDenied = errors.New("access denied")
)

// IsGone reports whether err says the process has vanished.
func IsGone(err error) bool {
	return errors.Is(err, ErrNoSuchProcess)
}

// IsDenied reports whether err says the read was refused.
func IsDenied(err error) bool {
	return errors.Is(err, ErrAccessDenied)
}

// classifyErr maps an error coming out of gopsutil onto one of the two
// sentinels. Permission errors and anything unrecognized count as denied:
// the field is lost but the process is still there as far as we know.
func classifyErr(pid int32, field string, err error) error {
	if err == nil {
		return nil
	}
	if IsGone(err) || IsDenied(err) {
		return err
	}
	if errors.Is(err, process.ErrorProcessNotRunning) || errors.Is(err, os.ErrNotExist) {
		return errors.Wrapf(ErrNoSuchProcess, "pid %d %s: %v", pid, field, err)
	}
	return errors.Wrapf(ErrAccessDenied, "pid %d %s: %v", pid, field, err)
}
