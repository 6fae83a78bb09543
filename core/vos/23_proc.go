package vos

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// ErrNotFound is the error resulting if a path search failed to find an executable file.
var ErrNotFound = exec.ErrNotFound

// ErrFork is returned when the system could not create another process.
var ErrFork = errors.New("could not fork")

// LookPath searches for an executable named file in the directories named by
// the PATH environment variable. If file contains a slash, it is tried directly
// and the PATH is not consulted. Unlike exec.LookPath, results relative to the
// current directory are allowed, as they are in any other shell.
func LookPath(file string) (string, error) {
	path, err := exec.LookPath(file)
	if errors.Is(err, exec.ErrDot) {
		return path, nil
	}
	return path, err
}

// ProcAttr holds the attributes that will be applied to a new process.
type ProcAttr struct {
	// Files become the child's descriptors 0, 1 and 2.
	Files []*os.File

	// Pgid is the process group the child joins before exec, 0 starts a new
	// group led by the child.
	Pgid int

	// Env is the child's environment, nil inherits the shell's.
	Env []string
}

// ProcStatus is the outcome of a process as reported by wait.
type ProcStatus struct {
	// Exited is set if the process terminated normally.
	Exited bool
	// Code is the exit code, valid if Exited.
	Code int
	// Signal terminated the process, valid if not Exited.
	Signal syscall.Signal
}

// ExitedWith creates the status of a normal exit with code.
func ExitedWith(code int) ProcStatus {
	return ProcStatus{Exited: true, Code: code}
}

// KilledBy creates the status of a process terminated by sig.
func KilledBy(sig syscall.Signal) ProcStatus {
	return ProcStatus{Signal: sig}
}

// FromWaitStatus converts a raw wait status.
func FromWaitStatus(ws unix.WaitStatus) ProcStatus {
	switch {
	case ws.Exited():
		return ExitedWith(ws.ExitStatus())
	case ws.Signaled():
		return KilledBy(syscall.Signal(ws.Signal()))
	default:
		return ProcStatus{}
	}
}

// Success is true for a normal exit with code 0.
func (s ProcStatus) Success() bool {
	return s.Exited && s.Code == 0
}

func (s ProcStatus) String() string {
	switch {
	case s.Exited:
		return fmt.Sprintf("exit status %d", s.Code)
	case s.Signal != 0:
		return fmt.Sprintf("signal: %v", s.Signal)
	default:
		return "terminated abnormally"
	}
}
