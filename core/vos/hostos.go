package vos

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// HostOS is the VOS backed by the real kernel.
type HostOS struct {
	*Stdio
}

var _ VOS = (*HostOS)(nil)

// NewHostOS creates a HostOS whose children inherit the given streams.
func NewHostOS(stdio *Stdio) *HostOS {
	if stdio == nil {
		stdio = NewStdio(nil, nil, nil)
	}
	return &HostOS{Stdio: stdio}
}

// StartProcess implements VProc.StartProcess.
//
// The child joins attr.Pgid between fork and exec, so the group exists before
// anything in the child can depend on it.
func (h *HostOS) StartProcess(argv []string, attr *ProcAttr) (int, error) {
	if len(argv) == 0 {
		return 0, &os.PathError{Op: "exec", Path: "", Err: ErrNotFound}
	}

	path, err := LookPath(argv[0])
	if err != nil {
		return 0, err
	}

	files := make([]uintptr, len(attr.Files))
	for i, f := range attr.Files {
		files[i] = f.Fd()
	}

	env := attr.Env
	if env == nil {
		env = os.Environ()
	}

	pid, err := syscall.ForkExec(path, argv, &syscall.ProcAttr{
		Env:   env,
		Files: files,
		Sys: &syscall.SysProcAttr{
			Setpgid: true,
			Pgid:    attr.Pgid,
		},
	})
	if err != nil {
		return 0, startError(argv[0], err)
	}
	return pid, nil
}

// startError separates resource exhaustion, which prevented the fork itself,
// from failures of the exec in the child.
func startError(name string, err error) error {
	if errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.ENOMEM) {
		return fmt.Errorf("%w: %v", ErrFork, err)
	}
	return &os.PathError{Op: "exec", Path: name, Err: err}
}

// Setpgid implements VProc.Setpgid.
func (h *HostOS) Setpgid(pid, pgid int) error {
	return unix.Setpgid(pid, pgid)
}

// Wait implements VProc.Wait.
func (h *HostOS) Wait(pid int) (ProcStatus, error) {
	for {
		var ws unix.WaitStatus
		_, err := unix.Wait4(pid, &ws, 0, nil)
		switch {
		case err == unix.EINTR:
			continue
		case err != nil:
			return ProcStatus{}, fmt.Errorf("wait %d: %w", pid, err)
		default:
			return FromWaitStatus(ws), nil
		}
	}
}

// ReapZombies implements VProc.ReapZombies.
func (h *HostOS) ReapZombies() int {
	reaped := 0
	for {
		var ws unix.WaitStatus
		pid, err := unix.Wait4(-1, &ws, unix.WNOHANG, nil)
		if err != nil || pid <= 0 {
			return reaped
		}
		reaped++
	}
}

// Getpid implements VProc.Getpid.
func (h *HostOS) Getpid() int {
	return os.Getpid()
}

// ClaimForeground implements VTerm.ClaimForeground. It does nothing when
// stdin isn't a terminal.
func (h *HostOS) ClaimForeground(pgid int) error {
	fd := int(h.Stdin().Fd())
	if !term.IsTerminal(fd) {
		return nil
	}

	if pgid == 0 {
		pgid = unix.Getpgrp()
	}
	return unix.IoctlSetPointerInt(fd, unix.TIOCSPGRP, pgid)
}

// Chdir implements VFS.Chdir.
func (h *HostOS) Chdir(dir string) error {
	return os.Chdir(dir)
}

// Getwd implements VFS.Getwd.
func (h *HostOS) Getwd() (string, error) {
	return os.Getwd()
}
