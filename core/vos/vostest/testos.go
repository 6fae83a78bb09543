// Package vostest provides a scripted VOS that records every process-level
// operation instead of performing it.
package vostest

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/josephlewis42/jobsh/core/vos"
)

// FirstPid is the pid handed to the first started process.
const FirstPid = 100

// ShellPgid is the process group FakeOS reports for the shell itself.
const ShellPgid = 1

// FakeOS implements vos.VOS deterministically. Programs exit with the status
// registered in Statuses (by argv[0]) or 0 otherwise.
type FakeOS struct {
	*vos.Stdio

	// Statuses maps program names to the status they "exit" with.
	Statuses map[string]vos.ProcStatus
	// Missing programs fail to start with vos.ErrNotFound.
	Missing map[string]bool
	// ForkErr, if set, is returned by every StartProcess call.
	ForkErr error
	// WaitErr, if set, is returned by every Wait call.
	WaitErr error

	mu      sync.Mutex
	calls   []string
	nextPid int
	procs   map[int]fakeProc
	cwd     string
}

type fakeProc struct {
	argv []string
	pgid int
}

var _ vos.VOS = (*FakeOS)(nil)

// NewFakeOS creates a FakeOS whose stdio is /dev/null.
func NewFakeOS(t *testing.T) *FakeOS {
	t.Helper()

	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { devNull.Close() })

	return &FakeOS{
		Stdio:    vos.NewStdio(devNull, devNull, devNull),
		Statuses: make(map[string]vos.ProcStatus),
		Missing:  make(map[string]bool),
		nextPid:  FirstPid,
		procs:    make(map[int]fakeProc),
		cwd:      "/",
	}
}

func (f *FakeOS) record(format string, args ...interface{}) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

// Calls returns the trace of operations in the order they happened.
func (f *FakeOS) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.calls...)
}

// Started returns the command lines of the started processes, in order.
func (f *FakeOS) Started() []string {
	var out []string
	for _, call := range f.Calls() {
		if strings.HasPrefix(call, "start ") {
			cmd := strings.TrimPrefix(call, "start ")
			out = append(out, cmd[:strings.LastIndex(cmd, " pgid=")])
		}
	}
	return out
}

// StartProcess implements vos.VProc.StartProcess.
func (f *FakeOS) StartProcess(argv []string, attr *vos.ProcAttr) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ForkErr != nil {
		return 0, f.ForkErr
	}
	if len(argv) == 0 || f.Missing[argv[0]] {
		return 0, fmt.Errorf("%q: %w", strings.Join(argv, " "), vos.ErrNotFound)
	}

	pid := f.nextPid
	f.nextPid++

	pgid := attr.Pgid
	if pgid == 0 {
		pgid = pid
	}
	f.procs[pid] = fakeProc{argv: argv, pgid: pgid}
	f.record("start %s pgid=%d", strings.Join(argv, " "), attr.Pgid)
	return pid, nil
}

// Setpgid implements vos.VProc.Setpgid.
func (f *FakeOS) Setpgid(pid, pgid int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.record("setpgid %d %d", pid, pgid)
	return nil
}

// Wait implements vos.VProc.Wait.
func (f *FakeOS) Wait(pid int) (vos.ProcStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	proc, ok := f.procs[pid]
	if !ok {
		return vos.ProcStatus{}, fmt.Errorf("wait %d: no such child", pid)
	}
	f.record("wait %s", strings.Join(proc.argv, " "))

	if f.WaitErr != nil {
		return vos.ProcStatus{}, f.WaitErr
	}
	delete(f.procs, pid)

	if status, ok := f.Statuses[proc.argv[0]]; ok {
		return status, nil
	}
	return vos.ExitedWith(0), nil
}

// ReapZombies implements vos.VProc.ReapZombies; every unwaited process is
// considered finished.
func (f *FakeOS) ReapZombies() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	reaped := len(f.procs)
	f.procs = make(map[int]fakeProc)
	return reaped
}

// Getpid implements vos.VProc.Getpid.
func (f *FakeOS) Getpid() int {
	return ShellPgid
}

// ClaimForeground implements vos.VTerm.ClaimForeground.
func (f *FakeOS) ClaimForeground(pgid int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.record("fg %d", pgid)
	return nil
}

// Chdir implements vos.VFS.Chdir.
func (f *FakeOS) Chdir(dir string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.record("chdir %s", dir)
	if strings.Contains(dir, "missing") {
		return &os.PathError{Op: "chdir", Path: dir, Err: os.ErrNotExist}
	}
	f.cwd = dir
	return nil
}

// Getwd implements vos.VFS.Getwd.
func (f *FakeOS) Getwd() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.cwd, nil
}
