package jobctl

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/josephlewis42/jobsh/core/cmdlist"
	"github.com/josephlewis42/jobsh/core/logger"
	"github.com/josephlewis42/jobsh/core/vos"
)

// JobEnv carries an encoded segment to a re-executed shell.
const JobEnv = "JOBSH_JOB"

// Detacher starts a segment of a command list that the shell won't wait for.
type Detacher interface {
	Detach(segment *cmdlist.List) (pid int, err error)
}

// SelfExec detaches segments by starting another copy of the shell binary in
// a new process group with the segment in its environment. The copy runs
// RunDetachedJob.
type SelfExec struct {
	OS vos.VOS
	// Path of the shell binary, the running executable if empty.
	Path string
	// Env is the environment the job starts from, the shell's if nil.
	Env []string
}

var _ Detacher = (*SelfExec)(nil)

// Detach implements Detacher.
func (s *SelfExec) Detach(segment *cmdlist.List) (int, error) {
	encoded, err := json.Marshal(segment)
	if err != nil {
		return 0, err
	}

	path := s.Path
	if path == "" {
		if path, err = os.Executable(); err != nil {
			return 0, err
		}
	}

	base := s.Env
	if base == nil {
		base = os.Environ()
	}
	env := vos.NewMapEnvFromEnvList(base)
	env.Setenv(JobEnv, string(encoded))

	return s.OS.StartProcess([]string{path}, &vos.ProcAttr{
		Files: []*os.File{s.OS.Stdin(), s.OS.Stdout(), s.OS.Stderr()},
		Env:   env.Environ(),
	})
}

// RunDetachedJob runs an encoded segment to completion without touching the
// terminal and returns the exit code for the job process: 0, or 1 if the job
// couldn't be decoded or a process couldn't be started or waited for.
func RunDetachedJob(encoded string, osys vos.VOS, diag io.Writer, events logger.Recorder) int {
	var segment cmdlist.List
	if err := json.Unmarshal([]byte(encoded), &segment); err != nil {
		fmt.Fprintf(diag, "jobsh: invalid job: %v\n", err)
		return 1
	}
	defer segment.Release()

	runner := &Runner{
		Launcher: &Launcher{OS: osys, Diag: diag, Events: events},
	}
	if err := runner.RunSegment(&segment, segment.Head()); err != nil {
		fmt.Fprintf(diag, "jobsh: %v\n", err)
		return 1
	}
	return 0
}
