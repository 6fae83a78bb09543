package jobctl

import (
	"errors"
	"fmt"
	"io"

	"github.com/josephlewis42/jobsh/core/cmdlist"
	"github.com/josephlewis42/jobsh/core/logger"
	"github.com/josephlewis42/jobsh/core/vos"
)

// Runner executes command lists.
type Runner struct {
	*Launcher

	// Detacher runs background segments. Without one, background segments
	// run in the foreground.
	Detacher Detacher
	// Foreground makes the runner hand the terminal to each pipeline it waits
	// for. Detached jobs have no terminal to claim.
	Foreground bool
	// Notice, if set, receives "[pid]" for every detached job.
	Notice io.Writer

	// Last is the status of the last command that finished.
	Last vos.ProcStatus
}

// Run executes list. Background segments are detached and the remainder runs
// in the foreground. The returned error means the shell can't continue.
func (r *Runner) Run(list *cmdlist.List) error {
	if list.Empty() {
		return nil
	}

	start := list.Head()
	for start != cmdlist.None {
		cut := findBackground(list, start)
		if cut == cmdlist.None || r.Detacher == nil {
			return r.RunSegment(list, start)
		}

		if err := r.detach(list, start, cut); err != nil {
			return err
		}
		start = list.Node(cut).Next
	}
	return nil
}

func (r *Runner) detach(list *cmdlist.List, start, cut cmdlist.NodeID) error {
	segment := list.Slice(start, cut)
	defer segment.Release()

	pid, err := r.Detacher.Detach(segment)
	switch {
	case errors.Is(err, vos.ErrFork):
		return err
	case err != nil:
		fmt.Fprintf(r.diag(), "%s: %v\n", segment, err)
		return nil
	}

	_ = r.OS.Setpgid(pid, 0)
	if r.Notice != nil {
		fmt.Fprintf(r.Notice, "[%d]\n", pid)
	}
	r.record(&logger.BackgroundJob{Commands: segment.String(), Pid: pid})
	return nil
}

// RunSegment runs the commands from start until the chain stops or the list
// ends. Piped commands are started without waiting; each pipeline shares the
// process group of its first process and only its last command is waited on.
func (r *Runner) RunSegment(list *cmdlist.List, start cmdlist.NodeID) error {
	group := 0
	for id := start; id != cmdlist.None; {
		r.claim(0)

		node := list.Node(id)
		pid, err := r.Launch(list, id, group)
		if err != nil {
			return err
		}
		if group == 0 {
			group = pid
		}

		if node.Control.Has(cmdlist.Piped) && node.Next != cmdlist.None {
			id = node.Next
			continue
		}

		if pid != 0 {
			if err := r.wait(node, group); err != nil {
				return err
			}
		}

		r.Last = node.Status
		group = 0
		id = NextAfter(list, id, r.diag())
	}
	return nil
}

func (r *Runner) wait(node *cmdlist.Node, group int) error {
	r.claim(group)
	status, err := r.OS.Wait(node.Pid)
	r.claim(0)
	if err != nil {
		return err
	}

	node.Status = status
	r.record(&logger.CommandExit{
		Command: node.Argv,
		Pid:     node.Pid,
		Status:  status.String(),
		Success: status.Success(),
	})
	return nil
}

// claim gives the terminal to pgid, 0 being the shell's own group. Failures
// leave the terminal where it was, which only affects signal delivery.
func (r *Runner) claim(pgid int) {
	if !r.Foreground {
		return
	}
	_ = r.OS.ClaimForeground(pgid)
}
