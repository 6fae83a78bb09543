// Package jobctl runs command lists: it starts processes with their pipes and
// redirections wired up, decides which command runs next, and keeps the
// terminal's foreground group pointed at whatever the shell is waiting on.
package jobctl

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"

	"github.com/josephlewis42/jobsh/core/cmdlist"
	"github.com/josephlewis42/jobsh/core/logger"
	"github.com/josephlewis42/jobsh/core/vos"
)

// failureStatus is assigned to commands that never got a process.
var failureStatus = vos.ExitedWith(1)

// Launcher starts single commands.
type Launcher struct {
	OS vos.VOS
	// Diag receives diagnostics, the OS's stderr if nil.
	Diag io.Writer
	// Events receives an event per started, failed or builtin command.
	Events logger.Recorder
	// Env is the children's environment, nil inherits the shell's.
	Env []string
}

func (l *Launcher) diag() io.Writer {
	if l.Diag != nil {
		return l.Diag
	}
	return l.OS.Stderr()
}

func (l *Launcher) record(event logger.LogType) {
	if l.Events == nil {
		return
	}
	if err := l.Events.Record(event); err != nil {
		log.Printf("event log: %v", err)
	}
}

// Launch starts the command id in process group pgid, 0 for a new group, and
// returns its pid.
//
// A pid of 0 means no process was created because the command was a builtin
// or failed to start; the node's Status already holds its outcome. An error
// is returned only when the shell can't continue.
func (l *Launcher) Launch(list *cmdlist.List, id cmdlist.NodeID, pgid int) (int, error) {
	node := list.Node(id)

	if err := connectPipe(list, id); err != nil {
		return 0, err
	}
	// The child owns its copies of the pipe ends from here on.
	defer node.ClosePipes()

	if node.IsChdir() {
		l.chdir(node)
		return 0, nil
	}

	files, opened, err := l.stdio(node)
	if err != nil {
		node.Status = failureStatus
		return 0, nil
	}
	defer closeAll(opened)

	pid, err := l.OS.StartProcess(node.Argv, &vos.ProcAttr{
		Files: files,
		Pgid:  pgid,
		Env:   l.Env,
	})
	switch {
	case errors.Is(err, vos.ErrFork):
		return 0, err
	case err != nil:
		l.execFailed(node, err)
		node.Status = failureStatus
		return 0, nil
	}

	// The child already joined the group before exec; repeating it here means
	// the group exists by the time the caller claims the terminal for it. The
	// child may have exec'd already, making this fail harmlessly.
	_ = l.OS.Setpgid(pid, pgid)

	node.Pid = pid
	l.record(&logger.RunCommand{
		Command: node.Argv,
		Pid:     pid,
		Pgid:    pgid,
		Piped:   node.PipeOut != nil,
	})
	return pid, nil
}

// connectPipe creates the pipe from id to the following node if id is piped.
func connectPipe(list *cmdlist.List, id cmdlist.NodeID) error {
	node := list.Node(id)
	if !node.Control.Has(cmdlist.Piped) || node.Next == cmdlist.None {
		return nil
	}

	r, w, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("pipe: %w", err)
	}
	node.PipeOut = w
	list.Node(node.Next).PipeIn = r
	return nil
}

// stdio returns the child's descriptors 0, 1 and 2. Pipes are applied first
// and redirections override them. The files in opened must be closed once
// the child has started.
func (l *Launcher) stdio(node *cmdlist.Node) (files, opened []*os.File, err error) {
	files = []*os.File{l.OS.Stdin(), l.OS.Stdout(), l.OS.Stderr()}
	if node.PipeIn != nil {
		files[0] = node.PipeIn
	}
	if node.PipeOut != nil {
		files[1] = node.PipeOut
	}

	for _, kind := range cmdlist.ApplyOrder {
		if !node.Redir.Has(kind) {
			continue
		}

		path := node.Redir.Path(kind)
		f, err := os.OpenFile(path, kind.OpenFlags(), 0666)
		if err != nil {
			closeAll(opened)
			fmt.Fprintf(l.diag(), "%s: %v\n", path, reason(err))
			l.record(&logger.RedirectFailure{
				Command: node.Argv,
				Path:    path,
				Error:   reason(err).Error(),
			})
			return nil, nil, err
		}
		opened = append(opened, f)
		files[kind.Fd()] = f
	}
	return files, opened, nil
}

func (l *Launcher) execFailed(node *cmdlist.Node, err error) {
	var msg string
	if errors.Is(err, vos.ErrNotFound) {
		msg = fmt.Sprintf("%s: command not found", node.Name())
	} else {
		msg = fmt.Sprintf("%s: %v", node.Name(), reason(err))
	}

	fmt.Fprintln(l.diag(), msg)
	l.record(&logger.ExecFailure{Command: node.Argv, Error: msg})
}

// chdir runs the change-directory builtin. It only acts when given exactly
// one argument, and always succeeds.
func (l *Launcher) chdir(node *cmdlist.Node) {
	event := &logger.Builtin{Command: node.Argv}
	if len(node.Argv) == 2 {
		if err := l.OS.Chdir(node.Argv[1]); err != nil {
			event.Error = err.Error()
		}
	}

	node.Status = vos.ExitedWith(0)
	l.record(event)
}

// reason strips the operation and path from err.
func reason(err error) error {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Err
	}
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		return execErr.Err
	}
	return err
}

func closeAll(files []*os.File) {
	for _, f := range files {
		f.Close()
	}
}
