// Package core ties the shell together: it reads lines, hands them to the
// job-control runner, and sweeps up finished background processes.
package core

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/fatih/color"
	"github.com/josephlewis42/jobsh/core/cmdlist"
	"github.com/josephlewis42/jobsh/core/config"
	"github.com/josephlewis42/jobsh/core/jobctl"
	"github.com/josephlewis42/jobsh/core/logger"
	"github.com/josephlewis42/jobsh/core/vos"
)

// Shell is one running shell instance.
type Shell struct {
	OS     vos.VOS
	Runner *jobctl.Runner
	Events logger.Recorder

	// PromptTemplate is expanded with ExpandPrompt before each line.
	PromptTemplate string
	PromptInfo     PromptInfo
	// Quiet suppresses the prompt.
	Quiet bool

	promptColor *color.Color
	interrupted atomic.Bool
}

// NewShell creates a shell that runs commands on osys.
func NewShell(osys vos.VOS, cfg *config.Configuration, events logger.Recorder) *Shell {
	if events == nil {
		events = logger.NopRecorder{}
	}

	runner := &jobctl.Runner{
		Launcher:   &jobctl.Launcher{OS: osys, Events: events},
		Detacher:   &jobctl.SelfExec{OS: osys},
		Foreground: true,
	}
	if cfg.BackgroundNotice {
		runner.Notice = osys.Stderr()
	}

	promptColor := color.New(color.FgGreen, color.Bold)
	switch cfg.Color {
	case config.ColorAlways:
		promptColor.EnableColor()
	case config.ColorNever:
		promptColor.DisableColor()
	}

	return &Shell{
		OS:             osys,
		Runner:         runner,
		Events:         events,
		PromptTemplate: cfg.Prompt,
		PromptInfo:     CurrentPromptInfo(),
		promptColor:    promptColor,
	}
}

// Prompt returns the expanded prompt, "" if the shell is quiet.
func (s *Shell) Prompt() string {
	if s.Quiet {
		return ""
	}

	wd, _ := s.OS.Getwd()
	return s.promptColor.Sprint(ExpandPrompt(s.PromptTemplate, s.PromptInfo, wd, s.OS.Getpid()))
}

// Interrupt marks that the user asked to abandon the current line. The flag
// is checked once per line.
func (s *Shell) Interrupt() {
	s.interrupted.Store(true)
}

// HandleSignals keeps the shell alive through interrupts meant for its
// children and lets it take the terminal back from them. The returned
// function stops handling.
func (s *Shell) HandleSignals() (stop func()) {
	// Taking the terminal back from a child group raises SIGTTOU.
	signal.Ignore(syscall.SIGTTOU)
	_ = s.OS.ClaimForeground(0)

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-interrupts:
				s.Interrupt()
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(interrupts)
		close(done)
	}
}

// Run reads and evaluates lines until the input ends. The returned error
// means the shell can't continue.
func (s *Shell) Run(in LineReader) error {
	for {
		line, err := in.ReadLine(s.Prompt())
		switch {
		case errors.Is(err, io.EOF) && s.interrupted.Load():
			// Ctrl-C in the line editor.
			line, err = "", nil
		case errors.Is(err, io.EOF):
			if line == "" {
				return nil
			}
		case err != nil:
			return err
		}

		if evalErr := s.EvalLine(line); evalErr != nil {
			return evalErr
		}
		s.OS.ReapZombies()

		if s.interrupted.Swap(false) {
			s.record(&logger.Interrupt{Line: line})
			fmt.Fprintln(s.OS.Stdout())
		}

		if err != nil {
			return nil
		}
	}
}

// EvalLine parses and runs a single line. The returned error means the shell
// can't continue; everything else is reported on stderr.
func (s *Shell) EvalLine(line string) error {
	list, err := cmdlist.Parse(line, s.OS.Stderr())
	if err != nil {
		fmt.Fprintf(s.OS.Stderr(), "jobsh: %v\n", err)
		s.record(&logger.ParseAnomaly{Line: line, Error: err.Error()})
		return nil
	}
	defer list.Release()

	for _, warning := range list.Warnings {
		s.record(&logger.ParseAnomaly{Line: line, Error: warning.Error()})
	}

	return s.Runner.Run(list)
}

// LastStatus is the status of the last command that finished.
func (s *Shell) LastStatus() vos.ProcStatus {
	return s.Runner.Last
}

func (s *Shell) record(event logger.LogType) {
	if err := s.Events.Record(event); err != nil {
		log.Printf("event log: %v", err)
	}
}

// ExitCode converts a status to a process exit code, following the shell
// convention of 128 plus the signal number for killed processes.
func ExitCode(status vos.ProcStatus) int {
	switch {
	case status.Exited:
		return status.Code
	case status.Signal != 0:
		return 128 + int(status.Signal)
	default:
		return 0
	}
}
