package vos

import "os"

// NewStdio creates a VIO from the given files, substituting the process's
// own streams for any that are nil.
func NewStdio(stdin, stdout, stderr *os.File) *Stdio {
	if stdin == nil {
		stdin = os.Stdin
	}
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	return &Stdio{
		IStdin:  stdin,
		IStdout: stdout,
		IStderr: stderr,
	}
}

// Stdio is a VIO backed by real files.
type Stdio struct {
	IStdin  *os.File
	IStdout *os.File
	IStderr *os.File
}

var _ VIO = (*Stdio)(nil)

func (s *Stdio) Stdin() *os.File {
	return s.IStdin
}

func (s *Stdio) Stdout() *os.File {
	return s.IStdout
}

func (s *Stdio) Stderr() *os.File {
	return s.IStderr
}
