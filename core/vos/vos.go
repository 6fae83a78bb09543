// Package vos is the shell's view of the operating system: process creation,
// waiting, process groups, and terminal ownership.
package vos

import "os"

// VIO holds the standard streams that children inherit.
type VIO interface {
	Stdin() *os.File
	Stdout() *os.File
	Stderr() *os.File
}

// VProc creates and reaps processes.
type VProc interface {
	// StartProcess looks up argv[0] and starts it with the given attributes.
	StartProcess(argv []string, attr *ProcAttr) (pid int, err error)

	// Setpgid moves pid into the process group pgid; 0 makes pid a leader.
	Setpgid(pid, pgid int) error

	// Wait blocks until the specific process pid exits.
	Wait(pid int) (ProcStatus, error)

	// ReapZombies collects any exited children without blocking and returns
	// how many were collected.
	ReapZombies() int

	Getpid() int
}

// VTerm controls terminal ownership.
type VTerm interface {
	// ClaimForeground makes pgid the terminal's foreground process group.
	// A pgid of 0 means the shell's own group.
	ClaimForeground(pgid int) error
}

// VFS is the part of the filesystem state owned by the shell process.
type VFS interface {
	Chdir(dir string) error
	Getwd() (string, error)
}

// VOS provides a virtual OS interface.
type VOS interface {
	VIO
	VProc
	VTerm
	VFS
}
