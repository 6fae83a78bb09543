package logger

// LogType is implemented by every event payload.
type LogType interface {
	isLogEntry_LogType()
}

// LogEntry is one line of the event log. Exactly one payload is set.
type LogEntry struct {
	TimestampMicros int64  `json:"timestamp_micros"`
	SessionId       string `json:"session_id,omitempty"`

	RunCommand      *RunCommand      `json:"run_command,omitempty"`
	CommandExit     *CommandExit     `json:"command_exit,omitempty"`
	RedirectFailure *RedirectFailure `json:"redirect_failure,omitempty"`
	ExecFailure     *ExecFailure     `json:"exec_failure,omitempty"`
	ParseAnomaly    *ParseAnomaly    `json:"parse_anomaly,omitempty"`
	BackgroundJob   *BackgroundJob   `json:"background_job,omitempty"`
	Builtin         *Builtin         `json:"builtin,omitempty"`
	Interrupt       *Interrupt       `json:"interrupt,omitempty"`
}

// GetLogType returns the payload, nil if there is none.
func (le *LogEntry) GetLogType() LogType {
	switch {
	case le.RunCommand != nil:
		return le.RunCommand
	case le.CommandExit != nil:
		return le.CommandExit
	case le.RedirectFailure != nil:
		return le.RedirectFailure
	case le.ExecFailure != nil:
		return le.ExecFailure
	case le.ParseAnomaly != nil:
		return le.ParseAnomaly
	case le.BackgroundJob != nil:
		return le.BackgroundJob
	case le.Builtin != nil:
		return le.Builtin
	case le.Interrupt != nil:
		return le.Interrupt
	default:
		return nil
	}
}

func (le *LogEntry) setLogType(event LogType) {
	switch e := event.(type) {
	case *RunCommand:
		le.RunCommand = e
	case *CommandExit:
		le.CommandExit = e
	case *RedirectFailure:
		le.RedirectFailure = e
	case *ExecFailure:
		le.ExecFailure = e
	case *ParseAnomaly:
		le.ParseAnomaly = e
	case *BackgroundJob:
		le.BackgroundJob = e
	case *Builtin:
		le.Builtin = e
	case *Interrupt:
		le.Interrupt = e
	}
}

// RunCommand is logged when a process is started for a command.
type RunCommand struct {
	Command []string `json:"command"`
	Pid     int      `json:"pid"`
	// Pgid is the group the process was asked to join, 0 for a new group.
	Pgid int `json:"pgid"`
	// Piped is set if the command's output feeds the next command.
	Piped bool `json:"piped,omitempty"`
}

// CommandExit is logged when a waited-for process finishes.
type CommandExit struct {
	Command []string `json:"command"`
	Pid     int      `json:"pid"`
	Status  string   `json:"status"`
	Success bool     `json:"success"`
}

// RedirectFailure is logged when a redirection target can't be opened.
type RedirectFailure struct {
	Command []string `json:"command"`
	Path    string   `json:"path"`
	Error   string   `json:"error"`
}

// ExecFailure is logged when a program couldn't be started.
type ExecFailure struct {
	Command []string `json:"command"`
	Error   string   `json:"error"`
}

// ParseAnomaly is logged for lines that were rejected or partially ignored.
type ParseAnomaly struct {
	Line  string `json:"line"`
	Error string `json:"error"`
}

// BackgroundJob is logged when a segment is detached.
type BackgroundJob struct {
	Commands string `json:"commands"`
	Pid      int    `json:"pid"`
}

// Builtin is logged when a builtin runs in the shell's process.
type Builtin struct {
	Command []string `json:"command"`
	Error   string   `json:"error,omitempty"`
}

// Interrupt is logged when the shell observes an interrupt.
type Interrupt struct {
	Line string `json:"line,omitempty"`
}

func (*RunCommand) isLogEntry_LogType()      {}
func (*CommandExit) isLogEntry_LogType()     {}
func (*RedirectFailure) isLogEntry_LogType() {}
func (*ExecFailure) isLogEntry_LogType()     {}
func (*ParseAnomaly) isLogEntry_LogType()    {}
func (*BackgroundJob) isLogEntry_LogType()   {}
func (*Builtin) isLogEntry_LogType()         {}
func (*Interrupt) isLogEntry_LogType()       {}
