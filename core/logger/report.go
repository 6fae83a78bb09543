package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
)

// ReadJSONLinesLog parses a newline delimited JSON log.
func ReadJSONLinesLog(r io.Reader, handler func(le *LogEntry)) error {
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	for decoder.More() {
		var logEntry LogEntry
		if err := decoder.Decode(&logEntry); err != nil {
			return err
		}

		handler(&logEntry)
	}
	return nil
}

// SessionReport groups the commands run by each shell session.
type SessionReport struct {
	// Map of sessionID -> session
	sessions map[string]*Session
}

// Session is what a single shell instance did.
type Session struct {
	LogEntries int `json:"log_entries"`

	Commands       []string `json:"commands"`
	BackgroundJobs []string `json:"background_jobs,omitempty"`
	Failures       []string `json:"failures,omitempty"`
	Interrupts     int      `json:"interrupts,omitempty"`
}

func (s *Session) Update(le *LogEntry) {
	s.LogEntries++

	switch event := le.GetLogType().(type) {
	case *RunCommand:
		s.Commands = append(s.Commands, strings.Join(event.Command, " "))
	case *Builtin:
		s.Commands = append(s.Commands, strings.Join(event.Command, " "))
	case *BackgroundJob:
		s.BackgroundJobs = append(s.BackgroundJobs, event.Commands)
	case *ExecFailure:
		s.Failures = append(s.Failures, fmt.Sprintf("%s: %s", strings.Join(event.Command, " "), event.Error))
	case *RedirectFailure:
		s.Failures = append(s.Failures, fmt.Sprintf("%s: %s", event.Path, event.Error))
	case *Interrupt:
		s.Interrupts++
	}
}

func (r *SessionReport) init() {
	if r.sessions == nil {
		r.sessions = make(map[string]*Session)
	}
}

// MarshalJSON implemnts custom JSON marshaler.
func (r *SessionReport) MarshalJSON() ([]byte, error) {
	r.init()

	return json.Marshal(r.sessions)
}

func (r *SessionReport) Update(le *LogEntry) {
	r.init()

	sessionID := le.SessionId
	if sessionID == "" {
		return
	}
	session, ok := r.sessions[sessionID]
	if !ok {
		session = &Session{}
		r.sessions[sessionID] = session
	}

	session.Update(le)
}

// Report holds statistics about the logged events.
type Report struct {
	LogEntries     int        `json:"log_entries"`
	InvalidEntries StrCounter `json:"unknown_log_entries,omitempty"`

	RunCommand      RunCommandReport      `json:"run_command_report"`
	CommandExit     CommandExitReport     `json:"command_exit_report"`
	ExecFailure     ExecFailureReport     `json:"exec_failure_report"`
	RedirectFailure RedirectFailureReport `json:"redirect_failure_report"`
	ParseAnomaly    ParseAnomalyReport    `json:"parse_anomaly_report"`
	BackgroundJob   BackgroundJobReport   `json:"background_job_report"`
	Builtin         BuiltinReport         `json:"builtin_report"`
	Interrupts      int                   `json:"interrupts"`
}

func (r *Report) Update(le *LogEntry) {
	r.LogEntries++

	switch event := le.GetLogType().(type) {
	case *RunCommand:
		r.RunCommand.update(event)
	case *CommandExit:
		r.CommandExit.update(event)
	case *ExecFailure:
		r.ExecFailure.update(event)
	case *RedirectFailure:
		r.RedirectFailure.update(event)
	case *ParseAnomaly:
		r.ParseAnomaly.update(event)
	case *BackgroundJob:
		r.BackgroundJob.update(event)
	case *Builtin:
		r.Builtin.update(event)
	case *Interrupt:
		r.Interrupts++
	default:
		r.InvalidEntries.Increment(fmt.Sprintf("%T", event))
	}
}

type RunCommandReport struct {
	// Name of the command
	CommandNames StrCounter `json:"command_names"`
	PipedCount   int        `json:"piped_count"`
}

func (r *RunCommandReport) update(rc *RunCommand) {
	if len(rc.Command) > 0 {
		r.CommandNames.Increment(rc.Command[0])
	}
	if rc.Piped {
		r.PipedCount++
	}
}

type CommandExitReport struct {
	Statuses StrCounter `json:"statuses"`
	// Commands that didn't succeed, by name and status.
	Failures *PathCounter `json:"failures"`
}

func (r *CommandExitReport) update(ce *CommandExit) {
	r.Statuses.Increment(ce.Status)
	if ce.Success {
		return
	}
	if r.Failures == nil {
		r.Failures = NewPathCounter("command", "status")
	}
	name := ""
	if len(ce.Command) > 0 {
		name = ce.Command[0]
	}
	r.Failures.Increment(name, ce.Status)
}

type ExecFailureReport struct {
	CommandNames StrCounter `json:"command_names"`
}

func (r *ExecFailureReport) update(ef *ExecFailure) {
	if len(ef.Command) > 0 {
		r.CommandNames.Increment(ef.Command[0])
	}
}

type RedirectFailureReport struct {
	Errors StrCounter `json:"errors"`
}

func (r *RedirectFailureReport) update(rf *RedirectFailure) {
	r.Errors.Increment(rf.Error)
}

type ParseAnomalyReport struct {
	Errors StrCounter `json:"errors"`
}

func (r *ParseAnomalyReport) update(pa *ParseAnomaly) {
	r.Errors.Increment(pa.Error)
}

type BackgroundJobReport struct {
	Count int `json:"count"`
}

func (r *BackgroundJobReport) update(*BackgroundJob) {
	r.Count++
}

type BuiltinReport struct {
	CommandNames StrCounter `json:"command_names"`
	ErrorCount   int        `json:"error_count"`
}

func (r *BuiltinReport) update(b *Builtin) {
	if len(b.Command) > 0 {
		r.CommandNames.Increment(b.Command[0])
	}
	if b.Error != "" {
		r.ErrorCount++
	}
}

// StrCounter counts the number of strings seen.
type StrCounter struct {
	internal map[string]int
}

// Increment adds one to the given key.
func (s *StrCounter) Increment(toAdd string) {
	if s.internal == nil {
		s.internal = make(map[string]int)
	}

	s.internal[toAdd]++
}

// Get returns the count for key.
func (s *StrCounter) Get(key string) int {
	return s.internal[key]
}

// MarshalJSON implemnts custom JSON marshaler.
func (s StrCounter) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.internal)
}

func NewPathCounter(cols ...string) *PathCounter {
	return &PathCounter{
		cols:     cols,
		internal: make(map[string]int),
	}
}

// PathCounter counts the number of strings seen.
type PathCounter struct {
	cols     []string
	internal map[string]int
}

// Increment adds one to the given key.
func (ctr *PathCounter) Increment(toAdd ...string) {
	if len(toAdd) != len(ctr.cols) {
		panic("wrong number of columns to add")
	}

	ctr.internal[toKey(toAdd...)]++
}

// Get returns the count for the given column values.
func (ctr *PathCounter) Get(vals ...string) int {
	return ctr.internal[toKey(vals...)]
}

// MarshalJSON implemnts custom JSON marshaler.
func (ctr *PathCounter) MarshalJSON() ([]byte, error) {
	type Count struct {
		Count  int               `json:"count"`
		Fields map[string]string `json:"event"`
		Path   string            `json:"-"`
	}

	var out []Count
	for k, v := range ctr.internal {
		count := Count{
			Count:  v,
			Path:   k,
			Fields: make(map[string]string),
		}

		splitPath := fromKey(k)
		for colNum, colVal := range ctr.cols {
			count.Fields[colVal] = splitPath[colNum]
		}

		out = append(out, count)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Path < out[j].Path
		}
		return out[i].Count > out[j].Count
	})

	return json.Marshal(out)
}

func toKey(vals ...string) string {
	key, _ := json.Marshal(vals)
	return string(key)
}

func fromKey(key string) (out []string) {
	json.Unmarshal([]byte(key), &out)
	return
}
