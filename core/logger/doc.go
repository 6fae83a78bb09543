// Package logger is a standardized event logging framework for the shell.
//
// Every event is wrapped in a LogEntry carrying a timestamp and the id of the
// shell session that produced it, and is written as one JSON object per line.
package logger
