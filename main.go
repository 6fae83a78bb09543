package main

import (
	"os"

	"github.com/josephlewis42/jobsh/cmd"
	"github.com/josephlewis42/jobsh/core/jobctl"
	"github.com/josephlewis42/jobsh/core/logger"
	"github.com/josephlewis42/jobsh/core/vos"
)

func main() {
	// Background jobs are run by a re-executed copy of the shell.
	if encoded, ok := os.LookupEnv(jobctl.JobEnv); ok {
		os.Unsetenv(jobctl.JobEnv)
		os.Exit(jobctl.RunDetachedJob(encoded, vos.NewHostOS(nil), os.Stderr, logger.NopRecorder{}))
	}

	cmd.Execute()
}
