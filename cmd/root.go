package cmd

import (
	"errors"
	"io/fs"
	"log"
	"os"

	"github.com/josephlewis42/jobsh/core"
	"github.com/josephlewis42/jobsh/core/config"
	"github.com/josephlewis42/jobsh/core/logger"
	"github.com/josephlewis42/jobsh/core/vos"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	cfgPath  string
	quiet    bool
	command  string
	exitCode int
)

func loadConfig() (*config.Configuration, error) {
	configuration, err := config.Load(cfgPath)

	if errors.Is(err, fs.ErrNotExist) {
		log.Println("Couldn't load config: did you run init?")
	}

	return configuration, err
}

// loadShellConfig falls back to the built-in configuration, without an event
// log, if none has been initialized.
func loadShellConfig(cmd *cobra.Command) *config.Configuration {
	configuration, err := config.Load(cfgPath)
	switch {
	case errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config"):
		// Never initialized.
	case err != nil:
		log.Printf("Couldn't load config, using defaults: %v", err)
	default:
		return configuration
	}

	configuration = config.Default(afero.NewMemMapFs())
	configuration.EventLog = ""
	return configuration
}

// openEventLog returns the recorder for the configured event log, which
// discards events if there isn't one.
func openEventLog(configuration *config.Configuration) (logger.Recorder, func()) {
	fd, err := configuration.OpenEventLog()
	switch {
	case errors.Is(err, config.ErrEventLogDisabled):
		return logger.NopRecorder{}, func() {}
	case err != nil:
		log.Printf("Couldn't open event log: %v", err)
		return logger.NopRecorder{}, func() {}
	}

	return logger.NewJsonLinesLogRecorder(fd).NewSession(), func() { fd.Close() }
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "jobsh [flags] [SCRIPT]",
	Short: "A job-control shell",
	Long: `jobsh runs command lines with pipelines, redirections, conditional
chains and background jobs. Lines are read interactively from a terminal,
from SCRIPT, or from standard input.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		configuration := loadShellConfig(cmd)
		events, closeEvents := openEventLog(configuration)
		defer closeEvents()

		shell := core.NewShell(vos.NewHostOS(nil), configuration, events)
		shell.Quiet = quiet
		stop := shell.HandleSignals()
		defer stop()

		var err error
		switch {
		case cmd.Flags().Changed("command"):
			err = shell.EvalLine(command)

		case len(args) == 1:
			script, openErr := os.Open(args[0])
			if openErr != nil {
				return openErr
			}
			defer script.Close()
			err = shell.Run(core.NewScriptReader(script, nil))

		case term.IsTerminal(int(os.Stdin.Fd())) && !quiet:
			err = shell.Run(core.NewTerminalReader(os.Stdin, os.Stdout, shell.Interrupt))

		default:
			err = shell.Run(core.NewScriptReader(os.Stdin, os.Stdout))
		}
		if err != nil {
			return err
		}

		exitCode = core.ExitCode(shell.LastStatus())
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
	os.Exit(exitCode)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", config.DefaultDir(), "config path")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "don't print prompts")
	rootCmd.Flags().StringVarP(&command, "command", "c", "", "run COMMAND and exit with its status")
}
