package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	core "github.com/3cpo-dev/phonedeploy/internal/core"
)

var (
	version   = "1.0.0"
	commit    = ""
	buildDate = ""
)

// Create the root command. Running it without a subcommand deploys.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phonedeploy",
		Short: "Build and run the mobile app on a connected device",
		Long: "phonedeploy checks whether the hosted backend is reachable, falls back to this machine's " +
			"LAN address when it is not, and runs the app on a connected device against the chosen API.",
		RunE:          runDeploy,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("log", "l", "warn", "Set log level. Available: trace, debug, info, warn, error, fatal")
	cmd.PersistentFlags().String("config", "", "config file")
	cmd.PersistentFlags().Bool("insecure", false, "skip TLS certificate verification for the backend health check")
	cmd.PersistentFlags().Bool("no-history", false, "do not record this run in the deployment history")

	cmd.Flags().StringP("device", "d", "", "target device id (defaults to the toolchain's choice)")
	cmd.Flags().BoolP("yes", "y", false, "deploy without asking for confirmation")
	cmd.Flags().String("project", "", "app project directory the toolchain runs in")

	cmd.PersistentPreRun = func(c *cobra.Command, args []string) {
		levelStr, _ := c.Flags().GetString("log")
		switch levelStr {
		case "trace":
			zerolog.SetGlobalLevel(zerolog.TraceLevel)
		case "debug":
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		case "info":
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		case "warn":
			zerolog.SetGlobalLevel(zerolog.WarnLevel)
		case "error":
			zerolog.SetGlobalLevel(zerolog.ErrorLevel)
		case "fatal":
			zerolog.SetGlobalLevel(zerolog.FatalLevel)
		default:
			zerolog.SetGlobalLevel(zerolog.WarnLevel)
		}
	}

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newURLCmd())
	cmd.AddCommand(newDevicesCmd())
	cmd.AddCommand(newHistoryCmd())
	return cmd
}

// Create the version command
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "phonedeploy %s (%s) %s\n", version, commit, buildDate)
		},
	}
}

// Setup the logger
func setupLogger() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
}

// exitCode maps a command error to the process status. Failures the
// console already printed are not repeated.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var reported *core.ReportedError
	if errors.As(err, &reported) {
		log.Debug().Err(err).Msg("deploy failed")
		return 1
	}
	fmt.Fprintln(os.Stderr, err)
	return 1
}

// Main entry point
func main() {
	setupLogger()
	root := newRootCmd()
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	root.SetContext(ctx)
	code := exitCode(root.Execute())
	cancel()
	os.Exit(code)
}
