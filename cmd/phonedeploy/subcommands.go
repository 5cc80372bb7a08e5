package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/3cpo-dev/phonedeploy/internal/backend"
	core "github.com/3cpo-dev/phonedeploy/internal/core"
	"github.com/3cpo-dev/phonedeploy/internal/telemetry"
	"github.com/3cpo-dev/phonedeploy/internal/toolchain"
	"github.com/3cpo-dev/phonedeploy/internal/toolchain/flutter"
)

// Resolve the configuration with flag overrides applied
func resolveConfig(cmd *cobra.Command) (core.Config, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := core.LoadConfig(cfgPath)
	if err != nil {
		return cfg, err
	}
	if insecure, _ := cmd.Flags().GetBool("insecure"); insecure {
		cfg.Backend.InsecureSkipVerify = true
	}
	if noHistory, _ := cmd.Flags().GetBool("no-history"); noHistory {
		cfg.History.Enabled = false
	}
	if f := cmd.Flags().Lookup("device"); f != nil && f.Changed {
		cfg.Toolchain.Device = f.Value.String()
	}
	if f := cmd.Flags().Lookup("project"); f != nil && f.Changed {
		cfg.Toolchain.Project = f.Value.String()
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	log.Debug().Str("health_url", cfg.Backend.HealthURL).Str("api_url", cfg.Backend.APIURL).Msg("config loaded")
	return cfg, nil
}

// Resolve the toolchain named in the config
func resolveToolchain(cmd *cobra.Command, cfg core.Config) (toolchain.Toolchain, error) {
	reg := toolchain.NewRegistry()
	fl := flutter.New(cfg.Toolchain.Binary, cfg.Toolchain.Project)
	fl.Stdin = cmd.InOrStdin()
	fl.Stdout = cmd.OutOrStdout()
	fl.Stderr = cmd.ErrOrStderr()
	reg.Register(fl)
	return reg.Get(cfg.Toolchain.Name)
}

func newResolver(cfg core.Config) *backend.Resolver {
	return &backend.Resolver{
		HealthURL: cfg.Backend.HealthURL,
		RemoteURL: cfg.Backend.APIURL,
		LocalPort: cfg.Local.Port,
		LocalPath: cfg.Local.Path,
		ProbeAddr: cfg.Local.ProbeAddr,
		Client:    backend.NewHTTPClient(cfg.Timeout(), cfg.Backend.InsecureSkipVerify),
	}
}

// Build an orchestrator; the returned func closes the history store.
func newOrchestrator(cmd *cobra.Command, cfg core.Config) (*core.Orchestrator, func(), error) {
	tc, err := resolveToolchain(cmd, cfg)
	if err != nil {
		return nil, nil, err
	}
	var prompter core.Prompter = core.LinePrompter{In: cmd.InOrStdin(), Out: cmd.OutOrStdout()}
	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		prompter = core.AutoConfirm{}
	}
	orch := &core.Orchestrator{
		AppName:   cfg.AppName,
		Define:    cfg.Toolchain.Define,
		Device:    cfg.Toolchain.Device,
		Resolver:  newResolver(cfg),
		Toolchain: tc,
		Prompter:  prompter,
		Console:   core.NewConsole(cmd.OutOrStdout()),
		Metrics:   telemetry.NewCollector(true),
	}
	closer := func() {}
	if cfg.History.Enabled {
		store, err := core.NewStore(cfg.History.Path)
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.History.Path).Msg("deployment history unavailable")
		} else {
			orch.History = store
			closer = func() { _ = store.Close() }
		}
	}
	return orch, closer, nil
}

// Full deploy flow
func runDeploy(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	orch, closer, err := newOrchestrator(cmd, cfg)
	if err != nil {
		return err
	}
	defer closer()
	err = orch.Run(cmd.Context())
	if errors.Is(err, core.ErrCancelled) {
		return nil
	}
	return err
}

// Print the API URL the app would be built against
func newURLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "url",
		Short: "Resolve and print the backend API URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			res, err := newResolver(cfg).Resolve(cmd.Context())
			if err != nil {
				return err
			}
			log.Debug().Str("source", string(res.Source)).Msg("backend resolved")
			fmt.Fprintln(cmd.OutOrStdout(), res.URL)
			return nil
		},
	}
}

// List connected devices
func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List devices the toolchain can deploy to",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			tc, err := resolveToolchain(cmd, cfg)
			if err != nil {
				return err
			}
			orch := &core.Orchestrator{Toolchain: tc, Console: core.NewConsole(cmd.OutOrStdout())}
			return orch.ListDevices(cmd.Context())
		},
	}
}

// Show recent deployments
func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent deployments",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			store, err := core.NewStore(cfg.History.Path)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()
			runs, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no deployments recorded")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "STARTED\tSTATUS\tSOURCE\tAPI URL\tDEVICE\tDETAIL")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Status, r.Source, r.APIURL, r.Device, r.Detail)
			}
			return w.Flush()
		},
	}
	cmd.Flags().Int("limit", 20, "number of deployments to show")
	return cmd
}
