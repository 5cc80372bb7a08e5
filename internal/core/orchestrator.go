package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/3cpo-dev/phonedeploy/internal/backend"
	"github.com/3cpo-dev/phonedeploy/internal/telemetry"
	"github.com/3cpo-dev/phonedeploy/internal/toolchain"
	"github.com/3cpo-dev/phonedeploy/pkg/api"
)

// ErrCancelled is returned when the user declines the deployment.
var ErrCancelled = errors.New("deployment cancelled")

// ReportedError wraps a failure whose message the console already printed.
type ReportedError struct{ Err error }

func (e *ReportedError) Error() string { return e.Err.Error() }
func (e *ReportedError) Unwrap() error { return e.Err }

type URLResolver interface {
	Resolve(ctx context.Context) (backend.Resolution, error)
}

type History interface {
	Record(ctx context.Context, d api.Deployment) (int64, error)
}

// Orchestrator runs probe, device listing, confirmation and deploy in order.
// Any failing step ends the run.
type Orchestrator struct {
	AppName   string
	Define    string
	Device    string
	Resolver  URLResolver
	Toolchain toolchain.Toolchain
	Prompter  Prompter
	Console   *Console
	History   History
	Metrics   *telemetry.Collector

	now func() time.Time
}

// ResolveURL probes the backend and prints which URL was chosen.
func (o *Orchestrator) ResolveURL(ctx context.Context) (backend.Resolution, error) {
	o.Console.Progress("Checking remote backend availability...")
	stop := o.Metrics.Time("step.probe", nil)
	res, err := o.Resolver.Resolve(ctx)
	stop()

	if res.Source == api.SourceRemote {
		o.Console.Success("✓ Remote backend is available")
		return res, nil
	}
	o.Console.Warn("✗ Remote backend is not reachable")
	if err != nil {
		o.Console.Error("Error: Could not determine local WiFi IP address")
		return res, &ReportedError{Err: err}
	}
	o.Console.Warn("Using local WiFi IP: %s", res.LocalIP)
	return res, nil
}

// ListDevices shows the devices the toolchain can see.
func (o *Orchestrator) ListDevices(ctx context.Context) error {
	o.Console.Progress("Checking for connected devices...")
	stop := o.Metrics.Time("step.devices", map[string]string{"toolchain": o.Toolchain.Name()})
	err := o.Toolchain.ListDevices(ctx)
	stop()
	if err != nil {
		o.Console.Error("Error checking devices")
		return &ReportedError{Err: fmt.Errorf("list devices: %w", err)}
	}
	return nil
}

// Run executes the whole deploy flow. It returns nil on success, ErrCancelled
// when the user declines and a *ReportedError for every fatal failure.
func (o *Orchestrator) Run(ctx context.Context) error {
	defer o.Metrics.Flush()

	res, err := o.ResolveURL(ctx)
	if err != nil {
		o.Metrics.Counter("deploy.failed", 1, map[string]string{"step": "resolve"})
		return err
	}
	o.Console.Banner(o.AppName, res.URL)

	started := o.clock()
	record := func(status api.RunStatus, detail error) {
		o.Metrics.Counter("deploy."+string(status), 1, map[string]string{"source": string(res.Source)})
		o.record(ctx, api.Deployment{
			StartedAt: started,
			APIURL:    res.URL,
			Source:    res.Source,
			Device:    o.Device,
			Status:    status,
			Detail:    errString(detail),
		})
	}

	if err := o.ListDevices(ctx); err != nil {
		record(api.RunFailed, err)
		return err
	}

	o.Console.Blank()
	ok, err := o.Prompter.Confirm("Proceed with deployment?")
	if err != nil {
		o.Console.Error("Error: %v", err)
		record(api.RunFailed, err)
		return &ReportedError{Err: err}
	}
	if !ok {
		o.Console.Warn("Deployment cancelled.")
		record(api.RunCancelled, nil)
		return ErrCancelled
	}

	o.Console.Blank()
	o.Console.Success("Building and deploying app...")
	stop := o.Metrics.Time("step.deploy", map[string]string{"toolchain": o.Toolchain.Name()})
	err = o.Toolchain.Run(ctx, toolchain.RunRequest{
		Defines: map[string]string{o.Define: res.URL},
		Device:  o.Device,
	})
	stop()
	if err != nil {
		o.Console.Error("Error during deployment: %v", err)
		record(api.RunFailed, err)
		return &ReportedError{Err: fmt.Errorf("deploy: %w", err)}
	}

	o.Console.Blank()
	o.Console.Success("[OK] Deployment complete!")
	record(api.RunSucceeded, nil)
	return nil
}

// record never fails the run; history is best effort.
func (o *Orchestrator) record(ctx context.Context, d api.Deployment) {
	if o.History == nil {
		return
	}
	id, err := o.History.Record(ctx, d)
	if err != nil {
		log.Warn().Err(err).Msg("could not record deployment history")
		return
	}
	log.Debug().Int64("id", id).Str("status", string(d.Status)).Msg("recorded deployment")
}

func (o *Orchestrator) clock() time.Time {
	if o.now != nil {
		return o.now()
	}
	return time.Now()
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
