package api

import "time"

// v0 contains public types shared by the CLI and the history store.

// BackendSource tells which backend a run was pointed at.
type BackendSource string

const (
	SourceRemote BackendSource = "remote"
	SourceLocal  BackendSource = "local"
)

type RunStatus string

const (
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
)

// Deployment is one recorded invocation of the deploy flow.
type Deployment struct {
	ID        int64         `json:"id" yaml:"id"`
	StartedAt time.Time     `json:"started_at" yaml:"started_at"`
	APIURL    string        `json:"api_url" yaml:"api_url"`
	Source    BackendSource `json:"source" yaml:"source"`
	Device    string        `json:"device,omitempty" yaml:"device,omitempty"`
	Status    RunStatus     `json:"status" yaml:"status"`
	Detail    string        `json:"detail,omitempty" yaml:"detail,omitempty"`
}
