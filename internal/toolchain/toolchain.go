package toolchain

import "context"

// RunRequest describes one build-and-run invocation.
type RunRequest struct {
	// Defines are baked into the app at build time.
	Defines map[string]string
	// Device targets a single device id; empty lets the toolchain pick.
	Device string
}

// Toolchain is the external build tool that talks to devices.
type Toolchain interface {
	Name() string
	ListDevices(ctx context.Context) error
	Run(ctx context.Context, req RunRequest) error
}
