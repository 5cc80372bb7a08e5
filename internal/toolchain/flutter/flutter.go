package flutter

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/3cpo-dev/phonedeploy/internal/toolchain"
)

// Toolchain drives the flutter CLI. Child processes share the terminal.
type Toolchain struct {
	Binary string
	Dir    string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func New(binary, dir string) *Toolchain {
	if binary == "" {
		binary = "flutter"
	}
	return &Toolchain{Binary: binary, Dir: dir, Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

func (t *Toolchain) Name() string { return "flutter" }

// ListDevices runs `flutter devices`.
func (t *Toolchain) ListDevices(ctx context.Context) error {
	return t.run(ctx, "devices", []string{"devices"}, false)
}

// Run runs `flutter run` with each define passed as --dart-define KEY=VALUE.
func (t *Toolchain) Run(ctx context.Context, req toolchain.RunRequest) error {
	return t.run(ctx, "run", RunArgs(req), true)
}

// RunArgs renders the argument list for `flutter run`. Defines are sorted so
// the command line is stable.
func RunArgs(req toolchain.RunRequest) []string {
	args := []string{"run"}
	if req.Device != "" {
		args = append(args, "-d", req.Device)
	}
	keys := make([]string, 0, len(req.Defines))
	for k := range req.Defines {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "--dart-define", k+"="+req.Defines[k])
	}
	return args
}

func (t *Toolchain) run(ctx context.Context, label string, args []string, interactive bool) error {
	cmd := exec.CommandContext(ctx, t.Binary, args...)
	cmd.Dir = t.Dir
	cmd.Stdout = t.Stdout
	cmd.Stderr = t.Stderr
	if interactive {
		cmd.Stdin = t.Stdin
	}
	log.Debug().Str("cmd", t.Binary+" "+strings.Join(args, " ")).Str("dir", t.Dir).Msg("exec toolchain")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("flutter %s: %w", label, err)
	}
	return nil
}
