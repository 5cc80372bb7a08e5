package backend

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/3cpo-dev/phonedeploy/pkg/api"
)

// ErrNoLocalAddress is returned when the remote backend is down and no
// usable local IPv4 address could be found.
var ErrNoLocalAddress = errors.New("could not determine local WiFi IP address")

// Resolution is the outcome of Resolve.
type Resolution struct {
	URL     string
	Source  api.BackendSource
	LocalIP string
}

// Resolver picks the API base URL the app is built against.
type Resolver struct {
	HealthURL string
	RemoteURL string
	LocalPort int
	LocalPath string
	// ProbeAddr is the external address used to find the outbound interface.
	ProbeAddr string
	Client    *http.Client
	// LocalIP overrides LocalIPv4, mostly for tests.
	LocalIP func(probeAddr string) (net.IP, error)
}

// NewHTTPClient returns the client used for the health probe.
func NewHTTPClient(timeout time.Duration, insecure bool) *http.Client {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	if insecure {
		log.Warn().Msg("TLS certificate verification disabled for backend health check")
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in via --insecure
	}
	return &http.Client{Timeout: timeout, Transport: tr}
}

// Probe reports whether the health endpoint answered 200. Every other
// outcome, including transport errors, counts as unavailable.
func (r *Resolver) Probe(ctx context.Context) bool {
	client := r.Client
	if client == nil {
		client = NewHTTPClient(5*time.Second, false)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.HealthURL, nil)
	if err != nil {
		log.Debug().Err(err).Str("url", r.HealthURL).Msg("build health request")
		return false
	}
	resp, err := client.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("url", r.HealthURL).Msg("health check failed")
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	log.Debug().Int("status", resp.StatusCode).Str("url", r.HealthURL).Msg("health check response")
	return resp.StatusCode == http.StatusOK
}

// Resolve returns the remote URL when the backend is healthy, otherwise a
// URL on the local outbound IPv4 address.
func (r *Resolver) Resolve(ctx context.Context) (Resolution, error) {
	if r.Probe(ctx) {
		return Resolution{URL: r.RemoteURL, Source: api.SourceRemote}, nil
	}
	lookup := r.LocalIP
	if lookup == nil {
		lookup = LocalIPv4
	}
	ip, err := lookup(r.ProbeAddr)
	if err != nil {
		return Resolution{Source: api.SourceLocal}, fmt.Errorf("%w: %v", ErrNoLocalAddress, err)
	}
	return Resolution{
		URL:     LocalURL(ip.String(), r.LocalPort, r.LocalPath),
		Source:  api.SourceLocal,
		LocalIP: ip.String(),
	}, nil
}

// LocalURL builds http://<ip>:<port><path>.
func LocalURL(ip string, port int, path string) string {
	return fmt.Sprintf("http://%s%s", net.JoinHostPort(ip, fmt.Sprint(port)), path)
}

// LocalIPv4 finds the address the OS would route probeAddr through. UDP
// connect does not put anything on the wire.
func LocalIPv4(probeAddr string) (net.IP, error) {
	if probeAddr == "" {
		probeAddr = "8.8.8.8:80"
	}
	conn, err := net.Dial("udp4", probeAddr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", probeAddr, err)
	}
	defer conn.Close()
	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return nil, fmt.Errorf("unexpected local address type %T", conn.LocalAddr())
	}
	return usableIPv4(addr.IP)
}

func usableIPv4(ip net.IP) (net.IP, error) {
	v4 := ip.To4()
	if v4 == nil {
		return nil, fmt.Errorf("%s is not an IPv4 address", ip)
	}
	if v4.IsLoopback() {
		return nil, fmt.Errorf("%s is a loopback address", v4)
	}
	if v4.IsUnspecified() {
		return nil, errors.New("no outbound interface")
	}
	return v4, nil
}
