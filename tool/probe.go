package tool

import (
	"fmt"
	"net/url"
	"time"

	probing "github.com/prometheus-community/pro-bing"
)

// ProbeResult is what the startup probe learned about the processing service host.
type ProbeResult struct {
	Host      string
	Reachable bool
	AvgRtt    time.Duration
}

// ProbeBackendHost sends a single unprivileged ICMP echo to the backend host.
func ProbeBackendHost(backend string, timeout time.Duration) (ProbeResult, error) {
	u, err := url.Parse(backend)
	if err != nil {
		return ProbeResult{}, fmt.Errorf("failed to parse backend URL: %v", err)
	}
	host := u.Hostname()
	if host == "" {
		return ProbeResult{}, fmt.Errorf("backend URL %q has no host", backend)
	}
	pinger, err := probing.NewPinger(host)
	if err != nil {
		return ProbeResult{Host: host}, fmt.Errorf("failed to create pinger: %v", err)
	}
	pinger.Count = 1
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	pinger.Timeout = timeout
	pinger.SetPrivileged(false)
	if err := pinger.Run(); err != nil {
		return ProbeResult{Host: host}, fmt.Errorf("failed to ping %s: %v", host, err)
	}
	stats := pinger.Statistics()
	return ProbeResult{
		Host:      host,
		Reachable: stats.PacketsRecv > 0,
		AvgRtt:    stats.AvgRtt,
	}, nil
}
