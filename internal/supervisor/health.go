package supervisor

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"cbhands/internal/config"
	"cbhands/internal/constants"
)

// probeFunc checks whether a freshly started service is ready. It returns
// nil when healthy.
type probeFunc func() error

// healthProbe picks the probe for a service: an HTTP GET against the
// configured health path when one exists, otherwise a plain process-alive
// check against the spawned child.
func healthProbe(svc config.ServiceConfig, pid int) probeFunc {
	if svc.HealthPath != "" && svc.Port != 0 {
		url := fmt.Sprintf("http://127.0.0.1:%d%s", svc.Port, svc.HealthPath)
		client := &http.Client{Timeout: constants.DefaultProbeHTTPTimeout}
		return func() error {
			resp, err := client.Get(url)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				return fmt.Errorf("health endpoint returned %d", resp.StatusCode)
			}
			return nil
		}
	}

	return func() error {
		if !pidAlive(pid) {
			return fmt.Errorf("process %d is not running", pid)
		}
		return nil
	}
}

// portInUse reports whether something is already listening on the port.
// Used before spawning so a racing second start is caught as PortInUse
// rather than two processes briefly fighting over the bind.
func portInUse(port int) bool {
	if port == 0 {
		return false
	}
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	conn, err := net.DialTimeout("tcp", addr, 250*time.Millisecond)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
