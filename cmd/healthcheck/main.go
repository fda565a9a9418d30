// Command healthcheck probes the local automatrix server and exits non-zero
// when it is not healthy. It is the container HEALTHCHECK entrypoint.
package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/tidwall/gjson"
)

const (
	defaultAddr  = "127.0.0.1:8080"
	probeTimeout = 2 * time.Second
	maxBodyBytes = 4 << 10
)

func main() {
	if err := probe(healthURL(os.Getenv("AUTOMATRIX_LISTEN_ADDR"))); err != nil {
		fmt.Fprintln(os.Stderr, "unhealthy:", err)
		os.Exit(1)
	}
}

// probe requires a 200 response whose JSON body reports status "ok".
func probe(url string) error {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	if status := gjson.GetBytes(body, "status").String(); status != "ok" {
		return fmt.Errorf("reported status %q", status)
	}
	return nil
}

// healthURL points the probe at loopback. The server may bind a wildcard
// address but the probe runs inside the same container.
func healthURL(listenAddr string) string {
	addr := defaultAddr
	if host, port, err := net.SplitHostPort(listenAddr); err == nil {
		switch host {
		case "", "0.0.0.0":
			host = "127.0.0.1"
		case "::":
			host = "::1"
		}
		addr = net.JoinHostPort(host, port)
	}
	return "http://" + addr + "/api/v1/health"
}
