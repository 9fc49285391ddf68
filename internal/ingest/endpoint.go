package ingest

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// DefaultPath is the ingest path used when an endpoint is built from host and
// port. The backend multiplexes client roles on one /ws route and reads the
// role from the query string.
const DefaultPath = "/ws?type=ingest"

type envConfig struct {
	Endpoint string `env:"WEBSOCKET_ENDPOINT"`
}

// EndpointFromEnv returns the ingest endpoint configured through the
// WEBSOCKET_ENDPOINT environment variable, or "" when unset.
func EndpointFromEnv() string {
	var cfg envConfig
	if err := env.Parse(&cfg); err != nil {
		return ""
	}
	return cfg.Endpoint
}

// ResolveEndpoint picks the endpoint URL: an explicit value wins, then the
// environment, then a URL built from host, port and path. The legacy
// /ws/ingest default path is rewritten to the query-string form the backend
// expects.
func ResolveEndpoint(explicit, fromEnv, host string, port int, path string) string {
	switch {
	case explicit != "":
		return explicit
	case fromEnv != "":
		return fromEnv
	}
	if path == "/ws/ingest" || path == "" {
		path = DefaultPath
	}
	return fmt.Sprintf("ws://%s:%d%s", host, port, path)
}

// AppendIdentity merges device and camera identifiers into the endpoint's
// query string, starting one when the URL has none yet. Endpoints built from
// host and port already carry type=ingest.
func AppendIdentity(endpoint, deviceID, cameraID string) string {
	var params []string
	if deviceID != "" {
		params = append(params, "device_id="+deviceID)
	}
	if cameraID != "" {
		params = append(params, "camera_id="+cameraID)
	}
	if len(params) == 0 {
		return endpoint
	}

	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}
	return endpoint + sep + strings.Join(params, "&")
}

// BuildIngestEndpoint resolves the endpoint for the binary frame sender:
// identity parameters ride on the query string in every mode, and URLs built
// from host and port declare the ingest role explicitly.
func BuildIngestEndpoint(explicit, fromEnv, host string, port int, deviceID, cameraID string) string {
	if explicit != "" {
		return AppendIdentity(explicit, deviceID, cameraID)
	}
	if fromEnv != "" {
		return AppendIdentity(fromEnv, deviceID, cameraID)
	}
	endpoint := fmt.Sprintf("ws://%s:%d/ws?type=ingest", host, port)
	return AppendIdentity(endpoint, deviceID, cameraID)
}
