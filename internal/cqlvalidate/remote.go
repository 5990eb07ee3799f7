package cqlvalidate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultRemoteTimeout is the default timeout for the remote CQL
// translator call (spec §5 "Timeouts are explicit (default 30 s)").
const DefaultRemoteTimeout = 30 * time.Second

// RemoteClient posts generated CQL to a CQL-to-ELM translator endpoint
// (spec §6.3). It is the only suspension point in the core (spec §5); all
// other validation is fully offline.
type RemoteClient struct {
	Endpoint string
	Timeout  time.Duration
	HTTP     *http.Client
}

// NewRemoteClient constructs a RemoteClient with DefaultRemoteTimeout and
// http.DefaultClient when unset.
func NewRemoteClient(endpoint string) *RemoteClient {
	return &RemoteClient{Endpoint: endpoint, Timeout: DefaultRemoteTimeout, HTTP: http.DefaultClient}
}

// ElmAnnotation is the subset of a CQL-to-ELM translator response this
// package merges into the local Result.
type ElmAnnotation struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Locator  string `json:"locator,omitempty"`
}

// ValidateRemote posts cql to the configured translator endpoint and
// merges its ELM annotations into a local Result. On timeout, cancellation,
// or any transport error it returns the local-only result plus a
// SERVICE_UNAVAILABLE warning rather than failing the caller (spec §6.3,
// §7 "External-unavailable"). The remote call never blocks construction or
// SQL generation; callers invoke it only when strict mode is enabled
// (spec §4.3).
func (rc *RemoteClient) ValidateRemote(ctx context.Context, cql string) Result {
	local := Validate(cql)

	if rc == nil || rc.Endpoint == "" {
		local.Warnings = append(local.Warnings, "SERVICE_UNAVAILABLE: no remote CQL translator configured; returning local validation only")
		return local
	}

	timeout := rc.Timeout
	if timeout <= 0 {
		timeout = DefaultRemoteTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	annotations, err := rc.postCQL(ctx, cql)
	if err != nil {
		local.Warnings = append(local.Warnings, fmt.Sprintf("SERVICE_UNAVAILABLE: remote CQL translator unreachable: %v", err))
		return local
	}

	for _, a := range annotations {
		switch a.Severity {
		case "error":
			local.Errors = append(local.Errors, a.Message)
			local.Valid = false
		default:
			local.Warnings = append(local.Warnings, a.Message)
		}
	}
	return local
}

func (rc *RemoteClient) postCQL(ctx context.Context, cql string) ([]ElmAnnotation, error) {
	client := rc.HTTP
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rc.Endpoint, bytes.NewBufferString(cql))
	if err != nil {
		return nil, fmt.Errorf("building translator request: %w", err)
	}
	req.Header.Set("Content-Type", "application/cql")
	req.Header.Set("Accept", "application/elm+json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling CQL translator: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("CQL translator returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading translator response: %w", err)
	}

	var payload struct {
		Annotations []ElmAnnotation `json:"annotations"`
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, fmt.Errorf("decoding translator response: %w", err)
		}
	}
	return payload.Annotations, nil
}
