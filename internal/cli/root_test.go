package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/vietddude/runrgateway/pkg/gateway"
	"github.com/vietddude/runrgateway/pkg/gateway/gwerr"
)

func writeConfig(t *testing.T, baseURL string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "gateway.yaml")
	data := fmt.Sprintf("gateway:\n  base_url: %s\n  agent_id: cli-agent\nretry:\n  max_retries: 0\n", baseURL)
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	prev := cfgPath
	cfgPath = path
	t.Cleanup(func() { cfgPath = prev })
}

func TestRunJob_ReturnsGatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":"upstream down"}`))
	}))
	defer server.Close()
	writeConfig(t, server.URL)

	err := runJob(jobCmd, []string{"job-1"})
	if err == nil {
		t.Fatal("Expected an error from runJob")
	}

	var cmdErr *commandError
	if !errors.As(err, &cmdErr) || cmdErr.msg != "Failed to get job" {
		t.Errorf("Expected command error for job lookup, got %v", err)
	}
	if gwerr.KindOf(err) != gwerr.KindUpstream {
		t.Errorf("Expected upstream kind, got %v", gwerr.KindOf(err))
	}
}

func TestRunJob_MissingConfig(t *testing.T) {
	prev := cfgPath
	cfgPath = filepath.Join(t.TempDir(), "missing.yaml")
	defer func() { cfgPath = prev }()

	err := runJob(jobCmd, []string{"job-1"})
	var cmdErr *commandError
	if !errors.As(err, &cmdErr) || cmdErr.msg != "Failed to load config" {
		t.Errorf("Expected config load error, got %v", err)
	}
}

func TestGatewayHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"bad token"}`))
	}))
	defer server.Close()

	client, err := gateway.New(gateway.Config{BaseURL: server.URL, AgentID: "cli-agent"})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	defer client.Close()

	check := gatewayHealth(client)
	if status, critical := check(); status != "healthy" || critical {
		t.Errorf("Expected healthy before any request, got %s (critical=%v)", status, critical)
	}

	if _, err := client.GetJob(context.Background(), "job-1"); !errors.Is(err, gwerr.ErrAuth) {
		t.Fatalf("Expected auth error, got %v", err)
	}
	if status, critical := check(); status != "blocked" || !critical {
		t.Errorf("Expected blocked and critical after 401, got %s (critical=%v)", status, critical)
	}
}
