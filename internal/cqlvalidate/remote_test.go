package cqlvalidate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRemote_NoEndpointConfigured(t *testing.T) {
	rc := &RemoteClient{}
	result := rc.ValidateRemote(context.Background(), wellFormedCQL)
	require.True(t, result.Valid)
	assertContainsSubstring(t, result.Warnings, "SERVICE_UNAVAILABLE")
}

func TestValidateRemote_MergesErrorAnnotations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"annotations":[{"severity":"error","message":"undefined reference"}]}`))
	}))
	defer srv.Close()

	rc := NewRemoteClient(srv.URL)
	result := rc.ValidateRemote(context.Background(), wellFormedCQL)

	assert.False(t, result.Valid)
	assertContainsSubstring(t, result.Errors, "undefined reference")
}

func TestValidateRemote_MergesWarningAnnotations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"annotations":[{"severity":"warning","message":"unused define"}]}`))
	}))
	defer srv.Close()

	rc := NewRemoteClient(srv.URL)
	result := rc.ValidateRemote(context.Background(), wellFormedCQL)

	require.True(t, result.Valid)
	assertContainsSubstring(t, result.Warnings, "unused define")
}

func TestValidateRemote_TransportErrorFallsBackToLocalResult(t *testing.T) {
	rc := NewRemoteClient("http://127.0.0.1:0")
	result := rc.ValidateRemote(context.Background(), wellFormedCQL)

	require.True(t, result.Valid, "local-only validity preserved when the translator is unreachable")
	assertContainsSubstring(t, result.Warnings, "SERVICE_UNAVAILABLE")
}

func TestValidateRemote_NonSuccessStatusIsTreatedAsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	rc := NewRemoteClient(srv.URL)
	result := rc.ValidateRemote(context.Background(), wellFormedCQL)

	require.True(t, result.Valid)
	assertContainsSubstring(t, result.Warnings, "SERVICE_UNAVAILABLE")
}
