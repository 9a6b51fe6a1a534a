package podapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/huanghao-6/vePhone/api"
	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, data any) {
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func TestClientSubmit(t *testing.T) {
	var gotAction, gotAuth string
	var gotBody api.SubmitParams

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAction = r.URL.Query().Get("Action")
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		writeJSON(w, map[string]any{"Result": map[string]any{"RunId": "run-42"}})
	}))
	defer server.Close()

	c := NewClient(server.URL, "secret")
	runID, err := c.Submit(context.Background(), api.RunAPIOneStep, api.SubmitParams{
		RunName:   "login",
		PodId:     "pod-1",
		ProductId: "prod-1",
		Timeout:   600,
	})
	require.NoError(t, err)
	require.Equal(t, "run-42", runID)
	require.Equal(t, "RunAgentTaskOneStep", gotAction)
	require.Equal(t, "Bearer secret", gotAuth)
	require.Equal(t, "pod-1", gotBody.PodId)

	_, err = c.Submit(context.Background(), api.RunAPITask, api.SubmitParams{})
	require.NoError(t, err)
	require.Equal(t, "RunAgentTask", gotAction)
}

func TestClientSubmitWithoutRunId(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"Result": map[string]any{}})
	}))
	defer server.Close()

	c := NewClient(server.URL, "")
	runID, err := c.Submit(context.Background(), api.RunAPIOneStep, api.SubmitParams{})
	require.NoError(t, err)
	require.Empty(t, runID)
}

func TestClientErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	c := NewClient(server.URL, "")
	_, err := c.CurrentStep(context.Background(), "run-1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "502")
}

func TestExtractRunIdTopLevel(t *testing.T) {
	require.Equal(t, "r1", extractRunId(map[string]any{"RunId": " r1 "}))
	require.Empty(t, extractRunId(nil))
	require.Empty(t, extractRunId(map[string]any{"Result": map[string]any{"RunId": "  "}}))
}

func TestPodInfoCacheMemoizes(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, map[string]any{"Result": map[string]any{
			"pod_id":       "pod-1",
			"aosp_version": "13",
			"image_name":   "base-image",
			"image_id":     "img-1",
		}})
	}))
	defer server.Close()

	cache := NewPodInfoCache(NewClient(server.URL, ""), "prod-1")

	info := cache.Get(context.Background(), "pod-1")
	require.Equal(t, "13", info.AospVersion)
	require.Equal(t, "base-image", info.ImageName)
	require.Equal(t, "img-1", info.ImageId)

	cache.Get(context.Background(), "pod-1")
	require.Equal(t, int64(1), calls.Load())
}

func TestPodInfoCacheToleratesFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer server.Close()

	cache := NewPodInfoCache(NewClient(server.URL, ""), "prod-1")
	require.Equal(t, api.PodInfo{}, cache.Get(context.Background(), "pod-1"))
}
