package podapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/huanghao-6/vePhone/api"
)

// Remote action names
const (
	actionRunAgentTask        = "RunAgentTask"
	actionRunAgentTaskOneStep = "RunAgentTaskOneStep"
	actionListCurrentStep     = "ListAgentRunCurrentStep"
	actionGetAgentResult      = "GetAgentResult"
	actionCancelAgentTask     = "CancelAgentTask"
	actionDetailPod           = "DetailPod"
)

const apiVersion = "2023-10-30"

// Client is the HTTP implementation of TaskClient.
type Client struct {
	endpoint string
	token    string
	client   *http.Client
}

// NewClient creates a client for the given API endpoint. The token is sent
// as a bearer credential on every request.
func NewClient(endpoint, token string) *Client {
	return &Client{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		token:    token,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (c *Client) Submit(ctx context.Context, runAPI string, params api.SubmitParams) (string, error) {
	action := actionRunAgentTaskOneStep
	if runAPI == api.RunAPITask {
		action = actionRunAgentTask
	}

	resp, err := c.call(ctx, action, params)
	if err != nil {
		return "", err
	}
	return extractRunId(resp), nil
}

func (c *Client) CurrentStep(ctx context.Context, runID string) (map[string]any, error) {
	return c.call(ctx, actionListCurrentStep, map[string]any{"RunId": runID})
}

func (c *Client) Result(ctx context.Context, runID string, detail bool) (map[string]any, error) {
	return c.call(ctx, actionGetAgentResult, map[string]any{"RunId": runID, "IsDetail": detail})
}

func (c *Client) Cancel(ctx context.Context, runID string) (map[string]any, error) {
	return c.call(ctx, actionCancelAgentTask, map[string]any{"RunId": runID})
}

func (c *Client) DetailPod(ctx context.Context, productID, podID string) (map[string]any, error) {
	return c.call(ctx, actionDetailPod, map[string]any{"ProductId": productID, "PodId": podID})
}

func (c *Client) call(ctx context.Context, action string, body any) (map[string]any, error) {
	q := url.Values{}
	q.Set("Action", action)
	q.Set("Version", apiVersion)

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s request: %w", action, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"?"+q.Encode(), bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", action, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", action, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", action, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s returned HTTP %d: %s", action, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var out map[string]any
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, &out); err != nil {
			return nil, fmt.Errorf("failed to decode %s response: %w", action, err)
		}
	}
	return out, nil
}

// extractRunId digs the run id out of a submission response, accepting both
// an enveloped {"Result":{"RunId":...}} and a top-level RunId.
func extractRunId(resp map[string]any) string {
	if resp == nil {
		return ""
	}
	if result, ok := resp["Result"].(map[string]any); ok {
		if id, ok := result["RunId"].(string); ok && strings.TrimSpace(id) != "" {
			return strings.TrimSpace(id)
		}
	}
	if id, ok := resp["RunId"].(string); ok {
		return strings.TrimSpace(id)
	}
	return ""
}
