package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/huanghao-6/vePhone/internal/environment"
)

func validateEnvCommand() *cli.Command {
	return &cli.Command{
		Name:  "validate-env",
		Usage: "check API credentials and pod ids with one DetailPod round trip per pod",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "pod-id", Usage: "validate a single pod instead of POD_ID_LIST"},
			&cli.BoolFlag{Name: "pretty", Usage: "indent JSON output"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := environment.ReadEnvConfig()
			if err != nil {
				return err
			}

			ok, details, msg := validatePods(ctx, cfg, cmd.String("pod-id"))
			out := map[string]any{
				"ok":            ok,
				"error_message": msg,
				"DetailPod":     details,
			}
			if err := printJSON(out, cmd.Bool("pretty")); err != nil {
				return err
			}
			if !ok {
				return cli.Exit("environment validation via DetailPod failed", 2)
			}
			slog.Info("environment validated via DetailPod")
			return nil
		},
	}
}

// validatePods calls DetailPod for every pod and checks that the response
// is consistent with the configured identifiers. It returns the raw
// responses keyed by pod id so failures can be inspected.
func validatePods(ctx context.Context, cfg *environment.EnvConfig, podID string) (bool, map[string]any, string) {
	details := make(map[string]any)

	productID := strings.TrimSpace(cfg.ProductId)
	if productID == "" {
		return false, details, "PRODUCT_ID is empty, cannot validate via DetailPod"
	}

	podIDs := cfg.PodIdList
	if podID != "" {
		podIDs = []string{podID}
	}
	var pods []string
	for _, p := range podIDs {
		if p = strings.TrimSpace(p); p != "" {
			pods = append(pods, p)
		}
	}
	if len(pods) == 0 {
		return false, details, "no pod id given and POD_ID_LIST is empty"
	}

	slog.Info("validating environment via DetailPod", "product_id", productID, "pods", pods)

	client := newClient(cfg)
	for _, pid := range pods {
		resp, err := client.DetailPod(ctx, productID, pid)
		if err != nil {
			return false, details, fmt.Sprintf("DetailPod call failed for pod %s: %v", pid, err)
		}
		details[pid] = resp

		if errVal, ok := resp["Error"]; ok && errVal != nil {
			return false, details, fmt.Sprintf("DetailPod returned an error for pod %s: %v", pid, errorText(errVal))
		}

		payload := detailPayload(resp)
		if payload == nil {
			return false, details, fmt.Sprintf("DetailPod response for pod %s has no Result payload", pid)
		}

		if got := payloadString(payload, "pod_id", "PodId", "podId"); got != "" && got != pid {
			return false, details, fmt.Sprintf("DetailPod pod_id mismatch: requested %s, got %s", pid, got)
		}
		if got := payloadString(payload, "product_id", "ProductId", "productId"); got != "" && got != productID {
			return false, details, fmt.Sprintf("DetailPod product_id mismatch: configured %s, got %s", productID, got)
		}
		for _, key := range []string{"image_id", "ImageId"} {
			if v, ok := payload[key]; ok && strings.TrimSpace(fmt.Sprint(v)) == "" {
				return false, details, fmt.Sprintf("DetailPod returned an empty %s for pod %s", key, pid)
			}
		}
	}

	return true, details, ""
}

// detailPayload unwraps a DetailPod response: either {"Result": {...}} or
// the pod fields directly at the top level.
func detailPayload(resp map[string]any) map[string]any {
	if r, ok := resp["Result"].(map[string]any); ok {
		return r
	}
	for _, key := range []string{"pod_id", "PodId", "product_id", "ProductId"} {
		if _, ok := resp[key]; ok {
			return resp
		}
	}
	return nil
}

func payloadString(payload map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := payload[k]; ok && v != nil {
			if s := strings.TrimSpace(fmt.Sprint(v)); s != "" {
				return s
			}
		}
	}
	return ""
}

func errorText(v any) string {
	if m, ok := v.(map[string]any); ok {
		if msg, ok := m["Message"].(string); ok && msg != "" {
			return msg
		}
	}
	return fmt.Sprint(v)
}
