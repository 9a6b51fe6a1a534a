package podapi

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/huanghao-6/vePhone/api"
	"github.com/puzpuzpuz/xsync/v3"
)

// PodInfoCache memoizes DetailPod lookups per pod id for the process
// lifetime. Lookup failures are not cached so a later case can still pick
// the metadata up.
type PodInfoCache struct {
	client    TaskClient
	productID string
	infos     *xsync.MapOf[string, api.PodInfo]
}

func NewPodInfoCache(client TaskClient, productID string) *PodInfoCache {
	return &PodInfoCache{
		client:    client,
		productID: productID,
		infos:     xsync.NewMapOf[string, api.PodInfo](),
	}
}

// Get returns the pod's image metadata. On any failure it returns a zero
// PodInfo; callers treat the fields as optional.
func (p *PodInfoCache) Get(ctx context.Context, podID string) api.PodInfo {
	if podID == "" {
		return api.PodInfo{}
	}
	if info, ok := p.infos.Load(podID); ok {
		return info
	}

	resp, err := p.client.DetailPod(ctx, p.productID, podID)
	if err != nil {
		slog.Warn("DetailPod lookup failed", "pod_id", podID, "error", err)
		return api.PodInfo{}
	}

	info, err := PodInfoFromDetail(resp)
	if err != nil {
		slog.Warn("DetailPod payload unusable", "pod_id", podID, "error", err)
		return api.PodInfo{}
	}

	p.infos.Store(podID, info)
	return info
}

// PodInfoFromDetail extracts image metadata from a DetailPod response. The
// payload may sit under a Result envelope or directly at top level.
func PodInfoFromDetail(resp map[string]any) (api.PodInfo, error) {
	payload := resp
	if result, ok := resp["Result"].(map[string]any); ok {
		payload = result
	}
	if payload == nil {
		return api.PodInfo{}, fmt.Errorf("empty DetailPod response")
	}

	info := api.PodInfo{
		AospVersion: detailField(payload, "aosp_version", "AospVersion"),
		ImageName:   detailField(payload, "image_name", "ImageName"),
		ImageId:     detailField(payload, "image_id", "ImageId"),
	}
	if info == (api.PodInfo{}) {
		return info, fmt.Errorf("DetailPod payload carries no image metadata")
	}
	return info, nil
}

func detailField(payload map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := payload[k].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
