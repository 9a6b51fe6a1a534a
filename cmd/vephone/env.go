package main

import (
	"encoding/json"
	"fmt"

	"github.com/huanghao-6/vePhone/internal/environment"
	"github.com/huanghao-6/vePhone/internal/podapi"
)

func newClient(cfg *environment.EnvConfig) *podapi.Client {
	return podapi.NewClient(cfg.APIEndpoint, cfg.APIToken)
}

func printJSON(data any, pretty bool) error {
	var b []byte
	var err error
	if pretty {
		b, err = json.MarshalIndent(data, "", "  ")
	} else {
		b, err = json.Marshal(data)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Println(string(b))
	return nil
}
