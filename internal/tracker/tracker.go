package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const APIKeyHeader = "x-api-key"

// RolloutStep is one step of a staged rollout.
type RolloutStep struct {
	RolloutPercentage int64 `json:"rollout_percentage" yaml:"rollout_percentage"`
	CooloffMinutes    int64 `json:"cooloff_minutes" yaml:"cooloff_minutes"`
	PodCount          int64 `json:"pod_count" yaml:"pod_count"`
}

// Release is the registration payload for a new artifact version.
type Release struct {
	RequestID       string        `json:"request_id"`
	Services        []string      `json:"services"`
	ReleaseManager  string        `json:"release_manager"`
	NewVersion      string        `json:"new_version"`
	DockerTag       string        `json:"docker_tag"`
	Priority        int64         `json:"priority"`
	ClusterID       string        `json:"cluster_id"`
	Approved        bool          `json:"approved"`
	AutoDeploy      bool          `json:"auto_deploy"`
	RolloutStrategy []RolloutStep `json:"rollout_strategy"`
	ChangeLog       string        `json:"change_log"`
	ProductID       string        `json:"product_id"`
	Mode            string        `json:"mode"`
	Environment     string        `json:"environment"`
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Register records the release with the rollout tracker. It is fired
// once per successful, version-changed run on the target branch.
func (c *Client) Register(ctx context.Context, release Release) error {
	body, err := json.Marshal(release)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/api/v1/releases",
		bytes.NewReader(body),
	)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(APIKeyHeader, c.apiKey)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("err registering release: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf(
			"rollout tracker returned %d: %s",
			res.StatusCode, string(snippet),
		)
	}
	return nil
}
