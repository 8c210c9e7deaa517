package internal

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/haatos/shipci/internal/tracker"
)

// Registry is one push target. The canonical setup is four: sandbox
// and production, each in two regions.
type Registry struct {
	Name        string `yaml:"name"`
	Host        string `yaml:"host"`
	Environment string `yaml:"environment"`
	Region      string `yaml:"region"`
}

// BuilderConfig points stage commands at a remote builder over SSH.
// When nil, commands run on the local host.
type BuilderConfig struct {
	Host       string `yaml:"host"`
	Username   string `yaml:"username"`
	Credential string `yaml:"credential"`
}

type TrackerConfig struct {
	URL             string                `yaml:"url"`
	Services        []string              `yaml:"services"`
	ReleaseManager  string                `yaml:"release_manager"`
	Priority        int64                 `yaml:"priority"`
	ClusterID       string                `yaml:"cluster_id"`
	Approved        bool                  `yaml:"approved"`
	AutoDeploy      bool                  `yaml:"auto_deploy"`
	RolloutStrategy []tracker.RolloutStep `yaml:"rollout_strategy"`
	ProductID       string                `yaml:"product_id"`
	Mode            string                `yaml:"mode"`
	Environment     string                `yaml:"environment"`
}

type SlackConfig struct {
	Channel string `yaml:"channel"`
}

type Commands struct {
	Format string `yaml:"format"`
	Test   string `yaml:"test"`
}

type ReleaseConfig struct {
	TargetBranch    string         `yaml:"target_branch"`
	Workdir         string         `yaml:"workdir"`
	ImageRepository string         `yaml:"image_repository"`
	Commands        Commands       `yaml:"commands"`
	Registries      []Registry     `yaml:"registries"`
	Builder         *BuilderConfig `yaml:"builder,omitempty"`
	Tracker         TrackerConfig  `yaml:"tracker"`
	Slack           SlackConfig    `yaml:"slack"`
	TimeoutMinutes  int64          `yaml:"timeout_minutes"`
}

func ReadReleaseConfig(path string) (*ReleaseConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("err reading release config: %w", err)
	}
	rc := new(ReleaseConfig)
	if err := yaml.Unmarshal(b, rc); err != nil {
		return nil, fmt.Errorf("err unmarshaling release config: %w", err)
	}
	if err := rc.Validate(); err != nil {
		return nil, err
	}
	return rc, nil
}

func (rc *ReleaseConfig) Validate() error {
	var errs []error
	if rc.TargetBranch == "" {
		errs = append(errs, errors.New("target_branch is required"))
	}
	if rc.ImageRepository == "" {
		errs = append(errs, errors.New("image_repository is required"))
	}
	if rc.Commands.Test == "" {
		errs = append(errs, errors.New("commands.test is required"))
	}
	if len(rc.Registries) != 4 {
		errs = append(errs, fmt.Errorf("expected 4 registries, got %d", len(rc.Registries)))
	}
	environments := map[string]bool{}
	hosts := map[string]bool{}
	for _, registry := range rc.Registries {
		if hosts[registry.Host] {
			errs = append(errs, fmt.Errorf("duplicate registry host %s", registry.Host))
		}
		hosts[registry.Host] = true
		environments[registry.Environment] = true
	}
	if len(rc.Registries) > 0 && (!environments["sandbox"] || !environments["production"]) {
		errs = append(errs, errors.New("registries must cover sandbox and production"))
	}
	return errors.Join(errs...)
}

// Timeout is the wall clock budget for a whole pipeline run.
func (rc *ReleaseConfig) Timeout() time.Duration {
	if rc.TimeoutMinutes <= 0 {
		return 20 * time.Minute
	}
	return time.Duration(rc.TimeoutMinutes) * time.Minute
}
