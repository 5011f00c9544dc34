package klog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/klogstore/klog/pkg/ringstore"
)

// FileConfig is the YAML-serializable form of a Facade's configuration.
type FileConfig struct {
	Path          string `yaml:"path"`
	MaxBytes      int32  `yaml:"maxBytes"`
	FormatVersion int32  `yaml:"formatVersion"`
	DedupEnabled  *bool  `yaml:"dedupEnabled"`
}

// LoadConfig reads and parses a YAML config file, applying the same
// defaults LogConfig carries (formatVersion 1, dedup enabled).
func LoadConfig(path string) (FileConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return FileConfig{}, fmt.Errorf("klog: read config %s: %w", path, err)
	}

	var fc FileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return FileConfig{}, fmt.Errorf("klog: parse config %s: %w", path, err)
	}

	if fc.FormatVersion == 0 {
		fc.FormatVersion = 1
	}
	if fc.DedupEnabled == nil {
		enabled := true
		fc.DedupEnabled = &enabled
	}

	return fc, nil
}

// RingConfig converts the file config into the ringstore.LogConfig the
// Ring Store expects.
func (fc FileConfig) RingConfig() ringstore.LogConfig {
	dedup := true
	if fc.DedupEnabled != nil {
		dedup = *fc.DedupEnabled
	}
	return ringstore.LogConfig{
		MaxBytes:      fc.MaxBytes,
		FormatVersion: fc.FormatVersion,
		DedupEnabled:  dedup,
	}
}
