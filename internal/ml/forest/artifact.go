package forest

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Artifact kinds.
const (
	KindRegressor = "regression_forest"
	KindIsolation = "isolation_forest"
)

const artifactVersion = 1

// Artifact is the JSON envelope persisted by the trainer and loaded by the server.
type Artifact struct {
	Kind      string             `json:"kind"`
	Version   int                `json:"version"`
	Features  []string           `json:"features"`
	TrainedAt time.Time          `json:"trained_at"`
	Rows      int                `json:"rows"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
	Regressor *RegressionForest  `json:"regressor,omitempty"`
	Isolation *IsolationForest   `json:"isolation,omitempty"`
}

// Save writes the artifact as indented JSON.
func (a *Artifact) Save(path string) error {
	a.Version = artifactVersion
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write artifact %s: %w", path, err)
	}
	return nil
}

// LoadArtifact reads an artifact and checks that it holds the expected kind.
func LoadArtifact(path, kind string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", path, err)
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode artifact %s: %w", path, err)
	}
	if a.Kind != kind {
		return nil, fmt.Errorf("artifact %s: kind %q, want %q", path, a.Kind, kind)
	}
	if a.Version != artifactVersion {
		return nil, fmt.Errorf("artifact %s: unsupported version %d", path, a.Version)
	}
	switch kind {
	case KindRegressor:
		if a.Regressor == nil {
			return nil, fmt.Errorf("artifact %s: missing regressor", path)
		}
		err = a.Regressor.Validate()
	case KindIsolation:
		if a.Isolation == nil {
			return nil, fmt.Errorf("artifact %s: missing isolation forest", path)
		}
		err = a.Isolation.Validate()
	}
	if err != nil {
		return nil, fmt.Errorf("artifact %s: %w", path, err)
	}
	return &a, nil
}
