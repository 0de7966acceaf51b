package vectors

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadHashVectors loads hash test vectors from a JSON file.
func LoadHashVectors(filename string) ([]HashVector, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("proofmap/vectors: read %s: %w", filename, err)
	}
	var out []HashVector
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("proofmap/vectors: unmarshal hash vectors: %w", err)
	}
	return out, nil
}

// LoadScenarioVectors loads scenario test vectors from a JSON file.
func LoadScenarioVectors(filename string) ([]ScenarioVector, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("proofmap/vectors: read %s: %w", filename, err)
	}
	var out []ScenarioVector
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("proofmap/vectors: unmarshal scenario vectors: %w", err)
	}
	return out, nil
}
