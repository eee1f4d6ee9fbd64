package prompt

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadPersonaFile reads a PersonaConfig from a JSON file in the data
// directory. A missing file is not an error; defaults apply.
func LoadPersonaFile(path string) (*PersonaConfig, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &PersonaConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read persona config: %w", err)
	}

	var cfg PersonaConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse persona config: %w", err)
	}
	return &cfg, nil
}
