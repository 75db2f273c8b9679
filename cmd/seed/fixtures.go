package main

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/spec-kit/item-service/internal/api/dto"
	"github.com/spec-kit/item-service/internal/domain"
)

//go:embed items.yaml
var defaultFixtures []byte

type fixtureFile struct {
	Items []map[string]any `yaml:"items"`
}

// loadFixtures reads the fixture file at path, or the embedded defaults when
// path is empty. Each entry is validated with the same rules as POST /items.
func loadFixtures(path string) ([]domain.ItemFields, error) {
	raw := defaultFixtures
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read fixtures: %w", err)
		}
		raw = data
	}
	return parseFixtures(raw)
}

func parseFixtures(raw []byte) ([]domain.ItemFields, error) {
	var file fixtureFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}

	result := make([]domain.ItemFields, 0, len(file.Items))
	for i, entry := range file.Items {
		body, err := json.Marshal(entry)
		if err != nil {
			return nil, fmt.Errorf("fixture %d: %w", i, err)
		}
		fields, err := dto.ParseItemFields(body)
		if err != nil {
			return nil, fmt.Errorf("fixture %d: %w", i, err)
		}
		result = append(result, fields)
	}
	return result, nil
}
