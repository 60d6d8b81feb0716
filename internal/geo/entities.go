package geo

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"solarintel/internal/models"
)

//go:embed entities.yaml
var defaultEntitiesYAML []byte

// Entity list errors.
var (
	ErrNoEntities       = errors.New("entity list is empty")
	ErrEntityName       = errors.New("entity name is required")
	ErrEntityCoordinate = errors.New("entity coordinate out of range")
)

type entityFile struct {
	Entities []models.LocatedEntity `yaml:"entities"`
}

// LoadEntities reads an entity list from path, or the embedded competitor
// headquarters when path is empty.
func LoadEntities(path string) ([]models.LocatedEntity, error) {
	data := defaultEntitiesYAML

	if path != "" {
		var err error

		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read entities file: %w", err)
		}
	}

	return ParseEntities(data)
}

// ParseEntities decodes and validates an entity list. The poles are rejected.
func ParseEntities(data []byte) ([]models.LocatedEntity, error) {
	var f entityFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse entities: %w", err)
	}

	if len(f.Entities) == 0 {
		return nil, ErrNoEntities
	}

	for i, e := range f.Entities {
		if e.Name == "" {
			return nil, fmt.Errorf("entity[%d]: %w", i, ErrEntityName)
		}

		if e.Lat <= -90 || e.Lat >= 90 || e.Lon < -180 || e.Lon > 180 {
			return nil, fmt.Errorf("entity[%d] %s: %w", i, e.Name, ErrEntityCoordinate)
		}
	}

	return f.Entities, nil
}
