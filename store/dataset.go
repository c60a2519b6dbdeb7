package store

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
)

//go:embed seed.json
var seedJSON []byte

var validate = validator.New(validator.WithRequiredStructEnabled())

// SeedDataset returns the two posts and three comments the services ship with.
func SeedDataset() Dataset {
	var ds Dataset
	if err := json.Unmarshal(seedJSON, &ds); err != nil {
		panic(fmt.Sprintf("store: embedded seed is broken: %v", err))
	}
	return ds
}

// LoadDataset reads a dataset from path. An empty path yields SeedDataset.
// Files ending in .yaml or .yml are decoded as YAML, everything else as JSON.
func LoadDataset(path string) (Dataset, error) {
	if path == "" {
		return SeedDataset(), nil
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return Dataset{}, err
	}

	var ds Dataset
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(src, &ds)
	default:
		err = json.Unmarshal(src, &ds)
	}
	if err != nil {
		return Dataset{}, fmt.Errorf("failed to decode dataset %s: %w", path, err)
	}

	if err := ValidateDataset(ds); err != nil {
		return Dataset{}, fmt.Errorf("invalid dataset %s: %w", path, err)
	}

	return ds, nil
}

// ValidateDataset checks identifiers are non-negative and unique per collection.
func ValidateDataset(ds Dataset) error {
	return validate.Struct(ds)
}
