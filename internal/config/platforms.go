package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"
)

// PlatformSeed — платформа из файла начальной конфигурации.
type PlatformSeed struct {
	Kind                  string
	Name                  string
	Symbol                string
	Network               *string
	MinAmount             *decimal.Decimal
	MaxAmount             *decimal.Decimal
	Fee                   *decimal.Decimal
	IsActive              *bool
	IconURL               *string
	IconClass             *string
	RequiredConfirmations *int
}

// Суммы в YAML задаются строками, чтобы не терять точность.
type platformYAML struct {
	Kind                  string  `yaml:"kind"`
	Name                  string  `yaml:"name"`
	Symbol                string  `yaml:"symbol"`
	Network               *string `yaml:"network"`
	MinAmount             *string `yaml:"min_amount"`
	MaxAmount             *string `yaml:"max_amount"`
	Fee                   *string `yaml:"fee"`
	IsActive              *bool   `yaml:"is_active"`
	IconURL               *string `yaml:"icon_url"`
	IconClass             *string `yaml:"icon_class"`
	RequiredConfirmations *int    `yaml:"required_confirmations"`
}

type platformsFile struct {
	Platforms []platformYAML `yaml:"platforms"`
}

// LoadPlatformSeeds читает YAML со списком платформ.
func LoadPlatformSeeds(path string) ([]PlatformSeed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: не удалось прочитать %s: %w", path, err)
	}
	return ParsePlatformSeeds(data)
}

func ParsePlatformSeeds(data []byte) ([]PlatformSeed, error) {
	var file platformsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("config: не удалось разобрать файл платформ: %w", err)
	}

	seeds := make([]PlatformSeed, 0, len(file.Platforms))
	for i, p := range file.Platforms {
		if strings.TrimSpace(p.Kind) == "" || strings.TrimSpace(p.Symbol) == "" {
			return nil, fmt.Errorf("config: платформа #%d: kind и symbol обязательны", i)
		}

		seed := PlatformSeed{
			Kind:                  p.Kind,
			Name:                  p.Name,
			Symbol:                p.Symbol,
			Network:               p.Network,
			IsActive:              p.IsActive,
			IconURL:               p.IconURL,
			IconClass:             p.IconClass,
			RequiredConfirmations: p.RequiredConfirmations,
		}
		if seed.Name == "" {
			seed.Name = p.Symbol
		}

		for field, pair := range map[string]struct {
			raw *string
			dst **decimal.Decimal
		}{
			"min_amount": {p.MinAmount, &seed.MinAmount},
			"max_amount": {p.MaxAmount, &seed.MaxAmount},
			"fee":        {p.Fee, &seed.Fee},
		} {
			if pair.raw == nil {
				continue
			}
			d, err := decimal.NewFromString(strings.TrimSpace(*pair.raw))
			if err != nil {
				return nil, fmt.Errorf("config: платформа %s: поле %s: %w", p.Symbol, field, err)
			}
			*pair.dst = &d
		}

		seeds = append(seeds, seed)
	}
	return seeds, nil
}
