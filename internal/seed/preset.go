package seed

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"watermyplant/internal/middleware"
	"watermyplant/internal/models"

	"gopkg.in/yaml.v3"
)

// Preset describes fixed demo accounts, usually loaded from seed.yml.
type Preset struct {
	Users []PresetUser `yaml:"users"`
}

type PresetUser struct {
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	Active   *bool         `yaml:"active"`
	Plants   []PresetPlant `yaml:"plants"`
}

type PresetPlant struct {
	Name        string  `yaml:"name"`
	Type        string  `yaml:"type"`
	Description *string `yaml:"description"`
	// Waterings is the number of generated history entries.
	Waterings int `yaml:"waterings"`
}

// ParsePreset decodes a YAML preset.
func ParsePreset(data []byte) (*Preset, error) {
	var p Preset
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse preset: %w", err)
	}
	for i, u := range p.Users {
		if u.Username == "" {
			return nil, fmt.Errorf("preset user %d has no username", i)
		}
		for j, pl := range u.Plants {
			if pl.Name == "" || pl.Type == "" {
				return nil, fmt.Errorf("preset user %s plant %d needs a name and a type", u.Username, j)
			}
		}
	}
	return &p, nil
}

// LoadPreset reads and decodes the preset file at path.
func LoadPreset(path string) (*Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read preset: %w", err)
	}
	return ParsePreset(data)
}

// ApplyPreset creates the preset's users and plants. Existing users and
// plants are left as they are, so applying a preset twice is harmless.
func (s *Seeder) ApplyPreset(ctx context.Context, p *Preset) (Summary, error) {
	var sum Summary

	for _, pu := range p.Users {
		user, err := s.users.GetByUsername(ctx, pu.Username)
		if err != nil {
			return sum, err
		}
		if user == nil {
			user, err = s.factory.CreateUser(ctx, pu.Username, pu.Password)
			if err != nil {
				return sum, fmt.Errorf("create user %s: %w", pu.Username, err)
			}
			sum.Users++
		}

		if pu.Active != nil && *pu.Active != user.IsActive {
			if _, err := s.users.SetActive(ctx, pu.Username, *pu.Active); err != nil {
				return sum, err
			}
		}

		for _, pp := range pu.Plants {
			plant, err := s.factory.CreatePlant(ctx, user, &models.Plant{
				Name:        pp.Name,
				Type:        pp.Type,
				Description: pp.Description,
			})
			if models.HasCode(err, models.CodePlantNameTaken) {
				continue
			}
			if err != nil {
				return sum, fmt.Errorf("create plant %s: %w", pp.Name, err)
			}
			sum.Plants++

			n, err := s.factory.CreateWateringHistory(ctx, user, plant, pp.Waterings)
			sum.Waterings += n
			if err != nil {
				return sum, err
			}
		}
	}

	middleware.Logger.InfoContext(ctx, "preset applied",
		slog.Int("users", sum.Users),
		slog.Int("plants", sum.Plants),
		slog.Int("waterings", sum.Waterings),
	)
	return sum, nil
}
