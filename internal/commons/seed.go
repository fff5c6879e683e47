// Package commons loads the development fixtures used by cmd/seed.
package commons

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"logiledger/internal/domain"
	"logiledger/internal/location"
)

type Seed struct {
	Users            []SeedUser        `yaml:"users"`
	ConsignmentSeeds []SeedConsignment `yaml:"consignments"`
}

type SeedUser struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Role        string `yaml:"role"`
	CompanyName string `yaml:"companyName"`
	Location    string `yaml:"location"`
}

type SeedConsignment struct {
	Title          string  `yaml:"title"`
	Origin         string  `yaml:"origin"`
	Destination    string  `yaml:"destination"`
	GoodsType      string  `yaml:"goodsType"`
	Weight         float64 `yaml:"weight"`
	DeadlineInDays int     `yaml:"deadlineInDays"`
	Budget         float64 `yaml:"budget"`
	Description    string  `yaml:"description"`
	CompanyID      string  `yaml:"companyId"`
}

func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}

	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}

	if err := seed.validate(); err != nil {
		return nil, err
	}
	return &seed, nil
}

func (s *Seed) validate() error {
	users := make(map[string]SeedUser, len(s.Users))
	for _, u := range s.Users {
		if u.ID == "" || !domain.Role(u.Role).Valid() {
			return fmt.Errorf("seed user %q: id and a role of company or msme are required", u.Name)
		}
		users[u.ID] = u
	}

	for _, c := range s.ConsignmentSeeds {
		owner, ok := users[c.CompanyID]
		if !ok || domain.Role(owner.Role) != domain.RoleCompany {
			return fmt.Errorf("seed consignment %q: companyId %q is not a seeded company", c.Title, c.CompanyID)
		}
		if c.Weight <= 0 || c.Budget <= 0 || c.DeadlineInDays <= 0 {
			return fmt.Errorf("seed consignment %q: weight, budget and deadlineInDays must be positive", c.Title)
		}
	}
	return nil
}

func (u SeedUser) Caller() domain.Caller {
	return domain.Caller{
		ID:          u.ID,
		Role:        domain.Role(u.Role),
		Name:        u.Name,
		CompanyName: u.CompanyName,
		Location:    u.Location,
	}
}

// Consignments builds open consignments with deadlines relative to now.
func (s *Seed) Consignments(now time.Time) []domain.Consignment {
	names := make(map[string]string, len(s.Users))
	for _, u := range s.Users {
		names[u.ID] = u.Caller().DisplayCompany()
	}

	out := make([]domain.Consignment, 0, len(s.ConsignmentSeeds))
	for _, c := range s.ConsignmentSeeds {
		goodsType := c.GoodsType
		if goodsType == "" {
			goodsType = domain.DefaultGoodsType
		}
		description := c.Description
		if description == "" {
			description = domain.DefaultDescription
		}

		out = append(out, domain.Consignment{
			Title:       c.Title,
			Origin:      location.Canonicalize(c.Origin),
			Destination: location.Canonicalize(c.Destination),
			GoodsType:   goodsType,
			Weight:      c.Weight,
			Deadline:    now.AddDate(0, 0, c.DeadlineInDays),
			Budget:      c.Budget,
			Description: description,
			Status:      domain.ConsignmentStatusOpen,
			CompanyID:   c.CompanyID,
			CompanyName: names[c.CompanyID],
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	return out
}
