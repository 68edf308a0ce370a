// Package seed fills a SQLite interaction database from a YAML fixture or
// from generated data so the command surface can be exercised locally.
package seed

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrInvalidFixture marks a fixture that fails validation.
var ErrInvalidFixture = errors.New("invalid fixture")

// Fixture is the on-disk seed format:
//
//	users: [u1, u2]
//	products:
//	  - id: p1
//	    status: active
//	interactions:
//	  - user: u1
//	    product: p1
//	    action: purchase
//	    weight: 5   # optional, defaults by action
type Fixture struct {
	Users        []string      `yaml:"users"        validate:"dive,required"`
	Products     []Product     `yaml:"products"     validate:"dive"`
	Interactions []Interaction `yaml:"interactions" validate:"dive"`
}

// Product is one catalogue entry. Only active products are counted.
type Product struct {
	ID     string `yaml:"id"     validate:"required"`
	Status string `yaml:"status"`
}

// Interaction is one recorded actor action on a product.
type Interaction struct {
	User    string   `yaml:"user"    validate:"required"`
	Product string   `yaml:"product" validate:"required"`
	Action  string   `yaml:"action"  validate:"required"`
	Weight  *float64 `yaml:"weight"  validate:"omitempty,gt=0"`
}

// LoadFixture reads and validates the fixture at path.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return ParseFixture(data)
}

// ParseFixture decodes and validates a YAML fixture.
func ParseFixture(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFixture, err)
	}
	if err := validator.New().Struct(&f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFixture, err)
	}
	for i := range f.Products {
		if f.Products[i].Status == "" {
			f.Products[i].Status = StatusActive
		}
	}
	return &f, nil
}
