package documents

import (
	"fmt"
	"strings"
)

// Category is a kind of vehicle document
type Category string

const (
	CategoryRC        Category = "rc"
	CategoryInsurance Category = "insurance"
	CategoryFitness   Category = "fitness"
	CategoryTax       Category = "tax"
	CategoryPermit    Category = "permit"
	CategoryPUC       Category = "puc"
)

// Categories lists every document category in display order
var Categories = []Category{
	CategoryRC,
	CategoryInsurance,
	CategoryFitness,
	CategoryTax,
	CategoryPermit,
	CategoryPUC,
}

// ParseCategory accepts a category name in any case
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return c, nil
}

// Valid reports whether c is one of Categories
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Column is the vehicles table column holding the category's paths
func (c Category) Column() string {
	return string(c) + "_documents"
}

func (c Category) String() string {
	return string(c)
}
