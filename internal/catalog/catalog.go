// Package catalog holds menu presentation helpers shared by the storefront
// and the staff POS.
package catalog

import (
	"sort"
	"strings"

	"cafe-pos-backend/internal/models"
)

// Pseudo categories understood by Filter.
const (
	All         = "All"
	Recommended = "Recommended"
)

// Categories returns the menu tabs: All, Recommended, then the stored
// category names in order.
func Categories(cats []models.Category) []string {
	out := []string{All, Recommended}
	for _, c := range cats {
		out = append(out, c.Name)
	}
	return out
}

// Filter keeps products in category whose name contains search, ignoring
// case. An empty category or All matches everything.
func Filter(products []models.Product, category, search string) []models.Product {
	search = strings.ToLower(strings.TrimSpace(search))
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		switch {
		case category == "" || strings.EqualFold(category, All):
		case category == Recommended:
			if !p.IsRecommended {
				continue
			}
		case p.Category != category:
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Sort orders recommended products first, then popular ones, keeping the
// stored order otherwise.
func Sort(products []models.Product) {
	rank := func(p models.Product) int {
		switch {
		case p.IsRecommended:
			return 0
		case p.IsPopular:
			return 1
		}
		return 2
	}
	sort.SliceStable(products, func(i, j int) bool {
		return rank(products[i]) < rank(products[j])
	})
}

// NewestFirst sorts orders by timestamp, latest first.
func NewestFirst(orders []models.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].Timestamp > orders[j].Timestamp
	})
}
