package sqlite

import (
	"github.com/mesh-intelligence/tally/pkg/types"
)

// Categories wraps the categories table.
type Categories struct {
	*Accessor
}

// Categories returns the categories wrapper.
func (s *Store) Categories() Categories {
	return Categories{s.Table(types.TableCategories)}
}

// Add inserts a category. Names are unique.
func (t Categories) Add(c types.Category) (int64, bool) {
	return t.Create(c.Record())
}

// Import adds every category whose name is new, saving once, and returns
// ids for both added and existing categories.
func (t Categories) Import(categories []types.Category) []int64 {
	recs := make([]types.Record, len(categories))
	for i, c := range categories {
		recs[i] = c.Record()
	}
	return t.importByName(recs)
}

// List returns live categories ordered by name. An empty kind lists all.
func (t Categories) List(kind string) []types.Category {
	conds := []Condition{NotDeleted()}
	if kind != "" {
		conds = append(conds, Eq("kind", kind))
	}
	recs := t.list("list", "SELECT * FROM "+t.name, "ORDER BY name", conds...)
	out := make([]types.Category, len(recs))
	for i, r := range recs {
		out[i] = types.CategoryFromRecord(r)
	}
	return out
}

// ByName returns the category with the given name.
func (t Categories) ByName(name string) (types.Category, bool) {
	recs := t.Find(Eq("name", name))
	if len(recs) == 0 {
		return types.Category{}, false
	}
	return types.CategoryFromRecord(recs[0]), true
}
