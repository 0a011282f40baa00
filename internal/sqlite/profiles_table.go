package sqlite

import (
	"github.com/mesh-intelligence/tally/pkg/types"
)

// Profiles wraps the profiles table.
type Profiles struct {
	*Accessor
}

// Profiles returns the profiles wrapper.
func (s *Store) Profiles() Profiles {
	return Profiles{s.Table(types.TableProfiles)}
}

// Add inserts a profile without deduplication.
func (t Profiles) Add(p types.Profile) (int64, bool) {
	return t.Create(p.Record())
}

// Import adds profiles, reusing an existing row that shares the email or
// the phone. Only non-empty values take part in the match, so a candidate
// with neither is always inserted.
func (t Profiles) Import(profiles []types.Profile) []int64 {
	ids := []int64{}
	t.inBatch(func(ba *Accessor) error {
		bt := Profiles{ba}
		for _, p := range profiles {
			if id, ok := bt.match(p); ok {
				ids = append(ids, id)
				continue
			}
			if id, ok := bt.Create(p.Record()); ok {
				ids = append(ids, id)
			}
		}
		return nil
	})
	return ids
}

func (t Profiles) match(p types.Profile) (int64, bool) {
	var conds []Condition
	if p.Email != "" {
		conds = append(conds, Eq("email", p.Email))
	}
	if p.Phone != "" {
		c := Eq("phone", p.Phone)
		if len(conds) > 0 {
			c = Or(c)
		}
		conds = append(conds, c)
	}
	if len(conds) == 0 {
		return 0, false
	}
	recs := t.Find(conds...)
	if len(recs) == 0 {
		return 0, false
	}
	return recs[0].Int64(types.ColID), true
}

// List returns live profiles ordered by name.
func (t Profiles) List() []types.Profile {
	recs := t.list("list", "SELECT * FROM "+t.name, "ORDER BY name, id", NotDeleted())
	out := make([]types.Profile, len(recs))
	for i, r := range recs {
		out[i] = types.ProfileFromRecord(r)
	}
	return out
}

// Self returns the profile flagged as the user.
func (t Profiles) Self() (types.Profile, bool) {
	recs := t.list("self", "SELECT * FROM "+t.name, "ORDER BY id LIMIT 1",
		NotDeleted(), Eq("is_self", true))
	if len(recs) == 0 {
		return types.Profile{}, false
	}
	return types.ProfileFromRecord(recs[0]), true
}
