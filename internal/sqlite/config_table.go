package sqlite

import (
	"github.com/mesh-intelligence/tally/pkg/types"
)

// ConfigTable wraps the key/value config table.
type ConfigTable struct {
	*Accessor
}

// Config returns the config table wrapper.
func (s *Store) Config() ConfigTable {
	return ConfigTable{s.Table(types.TableConfig)}
}

// Get returns the value stored under key.
func (t ConfigTable) Get(key string) (string, bool) {
	recs := t.Find(Eq("key", key), NotDeleted())
	if len(recs) == 0 {
		return "", false
	}
	return recs[0].String("value"), true
}

// Set creates or overwrites key. A soft-deleted key is revived.
func (t ConfigTable) Set(key, value string) bool {
	recs := t.Find(Eq("key", key))
	if len(recs) == 0 {
		_, ok := t.Create(types.Record{"key": key, "value": value})
		return ok
	}
	return t.Update(types.Record{
		types.ColID:      recs[0].Int64(types.ColID),
		"value":          value,
		types.ColDeleted: false,
	})
}

// All returns live settings ordered by key.
func (t ConfigTable) All() []types.Setting {
	recs := t.list("all", "SELECT * FROM "+t.name, "ORDER BY key", NotDeleted())
	out := make([]types.Setting, len(recs))
	for i, r := range recs {
		out[i] = types.SettingFromRecord(r)
	}
	return out
}
