// This file holds helpers shared by the domain table wrappers.
package sqlite

import (
	"github.com/mesh-intelligence/tally/pkg/types"
)

// inBatch runs fn with an accessor whose saves are deferred to one store
// batch. A zero accessor, or one already in a batch, runs fn directly.
func (a *Accessor) inBatch(fn func(ba *Accessor) error) error {
	if a.store == nil || a.batch != nil {
		return fn(a)
	}
	return a.store.Batch(func(b *Batch) error {
		return fn(a.in(b))
	})
}

// list runs a filtered, ordered read and degrades on failure.
func (a *Accessor) list(op, query, suffix string, conds ...Condition) []types.Record {
	recs, err := a.retrieve(query, suffix, conds...)
	if err != nil {
		a.degrade(op, err)
		return []types.Record{}
	}
	return recs
}

// importByName inserts each candidate unless a row with the same
// name exists, returning the ids of new and reused rows in candidate
// order. Candidates that fail are logged and left out.
func (a *Accessor) importByName(candidates []types.Record) []int64 {
	ids := []int64{}
	a.inBatch(func(ba *Accessor) error {
		for _, rec := range candidates {
			name := rec.String("name")
			if existing := ba.Find(Eq("name", name)); len(existing) > 0 {
				ids = append(ids, existing[0].Int64(types.ColID))
				continue
			}
			if id, ok := ba.Create(rec); ok {
				ids = append(ids, id)
			}
		}
		return nil
	})
	return ids
}
