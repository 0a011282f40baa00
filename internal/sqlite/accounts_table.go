package sqlite

import (
	"github.com/mesh-intelligence/tally/pkg/types"
)

// Accounts wraps the accounts table.
type Accounts struct {
	*Accessor
}

// Accounts returns the accounts wrapper.
func (s *Store) Accounts() Accounts {
	return Accounts{s.Table(types.TableAccounts)}
}

// Add inserts an account. Names are unique; a duplicate yields (0, false).
func (t Accounts) Add(a types.Account) (int64, bool) {
	return t.Create(a.Record())
}

// Import adds every account whose name is new and returns the ids of the
// added and already existing accounts. The image is saved once.
func (t Accounts) Import(accounts []types.Account) []int64 {
	recs := make([]types.Record, len(accounts))
	for i, a := range accounts {
		recs[i] = a.Record()
	}
	return t.importByName(recs)
}

// List returns live accounts ordered by name.
func (t Accounts) List() []types.Account {
	recs := t.list("list", "SELECT * FROM "+t.name, "ORDER BY name", NotDeleted())
	out := make([]types.Account, len(recs))
	for i, r := range recs {
		out[i] = types.AccountFromRecord(r)
	}
	return out
}

// ByName returns the account with the given name, deleted or not.
func (t Accounts) ByName(name string) (types.Account, bool) {
	recs := t.Find(Eq("name", name))
	if len(recs) == 0 {
		return types.Account{}, false
	}
	return types.AccountFromRecord(recs[0]), true
}
