package sqlite

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mesh-intelligence/tally/pkg/types"
)

const transferView = `SELECT tr.*, p.name AS profile_name
FROM transfers tr
JOIN profiles p ON p.id = tr.profile_id`

// Transfers wraps the transfers table, which has no well-known slot; its
// accessor is built on demand from the schema.
type Transfers struct {
	*Accessor
}

// Transfers returns the transfers wrapper.
func (s *Store) Transfers() Transfers {
	return Transfers{s.Table(types.TableTransfers)}
}

// Add records a transfer. Direction must be lent or borrowed.
func (t Transfers) Add(tr types.Transfer) (int64, bool) {
	if tr.Direction != types.DirectionLent && tr.Direction != types.DirectionBorrowed {
		t.logger().Warn("invalid transfer direction", "direction", tr.Direction)
		return 0, false
	}
	return t.Create(tr.Record())
}

// ByProfile returns the live transfers with one profile, newest first.
func (t Transfers) ByProfile(profileID int64) []types.TransferView {
	return t.views("by profile", NotDeletedIn("tr"), Eq("tr.profile_id", profileID))
}

// Open returns every live unsettled transfer.
func (t Transfers) Open() []types.TransferView {
	return t.views("open", NotDeletedIn("tr"), Eq("tr.settled", false))
}

func (t Transfers) views(op string, conds ...Condition) []types.TransferView {
	if t.name == "" {
		return []types.TransferView{}
	}
	recs := t.list(op, transferView, "ORDER BY tr.created_at DESC, tr.id DESC", conds...)
	out := make([]types.TransferView, len(recs))
	for i, r := range recs {
		out[i] = types.TransferView{
			Transfer:    types.TransferFromRecord(r),
			ProfileName: r.String("profile_name"),
		}
	}
	return out
}

// Balances nets the open transfers per profile, ordered by profile name.
// Lent amounts count positive, borrowed negative. Profiles whose transfers
// cancel out are omitted.
func (t Transfers) Balances() []types.Balance {
	byProfile := make(map[int64]*types.Balance)
	for _, v := range t.Open() {
		b, ok := byProfile[v.ProfileID]
		if !ok {
			b = &types.Balance{ProfileID: v.ProfileID, ProfileName: v.ProfileName, Net: decimal.Zero}
			byProfile[v.ProfileID] = b
		}
		if v.Direction == types.DirectionLent {
			b.Net = b.Net.Add(v.Amount)
		} else {
			b.Net = b.Net.Sub(v.Amount)
		}
	}

	out := make([]types.Balance, 0, len(byProfile))
	for _, b := range byProfile {
		if !b.Net.IsZero() {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProfileName != out[j].ProfileName {
			return out[i].ProfileName < out[j].ProfileName
		}
		return out[i].ProfileID < out[j].ProfileID
	})
	return out
}

// Settle marks an existing transfer settled.
func (t Transfers) Settle(id int64) bool {
	if _, ok := t.ByID(id); !ok {
		t.logger().Warn("transfer not found", "id", id)
		return false
	}
	return t.Update(types.Record{types.ColID: id, "settled": true})
}
