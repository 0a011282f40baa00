package types

import "github.com/shopspring/decimal"

// Transfer directions, seen from the user.
const (
	DirectionLent     = "lent"     // The profile owes the user.
	DirectionBorrowed = "borrowed" // The user owes the profile.
)

// Transfer records a share of money moving between the user and a profile,
// either a split of a transaction or a standalone loan.
type Transfer struct {
	RowMeta
	TransactionID *int64          `json:"transaction_id,omitempty"`
	ProfileID     int64           `json:"profile_id"`
	Amount        decimal.Decimal `json:"amount"`
	Direction     string          `json:"direction"`
	Settled       bool            `json:"settled"`
}

// Record converts the transfer into column values.
func (t Transfer) Record() Record {
	return withID(Record{
		"transaction_id": optionalID(t.TransactionID),
		"profile_id":     t.ProfileID,
		"amount":         t.Amount,
		"direction":      t.Direction,
		"settled":        t.Settled,
	}, t.ID)
}

// TransferFromRecord hydrates a Transfer from a transfers row.
func TransferFromRecord(r Record) Transfer {
	return Transfer{
		RowMeta:       MetaFromRecord(r),
		TransactionID: r.NullInt64("transaction_id"),
		ProfileID:     r.Int64("profile_id"),
		Amount:        r.Decimal("amount"),
		Direction:     r.String("direction"),
		Settled:       r.Bool("settled"),
	}
}

// TransferView is a transfer with the profile name inlined.
type TransferView struct {
	Transfer
	ProfileName string `json:"profile_name"`
}

// Balance is the net open amount between the user and one profile.
// Positive means the profile owes the user.
type Balance struct {
	ProfileID   int64           `json:"profile_id"`
	ProfileName string          `json:"profile_name"`
	Net         decimal.Decimal `json:"net"`
}
