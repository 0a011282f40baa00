package types

import "github.com/shopspring/decimal"

// Account is a place money is held: a bank account, a wallet, a card.
type Account struct {
	RowMeta
	Name     string          `json:"name"`
	Emoji    string          `json:"emoji,omitempty"`
	Kind     string          `json:"kind,omitempty"`
	Currency string          `json:"currency,omitempty"`
	Balance  decimal.Decimal `json:"balance"`
}

// Record converts the account into column values for the accounts table.
func (a Account) Record() Record {
	return withID(Record{
		"name":     a.Name,
		"emoji":    a.Emoji,
		"kind":     a.Kind,
		"currency": a.Currency,
		"balance":  a.Balance,
	}, a.ID)
}

// AccountFromRecord hydrates an Account from an accounts row.
func AccountFromRecord(r Record) Account {
	return Account{
		RowMeta:  MetaFromRecord(r),
		Name:     r.String("name"),
		Emoji:    r.String("emoji"),
		Kind:     r.String("kind"),
		Currency: r.String("currency"),
		Balance:  r.Decimal("balance"),
	}
}
