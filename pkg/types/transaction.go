package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a single income or expense entry.
type Transaction struct {
	RowMeta
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency,omitempty"`
	Kind       string          `json:"kind,omitempty"`
	Date       time.Time       `json:"date"`
	Note       string          `json:"note,omitempty"`
	CategoryID *int64          `json:"category_id,omitempty"`
	AccountID  *int64          `json:"account_id,omitempty"`
}

// Record converts the transaction into column values.
func (t Transaction) Record() Record {
	return withID(Record{
		"amount":      t.Amount,
		"currency":    t.Currency,
		"kind":        t.Kind,
		"date":        t.Date,
		"note":        t.Note,
		"category_id": optionalID(t.CategoryID),
		"account_id":  optionalID(t.AccountID),
	}, t.ID)
}

// TransactionFromRecord hydrates a Transaction from a transactions row.
func TransactionFromRecord(r Record) Transaction {
	return Transaction{
		RowMeta:    MetaFromRecord(r),
		Amount:     r.Decimal("amount"),
		Currency:   r.String("currency"),
		Kind:       r.String("kind"),
		Date:       r.Time("date"),
		Note:       r.String("note"),
		CategoryID: r.NullInt64("category_id"),
		AccountID:  r.NullInt64("account_id"),
	}
}

// TransactionView is a transaction with its category and account inlined
// for display.
type TransactionView struct {
	Transaction
	CategoryName  string `json:"category_name,omitempty"`
	CategoryEmoji string `json:"category_emoji,omitempty"`
	AccountName   string `json:"account_name,omitempty"`
	AccountEmoji  string `json:"account_emoji,omitempty"`
}

// TransactionViewFromRecord hydrates a joined transaction row.
func TransactionViewFromRecord(r Record) TransactionView {
	return TransactionView{
		Transaction:   TransactionFromRecord(r),
		CategoryName:  r.String("category_name"),
		CategoryEmoji: r.String("category_emoji"),
		AccountName:   r.String("account_name"),
		AccountEmoji:  r.String("account_emoji"),
	}
}
