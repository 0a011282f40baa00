package types

import "github.com/shopspring/decimal"

// Category kinds.
const (
	KindExpense = "expense"
	KindIncome  = "income"
)

// Category groups transactions for budgeting.
type Category struct {
	RowMeta
	Name   string          `json:"name"`
	Emoji  string          `json:"emoji,omitempty"`
	Kind   string          `json:"kind,omitempty"`
	Budget decimal.Decimal `json:"budget"`
}

// Record converts the category into column values.
func (c Category) Record() Record {
	return withID(Record{
		"name":   c.Name,
		"emoji":  c.Emoji,
		"kind":   c.Kind,
		"budget": c.Budget,
	}, c.ID)
}

// CategoryFromRecord hydrates a Category from a categories row.
func CategoryFromRecord(r Record) Category {
	return Category{
		RowMeta: MetaFromRecord(r),
		Name:    r.String("name"),
		Emoji:   r.String("emoji"),
		Kind:    r.String("kind"),
		Budget:  r.Decimal("budget"),
	}
}
