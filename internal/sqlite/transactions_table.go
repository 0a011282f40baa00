package sqlite

import (
	"strconv"
	"time"

	"github.com/mesh-intelligence/tally/pkg/types"
)

// transactionView denormalizes category and account onto each transaction.
const transactionView = `SELECT t.*,
	c.name AS category_name, c.emoji AS category_emoji,
	a.name AS account_name, a.emoji AS account_emoji
FROM transactions t
LEFT JOIN categories c ON c.id = t.category_id
LEFT JOIN accounts a ON a.id = t.account_id`

// Transactions wraps the transactions table.
type Transactions struct {
	*Accessor
}

// Transactions returns the transactions wrapper.
func (s *Store) Transactions() Transactions {
	return Transactions{s.Table(types.TableTransactions)}
}

// Add inserts a transaction.
func (t Transactions) Add(tx types.Transaction) (int64, bool) {
	return t.Create(tx.Record())
}

// GetByYearMonth returns live transactions dated in the given year and
// zero-indexed month (0 = January), newest first, with category and
// account inlined.
func (t Transactions) GetByYearMonth(year, month int) []types.TransactionView {
	return t.views("by year-month", newestFirst, NotDeletedIn("t"), YearMonth("t.date", year, month))
}

// Between returns live transactions dated within [from, to], newest first.
func (t Transactions) Between(from, to time.Time) []types.TransactionView {
	return t.views("between", newestFirst, NotDeletedIn("t"), Between("t.date", from, to))
}

// Recent returns the newest live transactions, at most limit; limit <= 0
// returns all of them.
func (t Transactions) Recent(limit int) []types.TransactionView {
	suffix := newestFirst
	if limit > 0 {
		suffix += " LIMIT " + strconv.Itoa(limit)
	}
	return t.views("recent", suffix, NotDeletedIn("t"))
}

const newestFirst = "ORDER BY t.date DESC, t.id DESC"

func (t Transactions) views(op, suffix string, conds ...Condition) []types.TransactionView {
	if t.name == "" {
		return []types.TransactionView{}
	}
	recs := t.list(op, transactionView, suffix, conds...)
	out := make([]types.TransactionView, len(recs))
	for i, r := range recs {
		out[i] = types.TransactionViewFromRecord(r)
	}
	return out
}
