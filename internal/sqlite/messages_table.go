package sqlite

import (
	"github.com/mesh-intelligence/tally/pkg/types"
)

// messageView follows each message to the transaction, category and
// account it references.
const messageView = `SELECT m.*,
	t.amount AS transaction_amount, t.note AS transaction_note,
	c.name AS category_name, c.emoji AS category_emoji,
	a.name AS account_name, a.emoji AS account_emoji
FROM messages m
LEFT JOIN transactions t ON t.id = m.transaction_id
LEFT JOIN categories c ON c.id = m.category_id
LEFT JOIN accounts a ON a.id = m.account_id`

// Messages wraps the messages table.
type Messages struct {
	*Accessor
}

// Messages returns the messages wrapper.
func (s *Store) Messages() Messages {
	return Messages{s.Table(types.TableMessages)}
}

// Add appends a message and additionally emits createMessage.
func (t Messages) Add(m types.Message) (int64, bool) {
	id, ok := t.Create(m.Record())
	if ok {
		t.store.bus.Emit(types.EventCreateMessage)
	}
	return id, ok
}

// Log returns live messages in insertion order with their references
// denormalized.
func (t Messages) Log() []types.MessageView {
	if t.name == "" {
		return []types.MessageView{}
	}
	recs := t.list("log", messageView, "ORDER BY m.id", NotDeletedIn("m"))
	out := make([]types.MessageView, len(recs))
	for i, r := range recs {
		out[i] = types.MessageViewFromRecord(r)
	}
	return out
}

// Get returns every message row joined with its references. Unlike the
// plain accessor read it always performs the join.
func (t Messages) Get() []types.Record {
	if t.name == "" {
		return []types.Record{}
	}
	return t.list("get", messageView, "ORDER BY m.id")
}
