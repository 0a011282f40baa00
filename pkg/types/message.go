package types

import "github.com/shopspring/decimal"

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of the chat-style log. It may reference the
// transaction, category and account it produced.
type Message struct {
	RowMeta
	Role          string `json:"role"`
	Content       string `json:"content"`
	TransactionID *int64 `json:"transaction_id,omitempty"`
	CategoryID    *int64 `json:"category_id,omitempty"`
	AccountID     *int64 `json:"account_id,omitempty"`
}

// Record converts the message into column values.
func (m Message) Record() Record {
	return withID(Record{
		"role":           m.Role,
		"content":        m.Content,
		"transaction_id": optionalID(m.TransactionID),
		"category_id":    optionalID(m.CategoryID),
		"account_id":     optionalID(m.AccountID),
	}, m.ID)
}

// MessageFromRecord hydrates a Message from a messages row.
func MessageFromRecord(r Record) Message {
	return Message{
		RowMeta:       MetaFromRecord(r),
		Role:          r.String("role"),
		Content:       r.String("content"),
		TransactionID: r.NullInt64("transaction_id"),
		CategoryID:    r.NullInt64("category_id"),
		AccountID:     r.NullInt64("account_id"),
	}
}

// MessageView is a message with its references denormalized.
type MessageView struct {
	Message
	TransactionAmount decimal.Decimal `json:"transaction_amount"`
	TransactionNote   string          `json:"transaction_note,omitempty"`
	CategoryName      string          `json:"category_name,omitempty"`
	CategoryEmoji     string          `json:"category_emoji,omitempty"`
	AccountName       string          `json:"account_name,omitempty"`
	AccountEmoji      string          `json:"account_emoji,omitempty"`
}

// MessageViewFromRecord hydrates a joined message row.
func MessageViewFromRecord(r Record) MessageView {
	return MessageView{
		Message:           MessageFromRecord(r),
		TransactionAmount: r.Decimal("transaction_amount"),
		TransactionNote:   r.String("transaction_note"),
		CategoryName:      r.String("category_name"),
		CategoryEmoji:     r.String("category_emoji"),
		AccountName:       r.String("account_name"),
		AccountEmoji:      r.String("account_emoji"),
	}
}
