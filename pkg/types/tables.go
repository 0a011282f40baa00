package types

// Table names of the well-known domain slots. The store binds an accessor
// for each of these when the schema declares it.
const (
	TableAccounts     = "accounts"
	TableCategories   = "categories"
	TableTransactions = "transactions"
	TableMessages     = "messages"
	TableProfiles     = "profiles"
	TableConfig       = "config"
)

// TableTransfers is not a well-known slot; its accessor is built on demand.
const TableTransfers = "transfers"

// WellKnownTables lists the domain slots bound during schema initialization.
var WellKnownTables = []string{
	TableAccounts,
	TableCategories,
	TableTransactions,
	TableMessages,
	TableProfiles,
	TableConfig,
}

// Common column names injected into every table.
const (
	ColID         = "id"
	ColCreatedAt  = "created_at"
	ColUpdatedAt  = "updated_at"
	ColDeleted    = "deleted"
	ColSyncStatus = "sync_status"
)

// Change operations carried in event names ("<table>.<op>").
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// EventCreateMessage is emitted by the messages wrapper in addition to
// "messages.create".
const EventCreateMessage = "createMessage"

// EventName returns the change notification name for a table operation.
func EventName(table, op string) string {
	return table + "." + op
}
