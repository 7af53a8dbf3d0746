package entity

// IgnoreActionType is the kind of history entry an ignore action applies to.
type IgnoreActionType string

const (
	IgnoreActionTrade               IgnoreActionType = "trade"
	IgnoreActionAssetMovement       IgnoreActionType = "asset_movement"
	IgnoreActionEthereumTransaction IgnoreActionType = "ethereum_transaction"
	IgnoreActionLedgerAction        IgnoreActionType = "ledger_action"
)

// IgnoreActionPayload is sent to the backend to (un)ignore entries in accounting.
type IgnoreActionPayload struct {
	ActionIDs []string         `json:"action_ids"`
	Type      IgnoreActionType `json:"action_type"`
}

// HistoryEntry is a selectable history row.
type HistoryEntry struct {
	Identifier          string `json:"identifier"`
	IgnoredInAccounting bool   `json:"ignored_in_accounting"`
}
