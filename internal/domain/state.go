package domain

// AppState is a point-in-time copy of one client-state container.
type AppState struct {
	SessionID string         `json:"session_id"`
	Session   SessionState   `json:"session"`
	Profile   ProfileState   `json:"profile"`
	Catalog   CatalogState   `json:"catalog"`
	History   HistoryState   `json:"history"`
	Flows     []FlowSnapshot `json:"flows"`
}

// Slice names a part of AppState in change events.
type Slice string

const (
	SliceSession Slice = "session"
	SliceProfile Slice = "profile"
	SliceCatalog Slice = "catalog"
	SliceHistory Slice = "history"
	SliceFlow    Slice = "flow"
)

// Event reports that a slice changed.
type Event struct {
	Slice  Slice  `json:"slice"`
	Action string `json:"action"`
}
