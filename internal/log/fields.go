package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldSessionID       = "session_id"
	FieldCorrelationID   = "correlation_id"
	FieldRequestID       = "request_id"
	FieldClientRequestID = "client_request_id"

	// Dispatch fields (internal/runtime's Action/reduce loop)
	FieldAction  = "action"
	FieldChanged = "changed"

	// Process / component fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Addon fields
	FieldAddonID      = "addon_id"
	FieldTransportURL = "transport_url"
	FieldMetaID       = "meta_id"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"
)
