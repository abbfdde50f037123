package log

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldRequestID = "request_id"
	FieldClientIP  = "client_ip"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldDuration  = "duration_ms"
	FieldError     = "error"
	FieldOperation = "operation"
	FieldItemID    = "item_id"
	FieldItemName  = "item_name"
	FieldGold      = "gold"
	FieldRecords   = "records"
	FieldKey       = "key"
	FieldDate      = "date"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentWorker  = "worker"
	ComponentAMQP    = "amqp"
	ComponentStore   = "store"
	ComponentPricing = "pricing"
	ComponentSheet   = "sheet"
	ComponentLedger  = "ledger"
	ComponentCache   = "cache"
)
