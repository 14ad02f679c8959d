package log

// Common field names for structured logging
const (
	FieldComponent    = "component"
	FieldRequestID    = "request_id"
	FieldClientIP     = "client_ip"
	FieldMethod       = "method"
	FieldPath         = "path"
	FieldStatusCode   = "status_code"
	FieldDuration     = "duration_ms"
	FieldError        = "error"
	FieldOperation    = "operation"
	FieldSettlementID = "settlement_id"
	FieldWeekEnd      = "week_end_date"
	FieldNetCents     = "net_income_cents"
)

// Components defines standard component names
const (
	ComponentApp        = "app"
	ComponentHTTP       = "http"
	ComponentStorage    = "storage"
	ComponentService    = "settlement"
	ComponentAMQP       = "amqp"
	ComponentWorker     = "worker"
	ComponentMirror     = "mirror"
)
