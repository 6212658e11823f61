package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldOperation  = "operation"

	FieldUserID      = "user_id"
	FieldPeriod      = "period"
	FieldDebtID      = "debt_id"
	FieldCategory    = "category"
	FieldAmountCents = "amount_cents"
	FieldStrategy    = "strategy"
	FieldReportID    = "report_id"
	FieldChargeID    = "charge_id"
	FieldConfidence  = "confidence"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentPlanner  = "planner"
	ComponentBudget   = "budget"
	ComponentDetector = "detector"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
	ComponentSheets   = "sheets"
	ComponentCache    = "cache"
	ComponentTrace    = "trace"
	ComponentCron     = "cron"
)
