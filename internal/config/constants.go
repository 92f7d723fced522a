package config

// Database types
const (
	PostgresDbType = "postgres"
	SqliteDbType   = "sqlite"
)

// Log level constants
const (
	LogLevelInfo     = "info"
	LogLevelDebug    = "debug"
	LogLevelError    = "error"
	LogLevelWarning  = "warning"
	LogLevelCritical = "critical"
)

// Log type constants
const (
	LogTypeConsole = "console"
	LogTypeFile    = "file"
)

// Storage backends
const (
	StorageTypeLocal    = "local"
	StorageTypeSupabase = "supabase"
)

// Built-in n8n workflow names
const (
	WorkflowCreatorApplication  = "creator_application"
	WorkflowCreatorStatusChange = "creator_status_change"
	WorkflowScriptAssigned      = "script_assigned"
	WorkflowContractSigned      = "contract_signed"
)
