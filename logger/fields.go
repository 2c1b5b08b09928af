package logger

// Standard field key constants for structured logging.
const (
	FieldComponent     = "component"
	FieldCorrelationID = "correlation_id"
	FieldDependency    = "dependency"
	FieldOperation     = "operation"
	FieldAttempt       = "attempt"
	FieldDelay         = "delay_ms"
	FieldState         = "state"
	FieldTier          = "tier"
	FieldKey           = "key"
	FieldStrategy      = "strategy"
	FieldError         = "error"
)

// Fields builds a map[string]interface{} from alternating key-value pairs.
//
//	logger.Info("retrying", logger.Fields("attempt", 2, "delay_ms", 400))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i < len(kvs)-1; i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}
