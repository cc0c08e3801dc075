package logger

// Field keys shared by every package so that log lines of one run can be
// filtered on the same names.
const (
	FieldComponent = "component"
	FieldRunID     = "run_id"
	FieldIndex     = "index"
	FieldURL       = "url"
	FieldKey       = "key"
	FieldWorker    = "worker"
	FieldOperation = "operation"
	FieldStatus    = "status"
	FieldError     = "error"
	FieldCode      = "code"
	FieldBytes     = "bytes"
	FieldDuration  = "duration_ms"
)

// Fields builds a field map from alternating key-value pairs. Pairs with a
// non-string key and a trailing odd value are dropped.
//
//	log.Debug("stored", logger.Fields(logger.FieldIndex, 4, logger.FieldKey, "4.jpg"))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i+1 < len(kvs); i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// ItemFields identifies one input of a run.
func ItemFields(index int, url string) map[string]interface{} {
	return map[string]interface{}{FieldIndex: index, FieldURL: url}
}

// Extend adds pairs to fields in place and returns it. A nil map is allocated.
func Extend(fields map[string]interface{}, kvs ...interface{}) map[string]interface{} {
	if fields == nil {
		fields = make(map[string]interface{}, len(kvs)/2)
	}
	for k, v := range Fields(kvs...) {
		fields[k] = v
	}
	return fields
}

// MergeWithError sets the error field on fields. A nil err leaves it unset.
func MergeWithError(fields map[string]interface{}, err error) map[string]interface{} {
	if err == nil {
		return Extend(fields)
	}
	return Extend(fields, FieldError, err.Error())
}
