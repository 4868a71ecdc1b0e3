package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldTable       = "table"
	FieldPK          = "pk"
	FieldPosition    = "position"
	FieldCategory    = "category"
	FieldBudgetType  = "budget_type"
	FieldAmountMinor = "amount_minor"
	FieldCount       = "count"
	FieldBackend     = "backend"
	FieldDBPath      = "db_path"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentStorage   = "storage"
	ComponentBackend   = "backend"
	ComponentPresenter = "presenter"
	ComponentBudget    = "budget"
	ComponentView      = "view"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpCascade  = "cascade"
	OpSeed     = "seed"
	OpValidate = "validate"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithRecord adds the table and key of a stored record.
func (f LogFields) WithRecord(table string, pk int64) LogFields {
	f[FieldTable] = table
	f[FieldPK] = pk
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
