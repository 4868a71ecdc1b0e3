package log

import (
	"errors"
	"testing"
)

func TestLogFields(t *testing.T) {
	tests := []struct {
		name   string
		fields LogFields
		want   map[string]any
	}{
		{
			name:   "record",
			fields: NewFields().WithOperation(OpUpdate).WithRecord("Expense", 7),
			want:   map[string]any{FieldOperation: OpUpdate, FieldTable: "Expense", FieldPK: int64(7)},
		},
		{
			name:   "error",
			fields: NewFields().WithOperation("add expense").WithError(errors.New("boom")),
			want:   map[string]any{FieldOperation: "add expense", FieldError: "boom"},
		},
		{
			name:   "nil error is omitted",
			fields: NewFields().WithError(nil),
			want:   map[string]any{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slice := tt.fields.ToSlice()
			if len(slice) != 2*len(tt.want) {
				t.Fatalf("ToSlice() = %v, want %d pairs", slice, len(tt.want))
			}
			for i := 0; i < len(slice); i += 2 {
				key, ok := slice[i].(string)
				if !ok {
					t.Fatalf("ToSlice()[%d] = %v, want a string key", i, slice[i])
				}
				if want, ok := tt.want[key]; !ok || want != slice[i+1] {
					t.Errorf("ToSlice() %s = %v, want %v", key, slice[i+1], want)
				}
			}
		})
	}
}
