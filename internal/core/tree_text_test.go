package core

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestReadTree(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []TreePair
	}{
		{
			name:  "flat",
			input: "food\nbooks\n",
			want:  []TreePair{{"food", ""}, {"books", ""}},
		},
		{
			name:  "nested with dedent",
			input: "food\n  meat\nbooks",
			want:  []TreePair{{"food", ""}, {"meat", "food"}, {"books", ""}},
		},
		{
			name: "deep with blank lines and tabs",
			input: `
foodstuff
	meat
		raw meat

		meat products
	candies
books
clothing
`,
			want: []TreePair{
				{"foodstuff", ""},
				{"meat", "foodstuff"},
				{"raw meat", "meat"},
				{"meat products", "meat"},
				{"candies", "foodstuff"},
				{"books", ""},
				{"clothing", ""},
			},
		},
		{
			name:  "empty",
			input: "\n  \n",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadTree(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("ReadTree() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ReadTree() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReadTreeBadDedent(t *testing.T) {
	_, err := ReadTree(strings.NewReader("a\n    b\n  c\n"))
	if !errors.Is(err, ErrIndentation) {
		t.Fatalf("expected ErrIndentation, got %v", err)
	}
}
