package shared

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsSQLiteConflictError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("no such table: history"), false},
		{"busy text", errors.New("SQLITE_BUSY: database busy"), true},
		{"locked text", errors.New("database is locked (5)"), true},
		{"wrapped", fmt.Errorf("insert history: %w", errors.New("database is locked")), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsSQLiteConflictError(tc.err); got != tc.want {
				t.Fatalf("IsSQLiteConflictError(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
