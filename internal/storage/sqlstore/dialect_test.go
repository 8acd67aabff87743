package sqlstore

import "testing"

func TestDollarRebind(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", ""},
		{"SELECT 1", "SELECT 1"},
		{"UPDATE s SET a = ? WHERE b = ?", "UPDATE s SET a = $1 WHERE b = $2"},
		{"VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", "VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)"},
	}
	for _, tc := range cases {
		if got := DollarRebind(tc.in); got != tc.want {
			t.Errorf("DollarRebind(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
