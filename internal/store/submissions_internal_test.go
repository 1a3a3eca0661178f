package store

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNullString(t *testing.T) {
	cases := []struct {
		in   string
		want sql.NullString
	}{
		{"", sql.NullString{}},
		{"   \n\t", sql.NullString{}},
		{"plain", sql.NullString{String: "plain", Valid: true}},
		{"  keep my spacing\n", sql.NullString{String: "  keep my spacing\n", Valid: true}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, nullString(tc.in), "input %q", tc.in)
	}
}
