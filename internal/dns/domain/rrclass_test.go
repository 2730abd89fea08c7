package domain

import (
	"testing"
)

func TestRRClass_String(t *testing.T) {
	cases := []struct {
		class RRClass
		want  string
	}{
		{RRClassIN, "IN"},
		{RRClassCH, "CH"},
		{RRClassHS, "HS"},
		{RRClassANY, "ANY"},
		{2, "UNKNOWN(2)"},
		{254, "UNKNOWN(254)"},
	}
	for _, tc := range cases {
		if got := tc.class.String(); got != tc.want {
			t.Errorf("RRClass(%d).String() = %q, want %q", tc.class, got, tc.want)
		}
	}
}
