package domain

import "fmt"

// RRClass is a DNS class. Local answers are only ever synthesized for IN;
// queries in any other class are forwarded untouched.
type RRClass uint16

const (
	RRClassIN  RRClass = 1   // Internet
	RRClassCH  RRClass = 3   // Chaos
	RRClassHS  RRClass = 4   // Hesiod
	RRClassANY RRClass = 255 // any class, query only
)

var rrClassNames = map[RRClass]string{
	RRClassIN:  "IN",
	RRClassCH:  "CH",
	RRClassHS:  "HS",
	RRClassANY: "ANY",
}

// String returns the textual representation of the RRClass.
func (c RRClass) String() string {
	if name, ok := rrClassNames[c]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", c)
}
