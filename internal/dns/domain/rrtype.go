package domain

import "fmt"

// RRType is a DNS resource record type. The relay only synthesizes A and AAAA
// answers; everything else is forwarded, so the table below covers the types
// worth naming in logs rather than the full IANA registry.
type RRType uint16

const (
	RRTypeA     RRType = 1   // IPv4 address
	RRTypeNS    RRType = 2   // name server
	RRTypeCNAME RRType = 5   // canonical name
	RRTypeSOA   RRType = 6   // start of authority
	RRTypePTR   RRType = 12  // pointer
	RRTypeMX    RRType = 15  // mail exchange
	RRTypeTXT   RRType = 16  // text
	RRTypeAAAA  RRType = 28  // IPv6 address
	RRTypeSRV   RRType = 33  // service
	RRTypeOPT   RRType = 41  // EDNS option
	RRTypeHTTPS RRType = 65  // HTTPS binding
	RRTypeANY   RRType = 255 // any type, query only
)

var rrTypeNames = map[RRType]string{
	RRTypeA:     "A",
	RRTypeNS:    "NS",
	RRTypeCNAME: "CNAME",
	RRTypeSOA:   "SOA",
	RRTypePTR:   "PTR",
	RRTypeMX:    "MX",
	RRTypeTXT:   "TXT",
	RRTypeAAAA:  "AAAA",
	RRTypeSRV:   "SRV",
	RRTypeOPT:   "OPT",
	RRTypeHTTPS: "HTTPS",
	RRTypeANY:   "ANY",
}

// String returns the textual representation of the RRType. Unknown types
// render as UNKNOWN(<value>); they still relay fine, they just log uglier.
func (t RRType) String() string {
	if name, ok := rrTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", t)
}
