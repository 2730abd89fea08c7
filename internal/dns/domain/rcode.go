package domain

import "fmt"

// RCode is the 4-bit response code carried in the message header. The relay
// sets NOERROR and NXDOMAIN itself and passes every upstream code through
// untouched; the rest of the table exists for logging.
type RCode uint8

const (
	RCodeNoError  RCode = 0 // no error
	RCodeFormErr  RCode = 1 // format error
	RCodeServFail RCode = 2 // server failure
	RCodeNXDomain RCode = 3 // name does not exist
	RCodeNotImp   RCode = 4 // not implemented
	RCodeRefused  RCode = 5 // query refused
)

var rcodeNames = map[RCode]string{
	RCodeNoError:  "NOERROR",
	RCodeFormErr:  "FORMERR",
	RCodeServFail: "SERVFAIL",
	RCodeNXDomain: "NXDOMAIN",
	RCodeNotImp:   "NOTIMP",
	RCodeRefused:  "REFUSED",
	6:             "YXDOMAIN",
	7:             "YXRRSET",
	8:             "NXRRSET",
	9:             "NOTAUTH",
	10:            "NOTZONE",
}

// String returns the textual representation of the RCode.
func (r RCode) String() string {
	if name, ok := rcodeNames[r]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", r)
}
