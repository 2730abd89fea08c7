package utils

import "strings"

// CanonicalDNSName returns a DNS name in the form the hosts table is keyed by:
// lowercased, trimmed of surrounding whitespace, and with trailing dots
// removed. Wire-decoded names, hosts-file names, and blacklist names all pass
// through here, so equality on the result is equality of the DNS name.
func CanonicalDNSName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.TrimRight(name, ".")
}
