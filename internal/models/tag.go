package models

import "regexp"

// Tag is the opaque identifier read from a physical RFID wristband.
// Accepted formats are an explicit contract: either colon-separated hex
// octets as produced by the hardware readers (e.g. "04:A7:B3:C2:D1:E0:F5",
// at least four octets) or a short 6-20 character alphanumeric code as used
// by printed fallback badges. Equality is exact string match; tags are
// never normalised after a scan.
type Tag string

var (
	hexOctetTag     = regexp.MustCompile(`^[0-9A-Fa-f]{2}(:[0-9A-Fa-f]{2}){3,}$`)
	alphanumericTag = regexp.MustCompile(`^[0-9A-Za-z_-]{6,20}$`)
)

// Valid reports whether the tag matches one of the accepted formats.
func (t Tag) Valid() bool {
	s := string(t)
	if s == "" {
		return false
	}
	return hexOctetTag.MatchString(s) || alphanumericTag.MatchString(s)
}

func (t Tag) String() string {
	return string(t)
}
