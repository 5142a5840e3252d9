package device

import (
	"strings"
	"unicode/utf8"
)

const (
	maxDescriptorLen = 255
	unknownDevice    = "Unknown device"
)

// Descriptor derives the stored device description from a client user-agent string.
func Descriptor(userAgent string) string {
	ua := strings.TrimSpace(userAgent)
	if ua == "" {
		return unknownDevice
	}
	if len(ua) <= maxDescriptorLen {
		return ua
	}
	cut := maxDescriptorLen
	for cut > 0 && !utf8.RuneStart(ua[cut]) {
		cut--
	}
	return ua[:cut]
}
