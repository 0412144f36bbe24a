package visits

import (
	"net"
	"strings"

	"github.com/mileusna/useragent"
)

// Classification is coarse device information derived from a user agent.
type Classification struct {
	Device  string
	OS      string
	Browser string
}

// Classify parses a raw user-agent string into coarse categories. Absent
// or unparseable input yields the Unknown sentinel for every field; this
// never fails.
func Classify(rawUA string) Classification {
	rawUA = strings.TrimSpace(rawUA)
	if rawUA == "" {
		return Classification{Device: Unknown, OS: Unknown, Browser: Unknown}
	}

	ua := useragent.Parse(rawUA)
	if ua.Name == "" && ua.OS == "" {
		return Classification{Device: Unknown, OS: Unknown, Browser: Unknown}
	}

	classification := Classification{
		Device:  "desktop",
		OS:      ua.OS,
		Browser: ua.Name,
	}

	switch {
	case ua.Mobile:
		classification.Device = "mobile"
	case ua.Tablet:
		classification.Device = "tablet"
	case ua.Bot:
		classification.Device = "bot"
	}

	if classification.OS == "" {
		classification.OS = Unknown
	}

	if classification.Browser == "" {
		classification.Browser = Unknown
	}

	return classification
}

// NormalizeIP cleans a raw client address: the first entry of a
// forwarded-address chain wins, and an IPv6-embedded IPv4 address
// (e.g. "::ffff:1.2.3.4") is reduced to its IPv4 form.
func NormalizeIP(raw string) string {
	if idx := strings.Index(raw, ","); idx != -1 {
		raw = raw[:idx]
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	if ip := net.ParseIP(raw); ip != nil {
		if v4 := ip.To4(); v4 != nil {
			return v4.String()
		}

		return ip.String()
	}

	// Not a bare IP; strip anything up to the last colon (ports,
	// malformed v6-mapped prefixes).
	if idx := strings.LastIndex(raw, ":"); idx != -1 {
		return raw[idx+1:]
	}

	return raw
}
