package visits_test

import (
	"testing"

	"github.com/linkpulse/linkpulse/internal/visits"
	"github.com/stretchr/testify/assert"
)

const (
	chromeWindowsUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	iphoneUA = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 " +
		"(KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
	ipadUA = "Mozilla/5.0 (iPad; CPU OS 16_6 like Mac OS X) AppleWebKit/605.1.15 " +
		"(KHTML, like Gecko) Version/16.6 Mobile/15E148 Safari/604.1"
	googlebotUA = "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"
)

func TestClassify(t *testing.T) {
	t.Run("classifies a desktop browser", func(t *testing.T) {
		c := visits.Classify(chromeWindowsUA)

		assert.Equal(t, "desktop", c.Device)
		assert.Equal(t, "Windows", c.OS)
		assert.Equal(t, "Chrome", c.Browser)
	})

	t.Run("classifies a phone as mobile", func(t *testing.T) {
		c := visits.Classify(iphoneUA)

		assert.Equal(t, "mobile", c.Device)
		assert.Equal(t, "iOS", c.OS)
	})

	t.Run("classifies a tablet", func(t *testing.T) {
		c := visits.Classify(ipadUA)

		assert.Equal(t, "tablet", c.Device)
	})

	t.Run("classifies a crawler as bot", func(t *testing.T) {
		c := visits.Classify(googlebotUA)

		assert.Equal(t, "bot", c.Device)
	})

	t.Run("empty user agent yields unknown everywhere", func(t *testing.T) {
		for _, raw := range []string{"", "   "} {
			c := visits.Classify(raw)

			assert.Equal(t, visits.Unknown, c.Device)
			assert.Equal(t, visits.Unknown, c.OS)
			assert.Equal(t, visits.Unknown, c.Browser)
		}
	})

	t.Run("unparseable user agent yields unknown everywhere", func(t *testing.T) {
		c := visits.Classify("definitely-not-a-browser")

		assert.Equal(t, visits.Unknown, c.Device)
		assert.Equal(t, visits.Unknown, c.OS)
		assert.Equal(t, visits.Unknown, c.Browser)
	})
}

func TestNormalizeIP(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"plain ipv4", "203.0.113.9", "203.0.113.9"},
		{"ipv6-mapped ipv4", "::ffff:203.0.113.9", "203.0.113.9"},
		{"forwarded chain keeps first hop", "203.0.113.9, 10.0.0.1, 10.0.0.2", "203.0.113.9"},
		{"forwarded chain with mapped first hop", "::ffff:203.0.113.9, 10.0.0.1", "203.0.113.9"},
		{"ipv6 passes through", "2001:db8::1", "2001:db8::1"},
		{"empty input", "", ""},
		{"whitespace only", "   ", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, visits.NormalizeIP(tc.raw))
		})
	}
}
