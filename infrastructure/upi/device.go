package upi

import "strings"

// DeviceDetector decides whether a request comes from a device that can open
// upi:// links directly.
type DeviceDetector interface {
	IsMobile(userAgent string) bool
}

// DefaultMobileTokens are matched case-insensitively against the user agent.
var DefaultMobileTokens = []string{
	"Android",
	"webOS",
	"iPhone",
	"iPad",
	"iPod",
	"BlackBerry",
	"IEMobile",
	"Opera Mini",
}

// UserAgentDetector matches user agent substrings.
type UserAgentDetector struct {
	tokens []string
}

func NewUserAgentDetector(tokens ...string) *UserAgentDetector {
	if len(tokens) == 0 {
		tokens = DefaultMobileTokens
	}
	lowered := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			lowered = append(lowered, t)
		}
	}
	return &UserAgentDetector{tokens: lowered}
}

func (d *UserAgentDetector) IsMobile(userAgent string) bool {
	ua := strings.ToLower(userAgent)
	for _, t := range d.tokens {
		if strings.Contains(ua, t) {
			return true
		}
	}
	return false
}

// DetectorFunc adapts a function to DeviceDetector.
type DetectorFunc func(userAgent string) bool

func (f DetectorFunc) IsMobile(userAgent string) bool { return f(userAgent) }
