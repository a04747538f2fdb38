package advisory

import (
	"regexp"
	"strings"
)

const (
	reasonVerified    = "Verified Safe by AI"
	reasonFlagged     = "Flagged as unsafe/irrelevant by AI"
	reasonUnparseable = "AI parsing failed, requires human review"
)

var reasonPattern = regexp.MustCompile(`(?i)"reason":\s*"(.*?)"`)

// SafetyVerdict is the moderation decision for a knowledge tip.
type SafetyVerdict struct {
	IsSafe bool   `json:"is_safe"`
	Reason string `json:"reason"`
}

// ParseSafetyVerdict reads the model's verdict. Anything it cannot read is
// treated as unsafe.
func ParseSafetyVerdict(raw string) SafetyVerdict {
	s := strings.ReplaceAll(raw, "```json", "")
	s = strings.TrimSpace(strings.ReplaceAll(s, "```", ""))
	lower := strings.ToLower(s)

	switch {
	case strings.Contains(lower, `"safe": true`):
		return SafetyVerdict{IsSafe: true, Reason: reasonVerified}
	case strings.Contains(lower, `"safe": false`):
		reason := reasonFlagged
		if m := reasonPattern.FindStringSubmatch(s); m != nil {
			reason = m[1]
		}
		return SafetyVerdict{IsSafe: false, Reason: reason}
	}
	return SafetyVerdict{IsSafe: false, Reason: reasonUnparseable}
}
