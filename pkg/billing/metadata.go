package billing

import (
	"strings"
)

// Metadata keys written at checkout and read back from every later event.
// They are part of the external contract and must not change.
const (
	MetadataUserID = "clerkUserId"
	MetadataPlan   = "planType"
)

// Correlation links a provider object back to a local user.
type Correlation struct {
	UserID string
	Plan   string
}

// CorrelationFromMetadata reads the correlation keys from provider metadata.
// Values are trimmed; missing keys yield empty fields.
func CorrelationFromMetadata(md map[string]string) Correlation {
	return Correlation{
		UserID: strings.TrimSpace(md[MetadataUserID]),
		Plan:   strings.TrimSpace(md[MetadataPlan]),
	}
}

// CorrelationFromAny is CorrelationFromMetadata for loosely typed metadata
// such as Paddle custom_data. Non-string values are ignored.
func CorrelationFromAny(md map[string]any) Correlation {
	str := func(k string) string {
		s, _ := md[k].(string)
		return strings.TrimSpace(s)
	}
	return Correlation{UserID: str(MetadataUserID), Plan: str(MetadataPlan)}
}

// HasUser reports whether the user id is present.
func (c Correlation) HasUser() bool { return c.UserID != "" }

// Metadata renders c as provider metadata.
func (c Correlation) Metadata() map[string]string {
	return map[string]string{
		MetadataUserID: c.UserID,
		MetadataPlan:   c.Plan,
	}
}

// IsEntitledStatus reports whether a provider subscription status grants
// access. Only "active" and "trialing" do; every other status, including
// past_due, paused, unpaid and incomplete, does not.
func IsEntitledStatus(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "active", "trialing":
		return true
	default:
		return false
	}
}
