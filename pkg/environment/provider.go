// Package environment implements the Environment Provider (C3): builds
// the attribute bag describing the request itself rather than the
// subject or resource involved in it (spec.md §4.3).
package environment

import (
	"strconv"
	"time"
)

// reserved env keys, per spec.md §6.3. Caller-supplied keys must not
// overwrite the type of these unless the caller also overrides the
// value.
const (
	KeyIPAddress       = "ipAddress"
	KeyRequestMethod   = "requestMethod"
	KeyRequestPath     = "requestPath"
	KeyUserAgent       = "userAgent"
	KeyHourOfDay       = "hourOfDay"
	KeyDayOfWeek       = "dayOfWeek"
	KeyIsBusinessHours = "isBusinessHours"
)

var dayAbbrev = [...]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// Request carries the transport-level facts a caller has about the
// inbound request; every field is optional.
type Request struct {
	IPAddress     string
	RequestMethod string
	RequestPath   string
	UserAgent     string
}

// Build returns the environment attribute bag for one evaluation,
// evaluated at instant at, merged with any caller-supplied overrides.
// Caller-supplied keys win over the derived reserved keys (spec.md
// §4.3, §6.3).
func Build(req Request, at time.Time, overrides map[string]string) map[string]string {
	hour := at.Hour()
	out := map[string]string{
		KeyIPAddress:       req.IPAddress,
		KeyRequestMethod:   req.RequestMethod,
		KeyRequestPath:     req.RequestPath,
		KeyUserAgent:       req.UserAgent,
		KeyHourOfDay:       strconv.Itoa(hour),
		KeyDayOfWeek:       dayAbbrev[int(at.Weekday())],
		KeyIsBusinessHours: boolString(IsBusinessHours(hour)),
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// IsBusinessHours reports whether hour falls in [8, 18) per spec.md
// §4.3.
func IsBusinessHours(hour int) bool {
	return hour >= 8 && hour < 18
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
