package featureflags

import (
	"os"
	"sort"
	"strings"
)

// StrictJSON rejects write requests whose body is not declared as application/json
const StrictJSON = "STRICT_JSON"

// Known lists every flag the service reads, for startup logging
var Known = []string{StrictJSON}

// Enabled returns true if a flag is enabled via environment variable.
// Flags are read from env as FLAG_<NAME>=true/1/yes/on (case-insensitive)
func Enabled(name string) bool {
	return parse(os.Getenv("FLAG_" + strings.ToUpper(name)))
}

// Snapshot reports the current value of every known flag
func Snapshot() map[string]bool {
	names := append([]string(nil), Known...)
	sort.Strings(names)
	out := make(map[string]bool, len(names))
	for _, n := range names {
		out[n] = Enabled(n)
	}
	return out
}

func parse(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
