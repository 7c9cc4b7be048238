package featureflag

import (
	"os"
	"strings"
)

// FromEnv builds a Static gate from Defaults, then FEATURE_FLAGS_ENABLED and
// FEATURE_FLAGS_DISABLED (comma separated), then FEATURE_FLAG_<NAME>=bool.
func FromEnv() *Static {
	flags := Defaults()
	for _, f := range splitCSV(os.Getenv("FEATURE_FLAGS_ENABLED")) {
		flags[f] = true
	}
	for _, f := range splitCSV(os.Getenv("FEATURE_FLAGS_DISABLED")) {
		flags[f] = false
	}
	for name := range flags {
		key := "FEATURE_FLAG_" + strings.ToUpper(name)
		if v, ok := parseBool(os.Getenv(key)); ok {
			flags[name] = v
		}
	}
	return NewStatic(flags)
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := normalize(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseBool(raw string) (bool, bool) {
	switch strings.TrimSpace(strings.ToLower(raw)) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	default:
		return false, false
	}
}
