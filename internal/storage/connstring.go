package storage

import (
	"fmt"
	"strings"
)

// ParseConnectionString splits "Key=Value;Key2=Value2" into a map. Keys are
// matched case-insensitively by the callers through the lower-cased key.
func ParseConnectionString(s string) (map[string]string, error) {
	out := map[string]string{}
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 || strings.TrimSpace(kv[0]) == "" {
			return nil, fmt.Errorf("malformed connection string segment %q", part)
		}
		out[strings.ToLower(strings.TrimSpace(kv[0]))] = strings.TrimSpace(kv[1])
	}
	return out, nil
}
