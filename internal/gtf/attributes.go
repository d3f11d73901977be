package gtf

import (
	"strings"
)

// ParseAttributes parses the GTF attribute column.
// Format: key "value"; key "value"; ...
// Repeated keys keep the last value.
func ParseAttributes(attrStr string) (map[string]string, error) {
	attrs := make(map[string]string)

	for _, part := range strings.Split(attrStr, ";") {
		part = strings.TrimSpace(strings.ReplaceAll(part, `"`, ""))
		if part == "" {
			continue
		}

		kv := strings.Fields(part)
		if len(kv) != 2 {
			return nil, &MalformedAttributeError{Token: part}
		}
		attrs[kv[0]] = kv[1]
	}

	return attrs, nil
}
