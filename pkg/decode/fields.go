package decode

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

func jsonUnmarshalStrings(raw string, out *[]string) error {
	if raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), out)
}

// parseUint accepts both decimal and 0x-prefixed hex strings, matching
// the two shapes a log field can arrive in depending on which chain
// client emitted it.
func parseUint(s string) uint64 {
	if s == "" {
		return 0
	}
	if strings.HasPrefix(s, "0x") {
		v, err := strconv.ParseUint(s[2:], 16, 64)
		if err != nil {
			return 0
		}
		return v
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func timeNow() time.Time {
	return time.Now().UTC()
}
