package summarize

import (
	"fmt"
	"strconv"
	"strings"
)

// extractByPath walks a decoded JSON value along a dot path with optional
// indexes, e.g. "candidates[0].content.parts[0].text". Scalars are returned
// as strings.
func extractByPath(root any, path string) (string, bool) {
	if path == "" {
		return "", false
	}
	cur := root
	for _, part := range strings.Split(path, ".") {
		key, idxs, err := parseKeyAndIndexes(part)
		if err != nil {
			return "", false
		}

		if key != "" {
			m, ok := cur.(map[string]any)
			if !ok {
				return "", false
			}
			next, exists := m[key]
			if !exists {
				return "", false
			}
			cur = next
		}

		for _, idx := range idxs {
			arr, ok := cur.([]any)
			if !ok || idx < 0 || idx >= len(arr) {
				return "", false
			}
			cur = arr[idx]
		}
	}

	switch v := cur.(type) {
	case string:
		return v, true
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10), true
		}
		return strconv.FormatFloat(v, 'g', -1, 64), true
	case bool:
		return strconv.FormatBool(v), true
	}
	return "", false
}

// parseKeyAndIndexes splits "foo[0][1]" into "foo" and [0 1].
func parseKeyAndIndexes(token string) (string, []int, error) {
	if token == "" {
		return "", nil, fmt.Errorf("empty path segment")
	}
	br := strings.Index(token, "[")
	if br == -1 {
		return token, nil, nil
	}
	key := token[:br]
	rest := token[br:]
	var idxs []int
	for len(rest) > 0 {
		if rest[0] != '[' {
			return "", nil, fmt.Errorf("invalid index syntax in %s", token)
		}
		end := strings.Index(rest, "]")
		if end == -1 {
			return "", nil, fmt.Errorf("missing ] in %s", token)
		}
		n, err := strconv.Atoi(rest[1:end])
		if err != nil {
			return "", nil, fmt.Errorf("invalid index %q in %s", rest[1:end], token)
		}
		idxs = append(idxs, n)
		rest = rest[end+1:]
	}
	return key, idxs, nil
}
