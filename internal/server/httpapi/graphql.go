package httpapi

import (
	"encoding/json"
	"strings"
)

// The endpoint speaks the GraphQL wire shape: a POST body with query text
// and a variables map, answered with {"data": ...} or {"errors": [...]}.
// Operations are dispatched on the first top-level field name of the query;
// the query text is not otherwise evaluated.

type gqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

type gqlError struct {
	Message string `json:"message"`
}

type gqlResponse struct {
	Data   map[string]interface{} `json:"data,omitempty"`
	Errors []gqlError             `json:"errors,omitempty"`
}

// operationField extracts the first top-level field name from a GraphQL
// query: the first identifier after the opening brace of the selection set.
func operationField(query string) string {
	i := strings.IndexByte(query, '{')
	if i < 0 {
		return ""
	}
	rest := query[i+1:]

	start := -1
	for j := 0; j < len(rest); j++ {
		c := rest[j]
		if isIdentChar(c) {
			if start < 0 {
				start = j
			}
			continue
		}
		if start >= 0 {
			return rest[start:j]
		}
	}
	if start >= 0 {
		return rest[start:]
	}
	return ""
}

func isIdentChar(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

// argString reads the first present string variable among the given aliases,
// so both camelCase and snake_case argument spellings are accepted.
func argString(vars map[string]interface{}, names ...string) string {
	for _, name := range names {
		if v, ok := vars[name]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	return ""
}

// argInt reads the first present numeric variable among the given aliases.
// JSON numbers arrive as float64.
func argInt(vars map[string]interface{}, names ...string) int {
	for _, name := range names {
		if v, ok := vars[name]; ok {
			switch n := v.(type) {
			case float64:
				return int(n)
			case int:
				return n
			}
		}
	}
	return 0
}

// argObject re-marshals a nested variable into dst, so object-valued
// arguments can be decoded into typed structs.
func argObject(vars map[string]interface{}, dst interface{}, names ...string) bool {
	for _, name := range names {
		v, ok := vars[name]
		if !ok {
			continue
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return false
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return false
		}
		return true
	}
	return false
}
