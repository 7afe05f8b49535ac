package mcp

import (
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// decode converts tool arguments into T. Type mismatches name the offending
// argument so the caller can return them as INVALID_REQUEST.
func decode[T any](req mcp.CallToolRequest) (T, error) {
	var result T
	args := req.GetArguments()
	if len(args) == 0 {
		return result, nil
	}
	b, err := json.Marshal(args)
	if err != nil {
		return result, fmt.Errorf("encode arguments: %w", err)
	}
	if err := json.Unmarshal(b, &result); err != nil {
		var typeErr *json.UnmarshalTypeError
		if stderrors.As(err, &typeErr) && typeErr.Field != "" {
			return result, fmt.Errorf("argument %q must be %s, got %s", typeErr.Field, typeErr.Type, typeErr.Value)
		}
		return result, fmt.Errorf("decode arguments: %w", err)
	}
	return result, nil
}
