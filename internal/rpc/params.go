package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lbryio/comment-server/internal/model"
)

// identifier params are lower-cased as well as trimmed
var identifierParams = map[string]bool{
	"claim_id":   true,
	"parent_id":  true,
	"comment_id": true,
	"channel_id": true,
}

// cleanParams trims every string param except the comment body and
// lower-cases identifiers, including inside comment_ids and pieces.
func cleanParams(params map[string]any) {
	for k, v := range params {
		switch val := v.(type) {
		case string:
			if k == "comment" {
				continue
			}
			val = strings.TrimSpace(val)
			if identifierParams[k] {
				val = strings.ToLower(val)
			}
			params[k] = val
		case []any:
			for i, item := range val {
				switch it := item.(type) {
				case string:
					if k == "comment_ids" {
						val[i] = strings.ToLower(strings.TrimSpace(it))
					}
				case map[string]any:
					cleanParams(it)
				}
			}
		}
	}
}

// parseParams accepts a params object, or nothing.
func parseParams(raw json.RawMessage) (map[string]any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return map[string]any{}, nil
	}

	var params map[string]any
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, fmt.Errorf("%w: params must be an object", model.ErrInvalidParams)
	}
	cleanParams(params)
	return params, nil
}

// decode maps cleaned params onto a method's param struct.
func decode(params map[string]any, out any) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrInvalidParams, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", model.ErrInvalidParams, err)
	}
	return nil
}
