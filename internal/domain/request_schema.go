package domain

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/tidwall/jsonc"
)

const (
	MessageField   = "message"
	UserIDField    = "userId"
	UserIDSnakeKey = "user_id"
)

var messageKeyHints = []string{"prompt", "message", "query", "input"}

const userKeyHint = "user"

// SynthesizeRequest builds a chat request body from an agent's schema
// template. String fields whose names look like a prompt carry command,
// string fields whose names mention a user carry userID, and everything else
// is kept as in the template. When no field qualifies, top-level message and
// userId fields are added so both values always reach the endpoint.
//
// The template itself is never modified.
func SynthesizeRequest(schema any, command, userID string) map[string]any {
	body := requestBase(schema)

	walker := schemaWalker{command: command, userID: userID}
	walker.walk(body)

	if !walker.messagePlaced {
		body[MessageField] = command
	}
	if !walker.userPlaced {
		body[UserIDField] = userID
	}

	return body
}

type schemaWalker struct {
	command       string
	userID        string
	messagePlaced bool
	userPlaced    bool
}

func (w *schemaWalker) walk(value any) any {
	switch node := value.(type) {
	case map[string]any:
		for key, child := range node {
			if _, isString := child.(string); isString {
				node[key] = w.fillString(key, child)
				continue
			}
			node[key] = w.walk(child)
		}
		return node
	case []any:
		for i := range node {
			node[i] = w.walk(node[i])
		}
		return node
	default:
		return value
	}
}

func (w *schemaWalker) fillString(key string, current any) any {
	lowered := strings.ToLower(key)
	for _, hint := range messageKeyHints {
		if strings.Contains(lowered, hint) {
			w.messagePlaced = true
			return w.command
		}
	}
	if strings.Contains(lowered, userKeyHint) {
		w.userPlaced = true
		return w.userID
	}

	return current
}

// requestBase returns a private, mutable copy of the template's root object.
// Absent, unparsable and non-object templates all start from an empty object.
func requestBase(schema any) map[string]any {
	var raw []byte
	switch template := schema.(type) {
	case nil:
		return map[string]any{}
	case string:
		if strings.TrimSpace(template) == "" {
			return map[string]any{}
		}
		raw = jsonc.ToJSON([]byte(template))
	case []byte:
		raw = jsonc.ToJSON(template)
	case json.RawMessage:
		raw = jsonc.ToJSON(template)
	default:
		encoded, err := json.Marshal(template)
		if err != nil {
			return map[string]any{}
		}
		raw = encoded
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var decoded any
	if err := decoder.Decode(&decoded); err != nil {
		return map[string]any{}
	}

	object, ok := decoded.(map[string]any)
	if !ok {
		return map[string]any{}
	}

	return object
}

// ForceIdentityFields applies the dispatch guarantees on top of a synthesized
// body: user_id always carries userID, userId and message are filled when
// missing.
func ForceIdentityFields(body map[string]any, command, userID string) map[string]any {
	if body == nil {
		body = map[string]any{}
	}

	body[UserIDSnakeKey] = userID
	if _, ok := body[UserIDField]; !ok {
		body[UserIDField] = userID
	}
	if _, ok := body[MessageField]; !ok {
		body[MessageField] = command
	}

	return body
}
