package nodes

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// wireSchema constrains the editor/renderer exchange format before the
// structural checks in Validate run.
const wireSchema = `{
  "type": "object",
  "required": ["ROOT"],
  "propertyNames": {"minLength": 1},
  "additionalProperties": {"$ref": "#/$defs/node"},
  "$defs": {
    "node": {
      "type": "object",
      "required": ["type"],
      "additionalProperties": false,
      "properties": {
        "type": {"type": "string", "minLength": 1},
        "props": {"type": "object"},
        "parent": {"type": ["string", "null"]},
        "nodes": {"type": "array", "items": {"type": "string"}},
        "isCanvas": {"type": "boolean"}
      }
    }
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func wireValidator() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource("tree.json", strings.NewReader(wireSchema)); err != nil {
			schemaErr = err
			return
		}
		compiledSchema, schemaErr = compiler.Compile("tree.json")
	})
	return compiledSchema, schemaErr
}

type wireNode struct {
	Type     string         `json:"type"`
	Props    map[string]any `json:"props"`
	Parent   *string        `json:"parent"`
	Nodes    []string       `json:"nodes"`
	IsCanvas bool           `json:"isCanvas"`
}

// Serialize encodes t in the wire format. Keys are emitted in sorted order so
// equal trees produce identical bytes.
func Serialize(t *Tree) ([]byte, error) {
	if t == nil {
		return nil, errors.New("nodes: cannot serialize nil tree")
	}
	out := make(map[string]wireNode, len(t.nodes))
	for id, node := range t.nodes {
		wire := wireNode{
			Type:     node.Type,
			Props:    node.Props,
			Nodes:    node.Nodes,
			IsCanvas: node.IsCanvas,
		}
		if !node.IsRoot() {
			parent := node.Parent
			wire.Parent = &parent
		}
		out[id] = wire
	}
	return json.Marshal(out)
}

// Deserialize decodes and validates a wire-format tree. Any schema or
// structural violation is returned as an IntegrityError and no tree is produced.
// Numbers are kept as json.Number so a decode/encode cycle is lossless.
func Deserialize(data []byte) (*Tree, error) {
	var raw any
	if err := decode(data, &raw); err != nil {
		return nil, violation("", CodeSchema, "invalid json: %v", err)
	}
	schema, err := wireValidator()
	if err != nil {
		return nil, fmt.Errorf("nodes: compile wire schema: %w", err)
	}
	if err := schema.Validate(raw); err != nil {
		return nil, schemaViolation(err)
	}

	var wire map[string]wireNode
	if err := decode(data, &wire); err != nil {
		return nil, violation("", CodeSchema, "decode tree: %v", err)
	}
	m := make(NodeMap, len(wire))
	for id, node := range wire {
		parent := ""
		if node.Parent != nil {
			parent = *node.Parent
			if parent == "" {
				return nil, violation(id, CodeDanglingParent, "parent must be null or a node id")
			}
		}
		m[id] = Node{
			ID:       id,
			Type:     node.Type,
			Props:    node.Props,
			Parent:   parent,
			Nodes:    node.Nodes,
			IsCanvas: node.IsCanvas,
		}
	}
	return Validate(m)
}

func decode(data []byte, target any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(target); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("trailing data after tree")
	}
	return nil
}

// schemaViolation reports the first leaf cause, tagged with the node id taken
// from the instance location.
func schemaViolation(err error) error {
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return violation("", CodeSchema, "%v", err)
	}
	leaf := verr
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}
	location := strings.TrimPrefix(leaf.InstanceLocation, "/")
	token, _, _ := strings.Cut(location, "/")
	return violation(pointerToken(token), CodeSchema, "%s: %s", "/"+location, leaf.Message)
}

var pointerUnescaper = strings.NewReplacer("~1", "/", "~0", "~")

// pointerToken decodes one instance location segment back into the key it
// names. Segments are JSON pointer escaped and then path escaped.
func pointerToken(token string) string {
	if unescaped, err := url.PathUnescape(token); err == nil {
		token = unescaped
	}
	return pointerUnescaper.Replace(token)
}
