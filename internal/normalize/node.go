package normalize

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"
)

// node is a decoded JSON value that keeps object keys in document order.
// Candlestick flags and standard pivot maps are rendered in input key order,
// which map[string]any would lose.
type node struct {
	kind   nodeKind
	b      bool
	num    float64
	str    string
	items  []*node
	keys   []string
	fields map[string]*node
}

type nodeKind int

const (
	nullNode nodeKind = iota
	boolNode
	numberNode
	stringNode
	arrayNode
	objectNode
)

var errUnexpectedToken = errors.New("unexpected json token")

func parseNode(raw []byte) (*node, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	n, err := decodeNode(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errUnexpectedToken
	}
	return n, nil
}

func decodeNode(dec *json.Decoder) (*node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch v := tok.(type) {
	case nil:
		return &node{kind: nullNode}, nil
	case bool:
		return &node{kind: boolNode, b: v}, nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			// Out-of-range literals behave like the no-data sentinel.
			f = sentinel
		}
		return &node{kind: numberNode, num: f}, nil
	case string:
		return &node{kind: stringNode, str: v}, nil
	case json.Delim:
		switch v {
		case '[':
			n := &node{kind: arrayNode}
			for dec.More() {
				item, err := decodeNode(dec)
				if err != nil {
					return nil, err
				}
				n.items = append(n.items, item)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return n, nil
		case '{':
			n := &node{kind: objectNode, fields: make(map[string]*node)}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, errUnexpectedToken
				}
				val, err := decodeNode(dec)
				if err != nil {
					return nil, err
				}
				if _, dup := n.fields[key]; !dup {
					n.keys = append(n.keys, key)
				}
				n.fields[key] = val
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return n, nil
		}
	}
	return nil, errUnexpectedToken
}

// get returns the field named key of an object node, or nil.
func (n *node) get(key string) *node {
	if n == nil || n.kind != objectNode {
		return nil
	}
	return n.fields[key]
}

// first returns the first present, non-null field among keys.
func (n *node) first(keys ...string) *node {
	for _, k := range keys {
		if v := n.get(k); v != nil && v.kind != nullNode {
			return v
		}
	}
	return nil
}

// number reads a numeric value, accepting numeric strings.
func (n *node) number() (float64, bool) {
	if n == nil {
		return 0, false
	}
	switch n.kind {
	case numberNode:
		return n.num, true
	case stringNode:
		f, err := strconv.ParseFloat(strings.TrimSpace(n.str), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// text reads a string value, or "" for anything else.
func (n *node) text() string {
	if n == nil || n.kind != stringNode {
		return ""
	}
	return strings.TrimSpace(n.str)
}

// list returns the elements of an array node. Objects wrapping a single list
// under one of wrapKeys are unwrapped.
func (n *node) list(wrapKeys ...string) ([]*node, bool) {
	if n == nil {
		return nil, false
	}
	if n.kind == arrayNode {
		return n.items, true
	}
	if inner := n.first(wrapKeys...); inner != nil && inner.kind == arrayNode {
		return inner.items, true
	}
	return nil, false
}
