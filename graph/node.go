package graph

import (
	"strings"

	"github.com/facegraph/facegraph-go/urlobject"
	"github.com/tidwall/gjson"
)

// Node is a read-only view over one decoded JSON object, remembering the
// Graph it was fetched from. Present keys return their stored values;
// absent keys resolve to a Graph addressed at the child node, so a caller
// can keep traversing past what the payload materialized:
//
//	me := result.(*graph.Node)
//	feed := me.Get("feed").(*graph.Graph) // not in the payload: lazy child
//	posts, err := feed.Get(ctx)
type Node struct {
	result gjson.Result
	origin *Graph
}

func newNode(result gjson.Result, origin *Graph) *Node {
	return &Node{result: result, origin: origin}
}

// Get returns the value stored under key. Nested objects come back as
// *Node, arrays of objects as []*Node, scalars as their plain Go values.
// A key the payload does not contain returns a *Graph addressed at the
// originating address plus that key; it never fails.
func (n *Node) Get(key string) any {
	value := n.result.Get(escapeKey(key))
	if !value.Exists() {
		return n.origin.Attr(key)
	}
	return wrapValue(value, n.origin)
}

// Has reports whether the payload materialized the key. Synthesized lazy
// children do not count.
func (n *Node) Has(key string) bool {
	return n.result.Get(escapeKey(key)).Exists()
}

// Keys lists the materialized keys in payload order.
func (n *Node) Keys() []string {
	var keys []string
	n.result.ForEach(func(key, _ gjson.Result) bool {
		keys = append(keys, key.String())
		return true
	})
	return keys
}

// Len returns the number of materialized keys.
func (n *Node) Len() int {
	count := 0
	n.result.ForEach(func(_, _ gjson.Result) bool {
		count++
		return true
	})
	return count
}

// Raw returns the underlying JSON text of this node.
func (n *Node) Raw() string {
	return n.result.Raw
}

// Map returns the payload as a plain map. The map is a copy; writes to it
// do not round-trip anywhere.
func (n *Node) Map() map[string]any {
	m, _ := n.result.Value().(map[string]any)
	return m
}

// Origin returns the Graph this node was fetched from.
func (n *Node) Origin() *Graph {
	return n.origin
}

// GetString returns the value under key as a string ("" when absent).
func (n *Node) GetString(key string) string {
	return n.result.Get(escapeKey(key)).String()
}

// GetInt returns the value under key as an int64 (0 when absent).
func (n *Node) GetInt(key string) int64 {
	return n.result.Get(escapeKey(key)).Int()
}

// GetFloat returns the value under key as a float64 (0 when absent).
func (n *Node) GetFloat(key string) float64 {
	return n.result.Get(escapeKey(key)).Float()
}

// GetBool returns the value under key as a bool (false when absent).
func (n *Node) GetBool(key string) bool {
	return n.result.Get(escapeKey(key)).Bool()
}

// NextPage returns a Graph addressing the next page of a paged connection,
// or nil when the payload carries no paging.next link.
func (n *Node) NextPage() *Graph {
	return n.pageLink("paging.next")
}

// PreviousPage returns a Graph addressing the previous page, or nil.
func (n *Node) PreviousPage() *Graph {
	return n.pageLink("paging.previous")
}

func (n *Node) pageLink(path string) *Graph {
	link := n.result.Get(path)
	if !link.Exists() {
		return nil
	}
	u, err := urlobject.Parse(link.String())
	if err != nil {
		return nil
	}
	return n.origin.copyWith(u)
}

// wrapValue applies the recursive wrapping rules: objects become *Node,
// arrays whose elements are all objects become []*Node, everything else
// passes through as its plain Go value.
func wrapValue(value gjson.Result, origin *Graph) any {
	switch {
	case value.IsObject():
		return newNode(value, origin)
	case value.IsArray():
		elements := value.Array()
		for _, element := range elements {
			if !element.IsObject() {
				return value.Value()
			}
		}
		nodes := make([]*Node, len(elements))
		for i, element := range elements {
			nodes[i] = newNode(element, origin)
		}
		return nodes
	default:
		return value.Value()
	}
}

// escapeKey neutralizes gjson path syntax so a literal payload key such as
// "first.name" is looked up as one key, not a traversal.
func escapeKey(key string) string {
	if !strings.ContainsAny(key, `.*?|#@\`) {
		return key
	}
	var b strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
