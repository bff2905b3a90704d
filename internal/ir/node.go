package ir

import (
	"fmt"
	"sort"
)

// EventNode is one saved event instance in a script.
//
// Args holds the stored field values keyed by field key. Children holds the
// event lists attached to events-typed fields ("true", "false", ...). Both may
// be nil; missing values fall back to schema defaults during compilation.
type EventNode struct {
	ID       string                 `json:"id,omitempty" yaml:"id,omitempty"`
	Command  string                 `json:"command" yaml:"command"`
	Args     Object                 `json:"args,omitempty" yaml:"args,omitempty"`
	Children map[string][]EventNode `json:"children,omitempty" yaml:"children,omitempty"`
}

// Script is a named, ordered list of top-level event nodes.
type Script struct {
	Name string `json:"name" yaml:"name"`
	// Self is the actor id "$self$" resolves to while compiling this script.
	Self   string      `json:"self,omitempty" yaml:"self,omitempty"`
	Events []EventNode `json:"events" yaml:"events"`
}

// ChildKeys returns the node's child list keys in sorted order.
func (n EventNode) ChildKeys() []string {
	keys := make([]string, 0, len(n.Children))
	for k := range n.Children {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ToValue converts the node into a Value tree for canonical hashing.
func (n EventNode) ToValue() Object {
	obj := Object{"command": String(n.Command)}
	if n.ID != "" {
		obj["id"] = String(n.ID)
	}
	if len(n.Args) > 0 {
		obj["args"] = n.Args
	}
	if len(n.Children) > 0 {
		children := make(Object, len(n.Children))
		for key, list := range n.Children {
			children[key] = eventsToArray(list)
		}
		obj["children"] = children
	}
	return obj
}

// ToValue converts the script into a Value tree for canonical hashing.
func (s Script) ToValue() Object {
	obj := Object{
		"name":   String(s.Name),
		"events": eventsToArray(s.Events),
	}
	if s.Self != "" {
		obj["self"] = String(s.Self)
	}
	return obj
}

func eventsToArray(list []EventNode) Array {
	arr := make(Array, len(list))
	for i, child := range list {
		arr[i] = child.ToValue()
	}
	return arr
}

// Count returns the number of event nodes in the list, children included.
func Count(list []EventNode) int {
	total := 0
	for _, n := range list {
		total++
		for _, key := range n.ChildKeys() {
			total += Count(n.Children[key])
		}
	}
	return total
}

// Path identifies a node's position in a script, e.g. "events[2].true[0]".
type Path string

// Child returns the path of the i-th node in the child list key.
func (p Path) Child(key string, i int) Path {
	if p == "" {
		return Path(fmt.Sprintf("%s[%d]", key, i))
	}
	return Path(fmt.Sprintf("%s.%s[%d]", p, key, i))
}
