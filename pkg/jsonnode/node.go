// Package jsonnode decodes JSON into a generic tree that keeps object members
// in document order, and offers lookups that tolerate missing or mistyped
// branches.
//
// A decoded tree is made of *Object, []any, string, float64, bool and nil.
// The accessors also accept map[string]any so callers that already decoded
// with encoding/json can reuse them; plain maps are iterated in sorted key
// order because they carry no document order.
package jsonnode

import (
	"sort"
	"strconv"
)

// Object is a JSON object whose members remember insertion order.
type Object struct {
	keys    []string
	members map[string]any
}

// NewObject returns an empty object.
func NewObject() *Object {
	return &Object{members: make(map[string]any)}
}

// Set stores v under key. A repeated key keeps its first position.
func (o *Object) Set(key string, v any) {
	if o.members == nil {
		o.members = make(map[string]any)
	}
	if _, exists := o.members[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.members[key] = v
}

// Get returns the member stored under key.
func (o *Object) Get(key string) (any, bool) {
	if o == nil || o.members == nil {
		return nil, false
	}
	v, ok := o.members[key]
	return v, ok
}

// Keys returns member names in document order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	return append([]string(nil), o.keys...)
}

// Len returns the number of members.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// IsObject reports whether v is an object node.
func IsObject(v any) bool {
	switch t := v.(type) {
	case *Object:
		return t != nil
	case map[string]any:
		return t != nil
	}
	return false
}

// IsContainer reports whether v is an object or an array node.
func IsContainer(v any) bool {
	if _, ok := v.([]any); ok {
		return true
	}
	return IsObject(v)
}

// Field returns the member key of v, or nil when v is not an object or the
// member is absent.
func Field(v any, key string) any {
	switch t := v.(type) {
	case *Object:
		val, _ := t.Get(key)
		return val
	case map[string]any:
		return t[key]
	}
	return nil
}

// Lookup follows path through nested objects. Any missing or non-object hop
// yields nil.
func Lookup(v any, path ...string) any {
	cur := v
	for _, key := range path {
		cur = Field(cur, key)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// Members calls fn for every member of an object in order, or for every
// element of an array with its decimal index as key. Iteration stops when fn
// returns false.
func Members(v any, fn func(key string, child any) bool) {
	switch t := v.(type) {
	case *Object:
		if t == nil {
			return
		}
		for _, k := range t.keys {
			if !fn(k, t.members[k]) {
				return
			}
		}
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if !fn(k, t[k]) {
				return
			}
		}
	case []any:
		for i, child := range t {
			if !fn(strconv.Itoa(i), child) {
				return
			}
		}
	}
}

// Keys returns the member names of an object node (sorted for plain maps).
func Keys(v any) []string {
	if _, ok := v.([]any); ok {
		return nil
	}
	var keys []string
	Members(v, func(k string, _ any) bool {
		keys = append(keys, k)
		return true
	})
	return keys
}

// Truthy mirrors loose JSON truthiness: nil, false, 0, NaN and "" are false;
// every object and array is true.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0 && t == t
	case int:
		return t != 0
	case int64:
		return t != 0
	case *Object:
		return t != nil
	}
	return true
}

// String returns v when it is a string, otherwise "".
func String(v any) string {
	s, _ := v.(string)
	return s
}
