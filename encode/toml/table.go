package toml

import (
	"fmt"
	"reflect"
	"slices"
)

// =========================
// Mapping Definitions
// =========================

// Mapping is anything the encoder can walk as a TOML table. Keys are
// emitted in the order Keys returns them.
type Mapping interface {
	Keys() []string
	Get(key string) (any, bool)
}

// -------- Table --------

// Table is an insertion-ordered mapping. Go maps have no stable order, so
// documents that care about key order should be built from Tables.
type Table struct {
	keys  []string
	items map[string]any
}

func NewTable() *Table {
	return &Table{items: make(map[string]any)}
}

// Set stores v under key. A new key is appended to the order, an existing
// key keeps its position.
func (t *Table) Set(key string, v any) *Table {
	if t.items == nil {
		t.items = make(map[string]any)
	}
	if _, ok := t.items[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.items[key] = v
	return t
}

func (t *Table) Get(key string) (any, bool) {
	if t == nil {
		return nil, false
	}
	v, ok := t.items[key]
	return v, ok
}

func (t *Table) Keys() []string {
	if t == nil {
		return nil
	}
	return slices.Clone(t.keys)
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.keys)
}

func (t *Table) Delete(key string) {
	if t == nil {
		return
	}
	if _, ok := t.items[key]; !ok {
		return
	}
	delete(t.items, key)
	t.keys = slices.DeleteFunc(t.keys, func(k string) bool { return k == key })
}

// -------- InlineTable --------

// InlineTable is a Table that an encoder built with WithPreserve(true)
// renders as `key = { ... }` instead of a [section].
type InlineTable struct {
	Table
}

func NewInlineTable() *InlineTable {
	return &InlineTable{Table: Table{items: make(map[string]any)}}
}

func (t *InlineTable) Set(key string, v any) *InlineTable {
	t.Table.Set(key, v)
	return t
}

// -------- Go maps --------

// reflectMap adapts any Go map to Mapping. Keys that are not strings are
// rendered with fmt.Sprint; iteration is in sorted key order.
type reflectMap struct {
	rv   reflect.Value
	keys []string
	orig map[string]reflect.Value
}

func newReflectMap(rv reflect.Value) *reflectMap {
	m := &reflectMap{rv: rv, orig: make(map[string]reflect.Value, rv.Len())}
	iter := rv.MapRange()
	for iter.Next() {
		k := iter.Key()
		var name string
		if k.Kind() == reflect.String {
			name = k.String()
		} else {
			name = fmt.Sprint(k.Interface())
		}
		m.keys = append(m.keys, name)
		m.orig[name] = k
	}
	slices.Sort(m.keys)
	return m
}

func (m *reflectMap) Keys() []string { return m.keys }

func (m *reflectMap) Get(key string) (any, bool) {
	k, ok := m.orig[key]
	if !ok {
		return nil, false
	}
	return m.rv.MapIndex(k).Interface(), true
}

// =========================
// Utilities
// =========================

func asMapping(v any) (Mapping, bool) {
	switch m := v.(type) {
	case nil:
		return nil, false
	case Mapping:
		return m, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Map {
		return newReflectMap(rv), true
	}
	return nil, false
}

// isNil reports whether v is nil or a typed nil reference.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Pointer, reflect.Slice, reflect.Interface, reflect.Chan, reflect.Func:
		return rv.IsNil()
	}
	return false
}

// tableArray reports whether v is a non-empty sequence made only of
// mappings, i.e. an array of tables.
func tableArray(v any) ([]any, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Len() == 0 {
		return nil, false
	}
	elems := make([]any, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		el := rv.Index(i).Interface()
		if isNil(el) {
			return nil, false
		}
		if _, ok := asMapping(el); !ok {
			return nil, false
		}
		elems = append(elems, el)
	}
	return elems, true
}

// identity is the reference identity of a map, pointer or slice. Two
// values share an identity only when they are the same object.
type identity struct {
	kind reflect.Kind
	ptr  uintptr
	n    int
}

func identityOf(v any) (identity, bool) {
	if v == nil {
		return identity{}, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Pointer:
		if rv.IsNil() {
			return identity{}, false
		}
		return identity{kind: rv.Kind(), ptr: rv.Pointer()}, true
	case reflect.Slice:
		if rv.Len() == 0 {
			return identity{}, false
		}
		return identity{kind: reflect.Slice, ptr: rv.Pointer(), n: rv.Len()}, true
	}
	return identity{}, false
}
