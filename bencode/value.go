/*
 * This file is part of dtorrent.
 *
 * dtorrent is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * dtorrent is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with dtorrent.  If not, see <http://www.gnu.org/licenses/>.
 */

// Package bencode holds an immutable, ordered representation of bencoded data
// and the canonical writer used to hash and re-emit it.
package bencode

import (
	"fmt"
	"slices"
	"sort"

	"github.com/elliotchance/orderedmap"
)

type Kind uint8

const (
	KindInvalid Kind = iota
	KindBytes
	KindInt
	KindList
	KindDict
)

func (k Kind) String() string {
	switch k {
	case KindBytes:
		return "bytes"
	case KindInt:
		return "int"
	case KindList:
		return "list"
	case KindDict:
		return "dict"
	default:
		return "invalid"
	}
}

// Value is one node of a decoded bencode tree. The zero Value is invalid and
// is what lookups return for absent keys. A Value never changes after it has
// been built, so it can be shared freely.
type Value struct {
	kind Kind
	str  string
	num  int64
	list []Value
	dict *orderedmap.OrderedMap // string -> Value, keys in ascending byte order
}

func String(s string) Value {
	return Value{kind: KindBytes, str: s}
}

func Bytes(b []byte) Value {
	return Value{kind: KindBytes, str: string(b)}
}

func Int(i int64) Value {
	return Value{kind: KindInt, num: i}
}

func List(items ...Value) Value {
	return Value{kind: KindList, list: slices.Clone(items)}
}

// Dict builds a dictionary value. Keys are stored sorted by their raw bytes.
func Dict(entries map[string]Value) Value {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	m := orderedmap.NewOrderedMap()
	for _, k := range keys {
		m.Set(k, entries[k])
	}

	return Value{kind: KindDict, dict: m}
}

func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) IsValid() bool {
	return v.kind != KindInvalid
}

// Bytes returns a copy of the byte string payload.
func (v Value) Bytes() ([]byte, bool) {
	if v.kind != KindBytes {
		return nil, false
	}

	return []byte(v.str), true
}

// Str returns the byte string payload as a Go string without any decoding.
func (v Value) Str() (string, bool) {
	if v.kind != KindBytes {
		return "", false
	}

	return v.str, true
}

func (v Value) Int() (int64, bool) {
	if v.kind != KindInt {
		return 0, false
	}

	return v.num, true
}

func (v Value) List() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}

	return slices.Clone(v.list), true
}

// Len reports the number of list items, dictionary entries or bytes.
func (v Value) Len() int {
	switch v.kind {
	case KindBytes:
		return len(v.str)
	case KindList:
		return len(v.list)
	case KindDict:
		return v.dict.Len()
	default:
		return 0
	}
}

func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindDict {
		return Value{}, false
	}

	raw, ok := v.dict.Get(key)
	if !ok {
		return Value{}, false
	}

	return raw.(Value), true
}

func (v Value) Has(key string) bool {
	_, ok := v.Get(key)
	return ok
}

func (v Value) Keys() []string {
	if v.kind != KindDict {
		return nil
	}

	keys := make([]string, 0, v.dict.Len())
	for el := v.dict.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Key.(string))
	}

	return keys
}

// Native converts the tree into the plain Go types understood by general
// purpose bencode encoders: string, int64, []interface{} and
// map[string]interface{}.
func (v Value) Native() interface{} {
	switch v.kind {
	case KindBytes:
		return v.str
	case KindInt:
		return v.num
	case KindList:
		out := make([]interface{}, len(v.list))
		for i, item := range v.list {
			out[i] = item.Native()
		}

		return out
	case KindDict:
		out := make(map[string]interface{}, v.dict.Len())
		for el := v.dict.Front(); el != nil; el = el.Next() {
			out[el.Key.(string)] = el.Value.(Value).Native()
		}

		return out
	default:
		return nil
	}
}

// FromNative converts a tree of plain Go values, as produced by a generic
// bencode decoder, into a Value.
func FromNative(in interface{}) (Value, error) {
	switch t := in.(type) {
	case Value:
		return t, nil
	case string:
		return String(t), nil
	case []byte:
		return Bytes(t), nil
	case int64:
		return Int(t), nil
	case int:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case uint32:
		return Int(int64(t)), nil
	case bool:
		if t {
			return Int(1), nil
		}

		return Int(0), nil
	case []interface{}:
		items := make([]Value, len(t))
		for i, item := range t {
			converted, err := FromNative(item)
			if err != nil {
				return Value{}, err
			}

			items[i] = converted
		}

		return Value{kind: KindList, list: items}, nil
	case []Value:
		return List(t...), nil
	case map[string]interface{}:
		entries := make(map[string]Value, len(t))
		for k, item := range t {
			converted, err := FromNative(item)
			if err != nil {
				return Value{}, fmt.Errorf("key %q: %w", k, err)
			}

			entries[k] = converted
		}

		return Dict(entries), nil
	case map[string]Value:
		return Dict(t), nil
	default:
		return Value{}, fmt.Errorf("%w: %T", ErrUnsupportedType, in)
	}
}
