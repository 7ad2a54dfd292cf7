// Package signatures maps qualified call names to the parameter positions a
// callee takes by reference.
package signatures

import (
	"sort"
	"strings"
)

// Signature describes one callable. A nil Refs means the callable is known
// and takes nothing by reference.
type Signature struct {
	Name string
	Refs []int
	// DoesNotInitialize marks callables whose by-reference parameters must
	// already hold a value (sort, array_push, ...).
	DoesNotInitialize bool
}

// IsRef reports whether the parameter at pos is passed by reference.
func (s Signature) IsRef(pos int) bool {
	for _, r := range s.Refs {
		if r == pos {
			return true
		}
	}
	return false
}

// Table is a case-insensitive name -> Signature map.
type Table struct {
	entries map[string]Signature
}

func NewTable() *Table {
	return &Table{entries: make(map[string]Signature)}
}

func Key(name string) string {
	return strings.ToLower(strings.TrimPrefix(name, "\\"))
}

func (t *Table) Set(sig Signature) {
	sig.Refs = normalize(sig.Refs)
	t.entries[Key(sig.Name)] = sig
}

func (t *Table) Get(name string) (Signature, bool) {
	if t == nil {
		return Signature{}, false
	}
	sig, ok := t.entries[Key(name)]
	return sig, ok
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Names returns the table's keys in sorted order.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.entries))
	for k := range t.entries {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func normalize(refs []int) []int {
	if len(refs) == 0 {
		return nil
	}
	out := append([]int(nil), refs...)
	sort.Ints(out)
	j := 0
	for i, r := range out {
		if i == 0 || r != out[j-1] {
			out[j] = r
			j++
		}
	}
	return out[:j]
}

// Set layers tables by priority: the first table holding a key wins.
type Set struct {
	layers []*Table
}

// NewSet orders the layers as file-local, configuration, builtin.
func NewSet(local, config, builtin *Table) *Set {
	return &Set{layers: []*Table{local, config, builtin}}
}

// Lookup tries each key in order and returns the first hit. Within one key
// the earlier layer wins.
func (s *Set) Lookup(keys ...string) (Signature, bool) {
	for _, key := range keys {
		for _, layer := range s.layers {
			if sig, ok := layer.Get(key); ok {
				return sig, true
			}
		}
	}
	return Signature{}, false
}
