package signatures

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed builtin.yaml
var builtinData []byte

type builtinFile struct {
	Reference         map[string][]int `yaml:"reference"`
	Overrides         map[string][]int `yaml:"overrides"`
	DoesNotInitialize []string         `yaml:"does_not_initialize"`
	NoReference       []string         `yaml:"no_reference"`
}

var (
	builtinOnce  sync.Once
	builtinTable *Table
	builtinErr   error
)

// Builtin returns the process-wide builtin table, decoding it on first use.
// Later calls return the same table.
func Builtin() (*Table, error) {
	builtinOnce.Do(func() {
		builtinTable, builtinErr = decodeBuiltin(builtinData)
	})
	return builtinTable, builtinErr
}

func decodeBuiltin(data []byte) (*Table, error) {
	var f builtinFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode builtin signatures: %w", err)
	}
	t := NewTable()
	for _, name := range f.NoReference {
		t.Set(Signature{Name: name})
	}
	for name, refs := range f.Reference {
		t.Set(Signature{Name: name, Refs: refs})
	}
	for name, refs := range f.Overrides {
		t.Set(Signature{Name: name, Refs: refs})
	}
	for _, name := range f.DoesNotInitialize {
		sig, ok := t.Get(name)
		if !ok {
			return nil, fmt.Errorf("does_not_initialize entry %q has no signature", name)
		}
		sig.DoesNotInitialize = true
		t.Set(sig)
	}
	return t, nil
}
