package signatures

import (
	"reflect"
	"sort"
	"testing"

	"xreflint/internal/core/errors"
	"xreflint/internal/engine/parser"
)

func mustGet(t *testing.T, table *Table, name string) Signature {
	t.Helper()
	sig, ok := table.Get(name)
	if !ok {
		t.Fatalf("signature %q not found", name)
	}
	return sig
}

func TestBuiltin(t *testing.T) {
	table, err := Builtin()
	if err != nil {
		t.Fatalf("Builtin: %v", err)
	}
	again, err := Builtin()
	if err != nil {
		t.Fatalf("Builtin: %v", err)
	}
	if table != again {
		t.Error("expected the builtin table to be built once")
	}

	cases := []struct {
		name   string
		refs   []int
		noInit bool
	}{
		{"preg_match", []int{2}, false},
		{"PREG_MATCH", []int{2}, false},
		{"sort", []int{0}, true},
		{"exec", []int{1, 2}, false},
		{"apc_fetch", []int{1}, false},
		{"numfmt_parse_currency", []int{2, 3}, false},
		{"array_multisort", []int{0}, true},
		{"strlen", nil, false},
		{"preg_grep", nil, false},
		{"rand", nil, false},
		{"strcmp", nil, false},
		{"ctype_digit", nil, false},
		{"filter_var", nil, false},
		{"mb_str_pad", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sig := mustGet(t, table, tc.name)
			if !reflect.DeepEqual(sig.Refs, tc.refs) {
				t.Errorf("refs = %v, want %v", sig.Refs, tc.refs)
			}
			if sig.DoesNotInitialize != tc.noInit {
				t.Errorf("DoesNotInitialize = %v, want %v", sig.DoesNotInitialize, tc.noInit)
			}
		})
	}

	sscanf := mustGet(t, table, "sscanf")
	if !sscanf.IsRef(2) || !sscanf.IsRef(9) || sscanf.IsRef(1) {
		t.Errorf("unexpected sscanf reference positions: %v", sscanf.Refs)
	}

	if _, ok := table.Get("no_such_function"); ok {
		t.Error("unexpected signature for no_such_function")
	}
}

func TestDecodeBuiltinRejectsDanglingException(t *testing.T) {
	if _, err := decodeBuiltin([]byte("does_not_initialize: [mystery]\n")); err == nil {
		t.Error("expected error for an exception without signature")
	}
}

func TestParseRefEntry(t *testing.T) {
	sig, err := ParseRefEntry("foo, 1, 0")
	if err != nil {
		t.Fatal(err)
	}
	refs := append([]int(nil), sig.Refs...)
	sort.Ints(refs)
	if sig.Name != "foo" || !reflect.DeepEqual(refs, []int{0, 1}) {
		t.Errorf("got %+v", sig)
	}

	sig, err = ParseRefEntry("bar")
	if err != nil {
		t.Fatal(err)
	}
	if sig.Refs != nil {
		t.Errorf("expected no refs, got %v", sig.Refs)
	}

	if _, err := ParseRefEntry("baz,x"); !errors.IsCode(err, errors.CodeValidationError) {
		t.Errorf("expected validation error, got %v", err)
	}
	if _, err := ParseRefEntry(",1"); err == nil {
		t.Error("expected error for a missing name")
	}
}

func TestParseDeclaration(t *testing.T) {
	cases := []struct {
		decl string
		name string
		refs []int
	}{
		{"Foo::bar($a, &$b)", "Foo::bar", []int{1}},
		{"?::qux(&$a, &$b)", "?::qux", []int{0, 1}},
		{"function my_scanf($fmt, &...$out)", "my_scanf", []int{1, 2, 3, 4, 5, 6, 7, 8, 9}},
		{"noargs()", "noargs", nil},
		{"typed(array &$list, int $n)", "typed", []int{0}},
	}
	for _, tc := range cases {
		sig, err := ParseDeclaration(tc.decl)
		if err != nil {
			t.Fatalf("%s: %v", tc.decl, err)
		}
		if sig.Name != tc.name || !reflect.DeepEqual(sig.Refs, tc.refs) {
			t.Errorf("%s: got %s %v, want %s %v", tc.decl, sig.Name, sig.Refs, tc.name, tc.refs)
		}
	}

	for _, bad := range []string{"broken", "f(1)"} {
		if _, err := ParseDeclaration(bad); err == nil {
			t.Errorf("%s: expected error", bad)
		}
	}
}

func TestFromConfig(t *testing.T) {
	table, err := FromConfig([]string{"foo,1"}, []string{"Bar::baz(&$a)"})
	if err != nil {
		t.Fatal(err)
	}
	if table.Len() != 2 {
		t.Errorf("Len() = %d, want 2", table.Len())
	}
	if sig := mustGet(t, table, "bar::BAZ"); !reflect.DeepEqual(sig.Refs, []int{0}) {
		t.Errorf("refs = %v", sig.Refs)
	}
}

func TestSetPriority(t *testing.T) {
	local := NewTable()
	local.Set(Signature{Name: "sort"})
	config := NewTable()
	config.Set(Signature{Name: "?::fill", Refs: []int{0}})
	builtin, err := Builtin()
	if err != nil {
		t.Fatal(err)
	}

	set := NewSet(local, config, builtin)
	sig, ok := set.Lookup("sort")
	if !ok || sig.Refs != nil {
		t.Errorf("file-local declaration should shadow the builtin, got %+v", sig)
	}

	sig, ok = set.Lookup("Foo::fill", "?::fill")
	if !ok || !reflect.DeepEqual(sig.Refs, []int{0}) {
		t.Errorf("wildcard lookup got %+v, %v", sig, ok)
	}

	if _, ok := set.Lookup("Foo::missing", "?::missing"); ok {
		t.Error("unexpected signature for Foo::missing")
	}
}

func TestFromStream(t *testing.T) {
	src := `<?php
function by_ref(Array &$a, $b) {}
function plain($x) {}
class Foo {
    public function __construct(&$x) {}
    public function sort(&$x) {}
    abstract protected function fill($a, &$b);
    public function run() {
        $f = function (&$z) {};
    }
}
`
	s, err := parser.NewParser().Tokenize("local.php", []byte(src))
	if err != nil {
		t.Fatal(err)
	}
	table := FromStream(s)

	want := map[string][]int{
		"by_ref":    {0},
		"plain":     nil,
		"Foo::sort": {0},
		"Foo::fill": {1},
		"Foo::run":  nil,
	}
	for name, refs := range want {
		if sig := mustGet(t, table, name); !reflect.DeepEqual(sig.Refs, refs) {
			t.Errorf("%s: refs = %v, want %v", name, sig.Refs, refs)
		}
	}
	if _, ok := table.Get("Foo::__construct"); ok {
		t.Error("constructors must not be recorded")
	}
	if table.Len() != 5 {
		t.Errorf("Len() = %d, want 5", table.Len())
	}
}
