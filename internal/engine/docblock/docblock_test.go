package docblock

import (
	"reflect"
	"testing"
)

func TestVars(t *testing.T) {
	cases := []struct {
		name    string
		comment string
		want    []Annotation
	}{
		{"typed", "/** @var Foo $bar */", []Annotation{{"$bar", "Foo"}}},
		{"untyped", "/** @var $x */", []Annotation{{"$x", ""}}},
		{"list", "/** @var $a, $b,$c */", []Annotation{{"$a", ""}, {"$b", ""}, {"$c", ""}}},
		{"typed list", "/** @var \\App\\Model $m, $n */", []Annotation{{"$m", "\\App\\Model"}, {"$n", "\\App\\Model"}}},
		{"description", "/** @var int $count number of rows */", []Annotation{{"$count", "int"}}},
		{"multiline", "/**\n * @var Foo $a\n * @var Bar $b\n */", []Annotation{{"$a", "Foo"}, {"$b", "Bar"}}},
		{"no name", "/** @var Foo */", nil},
		{"other tags", "/** @param int $x\n @return void */", nil},
		{"empty", "/** */", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Vars(tc.comment); !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Vars(%q) = %v, want %v", tc.comment, got, tc.want)
			}
		})
	}
}
