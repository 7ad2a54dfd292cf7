// # internal/engine/parser/pool_test.go
package parser

import (
	"sync"
	"testing"
)

func TestParserPool_GetPut(t *testing.T) {
	pool := NewParserPool(PHPLanguage())

	sp := pool.Get()
	if sp == nil {
		t.Fatal("expected non-nil parser from pool")
	}
	if pool.Leased() != 1 {
		t.Fatalf("expected 1 leased parser, got %d", pool.Leased())
	}
	pool.Put(sp)
	if pool.Leased() != 0 {
		t.Fatalf("expected 0 leased parsers, got %d", pool.Leased())
	}
	pool.Put(nil)
}

func TestParserPool_ParsesAfterReuse(t *testing.T) {
	pool := NewParserPool(PHPLanguage())
	src := []byte("<?php\n$a = 1;\n")

	for i := 0; i < 3; i++ {
		sp := pool.Get()
		tree := sp.Parse(src, nil)
		if tree == nil {
			t.Fatalf("iteration %d: parse returned nil tree", i)
		}
		if tree.RootNode().Kind() != "program" {
			t.Fatalf("iteration %d: unexpected root %q", i, tree.RootNode().Kind())
		}
		tree.Close()
		pool.Put(sp)
	}
}

func TestParserPool_Concurrent(t *testing.T) {
	pool := NewParserPool(PHPLanguage())
	src := []byte("<?php\nfunction f($x) { return $x; }\n")

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				sp := pool.Get()
				tree := sp.Parse(src, nil)
				if tree == nil {
					t.Error("parse returned nil tree")
				} else {
					tree.Close()
				}
				pool.Put(sp)
			}
		}()
	}
	wg.Wait()
	if pool.Leased() != 0 {
		t.Fatalf("expected all parsers returned, got %d leased", pool.Leased())
	}
}
