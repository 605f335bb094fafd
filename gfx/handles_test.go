package gfx

import (
	"reflect"
	"testing"
)

func TestHandleTable(t *testing.T) {
	table := newHandleTable[string]("widget")

	a := table.add("a")
	b := table.add("b")
	if a == 0 || b == 0 || a == b {
		t.Fatalf("bad ids issued: %d, %d", a, b)
	}

	if got, ok := table.get(b); !ok || got != "b" {
		t.Errorf("get(%d) = %q, %v", b, got, ok)
	}

	if _, ok := table.remove(a); !ok {
		t.Errorf("remove(%d) found nothing", a)
	}
	if _, ok := table.get(a); ok {
		t.Errorf("id %d still present after remove", a)
	}
	if _, ok := table.remove(a); ok {
		t.Errorf("second remove(%d) succeeded", a)
	}

	c := table.add("c")
	if c == a {
		t.Errorf("released id %d was reissued", a)
	}
	if table.len() != 2 {
		t.Errorf("len() = %d, want 2", table.len())
	}
}

func TestHandleTableZeroIsNone(t *testing.T) {
	table := newHandleTable[int]("widget")
	table.add(7)

	if _, ok := table.get(0); ok {
		t.Error("id 0 resolved to an item")
	}
}

func TestHandleTableMustGetPanics(t *testing.T) {
	table := newHandleTable[int]("widget")

	defer func() {
		if recover() == nil {
			t.Error("mustGet did not panic on an unknown id")
		}
	}()
	table.mustGet(42)
}

func TestHandleTableDrain(t *testing.T) {
	table := newHandleTable[string]("widget")
	for _, item := range []string{"first", "second", "third"} {
		table.add(item)
	}

	var released []string
	table.drain(func(item string) {
		released = append(released, item)
	})

	want := []string{"first", "second", "third"}
	if !reflect.DeepEqual(released, want) {
		t.Errorf("drain order %v, want %v", released, want)
	}
	if table.len() != 0 {
		t.Errorf("%d items left after drain", table.len())
	}
}
