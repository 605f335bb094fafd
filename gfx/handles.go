package gfx

import (
	"fmt"
	"sort"
)

// handleTable maps the opaque ids handed to the renderer onto driver
// objects. Ids start at 1 so the zero id always means "none".
type handleTable[T any] struct {
	kind  string
	next  uint64
	items map[uint64]T
}

func newHandleTable[T any](kind string) *handleTable[T] {
	return &handleTable[T]{
		kind:  kind,
		items: make(map[uint64]T),
	}
}

func (t *handleTable[T]) add(item T) uint64 {
	t.next++
	t.items[t.next] = item
	return t.next
}

func (t *handleTable[T]) get(id uint64) (T, bool) {
	item, ok := t.items[id]
	return item, ok
}

// mustGet panics on ids the table never issued or already released. Such an
// id can only come from a bug in the caller.
func (t *handleTable[T]) mustGet(id uint64) T {
	item, ok := t.items[id]
	if !ok {
		panic(fmt.Sprintf("gfx: unknown %s handle %d", t.kind, id))
	}
	return item
}

func (t *handleTable[T]) remove(id uint64) (T, bool) {
	item, ok := t.items[id]
	if ok {
		delete(t.items, id)
	}
	return item, ok
}

func (t *handleTable[T]) len() int {
	return len(t.items)
}

// drain removes every entry in issue order and passes it to release.
func (t *handleTable[T]) drain(release func(item T)) {
	ids := make([]uint64, 0, len(t.items))
	for id := range t.items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		item := t.items[id]
		delete(t.items, id)
		release(item)
	}
}
