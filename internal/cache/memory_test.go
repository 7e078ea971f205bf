package cache

import (
	"errors"
	"fmt"
	"testing"
)

func TestMemoryGetPut(t *testing.T) {
	c := NewMemory(1024)

	if _, ok := c.Get("missing"); ok {
		t.Error("Get hit on an empty cache")
	}

	if err := c.Put("a", []byte("hello")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok := c.Get("a")
	if !ok || string(got) != "hello" {
		t.Errorf("Get = %q, %v; want hello, true", got, ok)
	}
	if c.Len() != 1 || c.Size() != 5 {
		t.Errorf("Len=%d Size=%d, want 1 and 5", c.Len(), c.Size())
	}
}

func TestMemoryUpdateInPlace(t *testing.T) {
	c := NewMemory(1024)

	if err := c.Put("a", []byte("short")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := c.Put("a", []byte("considerably longer value")); err != nil {
		t.Fatalf("Put update: %v", err)
	}

	if c.Len() != 1 {
		t.Errorf("Len = %d after update, want 1", c.Len())
	}
	if c.Size() != int64(len("considerably longer value")) {
		t.Errorf("Size = %d, want %d", c.Size(), len("considerably longer value"))
	}
	got, _ := c.Get("a")
	if string(got) != "considerably longer value" {
		t.Errorf("Get = %q after update", got)
	}
}

func TestMemoryEvictsLeastRecentlyUsed(t *testing.T) {
	// Room for exactly two 10-byte values.
	c := NewMemory(20)

	for _, key := range []string{"first", "second"} {
		if err := c.Put(key, make([]byte, 10)); err != nil {
			t.Fatalf("Put %s: %v", key, err)
		}
	}

	// Touch "first" so "second" becomes the eviction candidate.
	if _, ok := c.Get("first"); !ok {
		t.Fatal("first missing before eviction")
	}

	if err := c.Put("third", make([]byte, 10)); err != nil {
		t.Fatalf("Put third: %v", err)
	}

	if _, ok := c.Get("second"); ok {
		t.Error("least recently used entry survived eviction")
	}
	if _, ok := c.Get("first"); !ok {
		t.Error("recently used entry was evicted")
	}
	if _, ok := c.Get("third"); !ok {
		t.Error("new entry missing after eviction")
	}
	if c.Size() > 20 {
		t.Errorf("Size = %d exceeds capacity 20", c.Size())
	}
}

func TestMemoryRejectsOversizeValue(t *testing.T) {
	c := NewMemory(16)

	if err := c.Put("small", make([]byte, 8)); err != nil {
		t.Fatalf("Put small: %v", err)
	}

	err := c.Put("huge", make([]byte, 17))
	if !errors.Is(err, ErrItemTooLarge) {
		t.Fatalf("Put oversize = %v, want ErrItemTooLarge", err)
	}

	// The rejection must not have evicted anything.
	if _, ok := c.Get("small"); !ok {
		t.Error("oversize rejection evicted an existing entry")
	}
}

func TestMemoryDeleteAndClear(t *testing.T) {
	c := NewMemory(1024)

	for i := 0; i < 4; i++ {
		if err := c.Put(fmt.Sprintf("key%d", i), []byte("value")); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}

	c.Delete("key1")
	c.Delete("never existed")
	if c.Len() != 3 {
		t.Errorf("Len = %d after Delete, want 3", c.Len())
	}

	c.Clear()
	if c.Len() != 0 || c.Size() != 0 {
		t.Errorf("Len=%d Size=%d after Clear, want 0 and 0", c.Len(), c.Size())
	}
	if _, ok := c.Get("key0"); ok {
		t.Error("Get hit after Clear")
	}
}
