package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemory_SetGet(t *testing.T) {
	m := NewMemory()
	defer m.Close()

	m.Set(context.Background(), "k", []byte("v"), time.Minute)
	data, ok := m.Get(context.Background(), "k")
	if !ok || string(data) != "v" {
		t.Fatalf("Get=(%q,%v) want (v,true)", data, ok)
	}
	if _, ok := m.Get(context.Background(), "missing"); ok {
		t.Fatal("missing key must miss")
	}
}

func TestMemory_ExpiredEntryMisses(t *testing.T) {
	m := NewMemory()
	defer m.Close()

	m.Set(context.Background(), "k", []byte("v"), -time.Second)
	if _, ok := m.Get(context.Background(), "k"); ok {
		t.Fatal("expired entry must miss")
	}
}

func TestMemory_EvictExpired(t *testing.T) {
	m := NewMemory()
	defer m.Close()

	m.Set(context.Background(), "old", []byte("v"), time.Minute)
	m.Set(context.Background(), "new", []byte("v"), time.Hour)

	m.evictExpired(time.Now().Add(30 * time.Minute))

	m.mu.RLock()
	_, oldKept := m.entries["old"]
	_, newKept := m.entries["new"]
	m.mu.RUnlock()
	if oldKept {
		t.Fatal("expired entry not evicted")
	}
	if !newKept {
		t.Fatal("live entry evicted")
	}
}

func TestMemory_CloseIsIdempotent(t *testing.T) {
	m := NewMemory()
	m.Close()
	m.Close()
}

func TestNew_DisabledIsNoOp(t *testing.T) {
	c := New("", false)
	c.Set(context.Background(), "k", []byte("v"), time.Minute)
	if _, ok := c.Get(context.Background(), "k"); ok {
		t.Fatal("disabled cache must not store")
	}
	if stats := c.Stats(); stats["enabled"] != false {
		t.Fatalf("stats=%v want enabled=false", stats)
	}
}
