package cache

import (
	"testing"
	"time"
)

func TestSetAndGet(t *testing.T) {
	c := New[string](1 * time.Minute)

	c.Set("categories", "Bolos,Cupcakes")

	got, ok := c.Get("categories")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got != "Bolos,Cupcakes" {
		t.Errorf("got %q, want %q", got, "Bolos,Cupcakes")
	}
}

func TestGetMiss(t *testing.T) {
	c := New[int](1 * time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("expected cache miss for unknown key")
	}
}

func TestExpiration(t *testing.T) {
	c := New[string](10 * time.Millisecond)

	c.Set("k", "v")
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Error("expected expired entry to miss")
	}
}

func TestDelete(t *testing.T) {
	c := New[string](1 * time.Minute)

	c.Set("k", "v")
	c.Delete("k")

	if _, ok := c.Get("k"); ok {
		t.Error("expected miss after delete")
	}
}
