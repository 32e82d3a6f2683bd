package cache_test

import (
	"testing"
	"time"

	"github.com/emprestai/emprestai-go/internal/infra/cache"
)

func TestCache_SetAndGet(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	c.Set("51020000", "Recife")
	val, ok := c.Get("51020000")
	if !ok {
		t.Fatal("expected key to exist")
	}
	if val != "Recife" {
		t.Errorf("expected 'Recife', got '%s'", val)
	}
}

func TestCache_GetMiss(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	if _, ok := c.Get("00000000"); ok {
		t.Fatal("expected cache miss for unknown key")
	}
}

func TestCache_Expiration(t *testing.T) {
	c := cache.New[string](50 * time.Millisecond)

	c.Set("51020000", "Recife")
	time.Sleep(100 * time.Millisecond)

	if _, ok := c.Get("51020000"); ok {
		t.Fatal("expected entry to be expired")
	}
}

func TestCache_Delete(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	c.Set("51020000", "Recife")
	c.Delete("51020000")

	if _, ok := c.Get("51020000"); ok {
		t.Fatal("expected key to be deleted")
	}
}
