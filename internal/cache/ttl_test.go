package cache

import (
	"testing"
	"time"
)

func TestSetGetDelete(t *testing.T) {
	c := New(time.Minute)
	if got := c.Get("k"); got != nil {
		t.Fatalf("expected nil for missing key, got %q", got)
	}
	c.Set("k", []byte("v"))
	if got := c.Get("k"); string(got) != "v" {
		t.Fatalf("Get: %q", got)
	}
	c.Delete("k")
	if got := c.Get("k"); got != nil {
		t.Fatalf("expected nil after delete, got %q", got)
	}
}

func TestExpiry(t *testing.T) {
	c := New(10 * time.Millisecond)
	c.Set("k", []byte("v"))
	time.Sleep(20 * time.Millisecond)
	if got := c.Get("k"); got != nil {
		t.Fatalf("expected expired entry, got %q", got)
	}
}

func TestDeletePrefix(t *testing.T) {
	c := New(time.Minute)
	c.Set("pacientes:1", []byte("a"))
	c.Set("pacientes:2", []byte("b"))
	c.Set("outros:1", []byte("c"))
	c.DeletePrefix("pacientes:")
	if c.Get("pacientes:1") != nil || c.Get("pacientes:2") != nil {
		t.Fatal("prefix keys should be gone")
	}
	if string(c.Get("outros:1")) != "c" {
		t.Fatal("other keys must survive")
	}
}
