package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/examshaala/examshaala-portal/internal/models"
)

func profile(uid, name string) *models.UserProfile {
	return &models.UserProfile{ID: uid, FullName: name, Role: models.RoleStudent}
}

func TestProfileCache_GetSet(t *testing.T) {
	c := New(5*time.Second, 100)
	c.Set(profile("u1", "Priya"))

	got, ok := c.Get("u1")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got.FullName != "Priya" {
		t.Errorf("expected Priya, got %s", got.FullName)
	}
}

func TestProfileCache_ReturnsCopy(t *testing.T) {
	c := New(5*time.Second, 100)
	p := profile("u1", "Priya")
	c.Set(p)
	p.FullName = "mutated"

	got, _ := c.Get("u1")
	got.FullName = "also mutated"

	again, _ := c.Get("u1")
	if again.FullName != "Priya" {
		t.Errorf("expected cached value isolated from callers, got %s", again.FullName)
	}
}

func TestProfileCache_Miss(t *testing.T) {
	c := New(5*time.Second, 100)

	if _, ok := c.Get("nonexistent"); ok {
		t.Error("expected cache miss for nonexistent key")
	}
}

func TestProfileCache_TTLExpiration(t *testing.T) {
	c := New(50*time.Millisecond, 100)
	c.Set(profile("u1", "Priya"))

	if _, ok := c.Get("u1"); !ok {
		t.Fatal("expected cache hit before expiry")
	}

	time.Sleep(60 * time.Millisecond)

	if _, ok := c.Get("u1"); ok {
		t.Error("expected cache miss after TTL expiration")
	}
	if c.Len() != 0 {
		t.Errorf("expected expired entry removed, got %d entries", c.Len())
	}
}

func TestProfileCache_MaxEntries(t *testing.T) {
	c := New(5*time.Second, 3)

	for i := 0; i < 4; i++ {
		c.Set(profile(fmt.Sprintf("u%d", i), "x"))
	}

	if c.Len() != 3 {
		t.Errorf("expected 3 entries, got %d", c.Len())
	}
	if _, ok := c.Get("u0"); ok {
		t.Error("expected oldest entry evicted")
	}
	if _, ok := c.Get("u3"); !ok {
		t.Error("expected newest entry present")
	}
}

func TestProfileCache_OverwriteExistingKey(t *testing.T) {
	c := New(5*time.Second, 2)
	c.Set(profile("u1", "old"))
	c.Set(profile("u2", "x"))
	c.Set(profile("u1", "new"))

	if c.Len() != 2 {
		t.Errorf("expected 2 entries, got %d", c.Len())
	}
	got, _ := c.Get("u1")
	if got.FullName != "new" {
		t.Errorf("expected new, got %s", got.FullName)
	}
}

func TestProfileCache_Invalidate(t *testing.T) {
	c := New(5*time.Second, 10)
	c.Set(profile("u1", "Priya"))
	c.Set(profile("u2", "Ravi"))

	c.Invalidate("u1")
	c.Invalidate("missing")

	if _, ok := c.Get("u1"); ok {
		t.Error("expected u1 invalidated")
	}
	if _, ok := c.Get("u2"); !ok {
		t.Error("expected u2 untouched")
	}
}

func TestProfileCache_ThreadSafety(t *testing.T) {
	c := New(5*time.Second, 50)
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			uid := fmt.Sprintf("u%d", n%10)
			c.Set(profile(uid, "x"))
			c.Get(uid)
			if n%5 == 0 {
				c.Invalidate(uid)
			}
		}(i)
	}
	wg.Wait()
}
