package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStore_SetAndGet(t *testing.T) {
	s := NewMemoryStore()
	defer s.Stop()
	ctx := context.Background()

	tests := []struct {
		name  string
		key   string
		value string
	}{
		{
			name:  "simple_key_value",
			key:   "test-key",
			value: "test-value",
		},
		{
			name:  "namespaced_key",
			key:   "nodepulse:nodes:all",
			value: `[{"public_key":"abc"}]`,
		},
		{
			name:  "empty_value",
			key:   "empty-key",
			value: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.Set(ctx, tt.key, tt.value, time.Second); err != nil {
				t.Fatalf("Set returned error: %v", err)
			}

			value, ok := s.Get(ctx, tt.key)
			if !ok {
				t.Error("Expected key to exist in cache")
			}

			if value != tt.value {
				t.Errorf("Expected value %q, got %q", tt.value, value)
			}
		})
	}
}

func TestMemoryStore_GetNonExistent(t *testing.T) {
	s := NewMemoryStore()
	defer s.Stop()

	value, ok := s.Get(context.Background(), "nonexistent-key")
	if ok {
		t.Error("Expected key to not exist")
	}

	if value != "" {
		t.Errorf("Expected empty value, got %q", value)
	}
}

func TestMemoryStore_GetExpired(t *testing.T) {
	s := NewMemoryStore()
	defer s.Stop()
	ctx := context.Background()

	_ = s.Set(ctx, "test-key", "test-value", 100*time.Millisecond)

	value, ok := s.Get(ctx, "test-key")
	if !ok {
		t.Fatal("Expected key to exist immediately after setting")
	}
	if value != "test-value" {
		t.Errorf("Expected value 'test-value', got %q", value)
	}

	time.Sleep(150 * time.Millisecond)

	value, ok = s.Get(ctx, "test-key")
	if ok {
		t.Error("Expected key to be expired")
	}
	if value != "" {
		t.Errorf("Expected empty value for expired key, got %q", value)
	}
}

func TestMemoryStore_PerKeyTTL(t *testing.T) {
	s := NewMemoryStore()
	defer s.Stop()
	ctx := context.Background()

	_ = s.Set(ctx, "short", "v1", 50*time.Millisecond)
	_ = s.Set(ctx, "long", "v2", 5*time.Second)

	time.Sleep(100 * time.Millisecond)

	if _, ok := s.Get(ctx, "short"); ok {
		t.Error("Expected short-TTL key to be expired")
	}

	value, ok := s.Get(ctx, "long")
	if !ok {
		t.Error("Expected long-TTL key to still exist")
	}
	if value != "v2" {
		t.Errorf("Expected value 'v2', got %q", value)
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	s := NewMemoryStore()
	defer s.Stop()
	ctx := context.Background()

	_ = s.Set(ctx, "test-key", "test-value", time.Second)

	if _, ok := s.Get(ctx, "test-key"); !ok {
		t.Fatal("Expected key to exist after setting")
	}

	if err := s.Delete(ctx, "test-key"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	if _, ok := s.Get(ctx, "test-key"); ok {
		t.Error("Expected key to be deleted")
	}

	// Deleting an absent key is not an error
	if err := s.Delete(ctx, "test-key"); err != nil {
		t.Errorf("Delete of absent key returned error: %v", err)
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	s := NewMemoryStore()
	defer s.Stop()
	ctx := context.Background()

	done := make(chan bool)

	go func() {
		for i := 0; i < 100; i++ {
			_ = s.Set(ctx, "key", "value", time.Second)
		}
		done <- true
	}()

	go func() {
		for i := 0; i < 100; i++ {
			s.Get(ctx, "key")
		}
		done <- true
	}()

	go func() {
		for i := 0; i < 100; i++ {
			_ = s.Delete(ctx, "key")
		}
		done <- true
	}()

	<-done
	<-done
	<-done
}
