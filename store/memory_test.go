package store

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/rushteam/learnpath/core"
)

func TestMemoryStore_GetSetDelete(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	ctx := context.Background()

	if _, err := ms.Get(ctx, "missing"); !core.IsStoreNotFound(err) {
		t.Errorf("Get missing key error = %v, want store not found", err)
	}

	if err := ms.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err := ms.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != "v" {
		t.Errorf("Get() = %q, want %q", got, "v")
	}

	if err := ms.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := ms.Get(ctx, "k"); !core.IsStoreNotFound(err) {
		t.Errorf("Get after delete error = %v, want store not found", err)
	}
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	ctx := context.Background()

	if err := ms.Set(ctx, "k", []byte("v"), 1); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, err := ms.Get(ctx, "k"); err != nil {
		t.Fatalf("Get before expiry error = %v", err)
	}

	// expiry is checked on read, no need to wait for the cleaner
	time.Sleep(1100 * time.Millisecond)
	if _, err := ms.Get(ctx, "k"); !core.IsStoreNotFound(err) {
		t.Errorf("Get after expiry error = %v, want store not found", err)
	}
}

func TestMemoryStore_SetOperations(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	ctx := context.Background()

	if err := ms.SAdd(ctx, "seen:1", "10", "11"); err != nil {
		t.Fatalf("SAdd() error = %v", err)
	}
	if err := ms.SAdd(ctx, "seen:1", "11", "12"); err != nil {
		t.Fatalf("SAdd() error = %v", err)
	}

	ok, err := ms.SIsMember(ctx, "seen:1", "10")
	if err != nil || !ok {
		t.Errorf("SIsMember(10) = %v, %v, want true", ok, err)
	}
	ok, err = ms.SIsMember(ctx, "seen:1", "99")
	if err != nil || ok {
		t.Errorf("SIsMember(99) = %v, %v, want false", ok, err)
	}

	members, err := ms.SMembers(ctx, "seen:1")
	if err != nil {
		t.Fatalf("SMembers() error = %v", err)
	}
	sort.Strings(members)
	want := []string{"10", "11", "12"}
	if len(members) != len(want) {
		t.Fatalf("SMembers() = %v, want %v", members, want)
	}
	for i := range want {
		if members[i] != want[i] {
			t.Fatalf("SMembers() = %v, want %v", members, want)
		}
	}

	// unknown set is empty, not an error
	members, err = ms.SMembers(ctx, "seen:2")
	if err != nil || len(members) != 0 {
		t.Errorf("SMembers(unknown) = %v, %v, want empty", members, err)
	}
}
