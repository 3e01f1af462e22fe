package redis

import (
	"context"
	"sort"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestApprovedRepoRoundTrip(t *testing.T) {
	mr, client := newTestClient(t)
	repo := NewApprovedRepo(client)
	ctx := context.Background()

	for _, id := range []int64{42, 7, 42} {
		if err := repo.Add(ctx, id); err != nil {
			t.Fatalf("add %d: %v", id, err)
		}
	}
	_, _ = mr.SAdd(approvedKey, "garbage")

	ids, err := repo.Members(ctx)
	if err != nil {
		t.Fatalf("members: %v", err)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if len(ids) != 2 || ids[0] != 7 || ids[1] != 42 {
		t.Fatalf("unexpected members: %v", ids)
	}

	ok, err := repo.Contains(ctx, 42)
	if err != nil || !ok {
		t.Fatalf("expected 42 approved, got %v (%v)", ok, err)
	}
	ok, err = repo.Contains(ctx, 99)
	if err != nil || ok {
		t.Fatalf("expected 99 not approved, got %v (%v)", ok, err)
	}
}

func TestApprovedRepoRejectsZeroID(t *testing.T) {
	_, client := newTestClient(t)
	if err := NewApprovedRepo(client).Add(context.Background(), 0); err == nil {
		t.Fatal("expected error for zero entity id")
	}
}

func TestApprovedRepoNilClient(t *testing.T) {
	repo := NewApprovedRepo(nil)
	if _, err := repo.Members(context.Background()); err == nil {
		t.Fatal("expected error for nil client")
	}
}

func TestNewClientPings(t *testing.T) {
	mr, _ := newTestClient(t)

	client, err := NewClient(context.Background(), mr.Addr(), "", 0)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_ = client.Close()

	if _, err := NewClient(context.Background(), "", "", 0); err == nil {
		t.Fatal("expected error for empty addr")
	}
}
