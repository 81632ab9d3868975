package redisad_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	redisad "skillswap/internal/adapters/redis"
)

type payload struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

func TestCache_SetGetDel(t *testing.T) {
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })
	ctx := context.Background()

	if err := c.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	var got payload
	ok, err := c.Get(ctx, "analysis:u1", &got)
	if err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	if err := c.Set(ctx, "analysis:u1", payload{Name: "a", Items: []string{"x"}}, 60); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !mr.Exists("skillswap:analysis:u1") {
		t.Fatalf("expected prefixed key in redis, keys=%v", mr.Keys())
	}

	ok, err = c.Get(ctx, "analysis:u1", &got)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if got.Name != "a" || len(got.Items) != 1 || got.Items[0] != "x" {
		t.Fatalf("unexpected payload: %+v", got)
	}

	if err := c.Del(ctx, "analysis:u1"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if ok, _ := c.Get(ctx, "analysis:u1", &got); ok {
		t.Fatalf("expected miss after del")
	}
}

func TestCache_TTL(t *testing.T) {
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })
	ctx := context.Background()

	if err := c.Set(ctx, "k", payload{Name: "b"}, 30); err != nil {
		t.Fatalf("set: %v", err)
	}
	mr.FastForward(31 * time.Second)

	var got payload
	if ok, _ := c.Get(ctx, "k", &got); ok {
		t.Fatalf("expected key to expire")
	}
}
