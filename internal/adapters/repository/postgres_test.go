package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/agrolens/agrolens/internal/domain/model"
)

func TestOpenPostgres(t *testing.T) {
	store, err := OpenPostgres("postgres://localhost/agrolens_test?sslmode=disable",
		WithConnectTimeout(50*time.Millisecond),
		WithPoolLimits(5, 2),
	)
	if err != nil {
		t.Fatalf("open is lazy and must not fail: %v", err)
	}
	defer store.Close()

	if store.DB() == nil {
		t.Fatal("expected an underlying handle")
	}
	if store.connectTimeout != 50*time.Millisecond {
		t.Errorf("expected configured timeout, got %v", store.connectTimeout)
	}
}

func TestPostgresStore_FetchEmptyFilters(t *testing.T) {
	store, err := OpenPostgres("postgres://localhost/agrolens_test?sslmode=disable")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	// No filters means no query; must not touch the network.
	rows, err := store.Fetch(context.Background(), nil, nil, model.YearRange{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows != nil {
		t.Fatalf("expected no rows, got %v", rows)
	}
}

func TestPostgresStore_UnreachableIsUnavailable(t *testing.T) {
	// Port 1 is never a postgres server; the fetch must degrade to
	// ErrStoreUnavailable within the connect timeout.
	store, err := OpenPostgres("postgres://127.0.0.1:1/agrolens?sslmode=disable&connect_timeout=1",
		WithConnectTimeout(200*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if _, err := store.Fetch(ctx, []string{"a"}, []string{"wheat_yield"}, model.YearRange{}); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Fetch: expected ErrStoreUnavailable, got %v", err)
	}
	if _, err := store.Resolve(ctx, ""); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Resolve: expected ErrStoreUnavailable, got %v", err)
	}
	if err := store.Ping(ctx); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Ping: expected ErrStoreUnavailable, got %v", err)
	}
}
