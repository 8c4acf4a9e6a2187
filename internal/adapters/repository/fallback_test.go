package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/agrolens/agrolens/internal/domain/model"
)

// stubStore returns canned rows or a canned error.
type stubStore struct {
	rows  []model.MetricObservation
	err   error
	calls int
}

func (s *stubStore) Fetch(_ context.Context, _, _ []string, _ model.YearRange) ([]model.MetricObservation, error) {
	s.calls++
	return s.rows, s.err
}

func TestFallbackStore_PrimaryHealthy(t *testing.T) {
	primary := &stubStore{rows: []model.MetricObservation{{UnitID: "a", Year: 2010, Variable: "wheat_yield", Value: 3}}}
	secondary := &stubStore{rows: []model.MetricObservation{{UnitID: "x"}}}
	store := NewFallbackStore(primary, secondary, nil)

	rows, err := store.Fetch(context.Background(), []string{"a"}, []string{"wheat_yield"}, model.YearRange{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].UnitID != "a" {
		t.Fatalf("expected primary rows, got %v", rows)
	}
	if secondary.calls != 0 {
		t.Error("secondary must not be consulted when primary is healthy")
	}
}

func TestFallbackStore_EmptyPrimaryIsNotFallback(t *testing.T) {
	primary := &stubStore{}
	secondary := &stubStore{rows: []model.MetricObservation{{UnitID: "x"}}}
	store := NewFallbackStore(primary, secondary, nil)

	rows, err := store.Fetch(context.Background(), []string{"a"}, []string{"wheat_yield"}, model.YearRange{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected the primary's empty answer, got %v", rows)
	}
	if secondary.calls != 0 {
		t.Error("an empty row set is a valid answer, not a fallback trigger")
	}
}

func TestFallbackStore_Unavailable(t *testing.T) {
	primary := &stubStore{err: fmt.Errorf("%w: connection refused", ErrStoreUnavailable)}
	secondary := &stubStore{rows: []model.MetricObservation{{UnitID: "a", Year: 2010, Variable: "wheat_yield", Value: 3}}}
	store := NewFallbackStore(primary, secondary, nil)

	rows, err := store.Fetch(context.Background(), []string{"a"}, []string{"wheat_yield"}, model.YearRange{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].UnitID != "a" {
		t.Fatalf("expected secondary rows, got %v", rows)
	}
}

func TestFallbackStore_OtherErrorsPassThrough(t *testing.T) {
	bad := errors.New("query syntax error")
	primary := &stubStore{err: bad}
	secondary := &stubStore{}
	store := NewFallbackStore(primary, secondary, nil)

	_, err := store.Fetch(context.Background(), []string{"a"}, []string{"wheat_yield"}, model.YearRange{})
	if !errors.Is(err, bad) {
		t.Fatalf("expected the primary's error, got %v", err)
	}
	if secondary.calls != 0 {
		t.Error("non-availability errors must not trigger the fallback")
	}
}

func TestFallbackStore_NoSecondary(t *testing.T) {
	primary := &stubStore{err: fmt.Errorf("%w: down", ErrStoreUnavailable)}
	store := NewFallbackStore(primary, nil, nil)

	_, err := store.Fetch(context.Background(), []string{"a"}, []string{"wheat_yield"}, model.YearRange{})
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}
