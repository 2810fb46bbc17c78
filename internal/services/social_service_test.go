package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/kakakulog/kakaku-backend/internal/repo"
)

func TestGiveThanks_IncrementsBothSides(t *testing.T) {
	db := newTestDB(t)
	entries := NewEntryService(db)
	social := NewSocialService(db)
	ctx := context.Background()

	id, err := entries.AddEntry(ctx, RawEntry{NormalizedName: "キャベツ", UserID: "owner"})
	if err != nil {
		t.Fatalf("AddEntry: %v", err)
	}

	if err := social.GiveThanks(ctx, id, "owner"); err != nil {
		t.Fatalf("GiveThanks: %v", err)
	}

	e, err := repo.GetEntry(ctx, db, id)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if e.ThanksCount != 1 {
		t.Fatalf("thanksCount = %d, want 1", e.ThanksCount)
	}
	u, err := repo.GetUser(ctx, db, "owner")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if u.ThanksReceived != 1 {
		t.Fatalf("thanksReceived = %d, want 1", u.ThanksReceived)
	}
}

func TestGiveThanks_NoLostUpdatesUnderConcurrency(t *testing.T) {
	db := newTestDB(t)
	entries := NewEntryService(db)
	social := NewSocialService(db)
	ctx := context.Background()

	id, err := entries.AddEntry(ctx, RawEntry{NormalizedName: "牛乳", UserID: "owner"})
	if err != nil {
		t.Fatalf("AddEntry: %v", err)
	}

	const n = 16
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- social.GiveThanks(ctx, id, "owner")
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent GiveThanks: %v", err)
		}
	}

	e, err := repo.GetEntry(ctx, db, id)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if e.ThanksCount != n {
		t.Fatalf("thanksCount = %d, want %d (no lost updates)", e.ThanksCount, n)
	}
	u, err := repo.GetUser(ctx, db, "owner")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if u.ThanksReceived != n {
		t.Fatalf("thanksReceived = %d, want %d", u.ThanksReceived, n)
	}
}

func TestGiveThanks_MissingEntry(t *testing.T) {
	db := newTestDB(t)
	social := NewSocialService(db)

	err := social.GiveThanks(context.Background(), "nope", "owner")
	if !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("err = %v, want ErrEntryNotFound", err)
	}

	// The user aggregate must not have been created.
	if _, err := repo.GetUser(context.Background(), social.DB, "owner"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("user aggregate created despite abort: %v", err)
	}
}
