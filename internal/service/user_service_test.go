package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shinyyama/secondchances-backend/internal/repository"
)

func TestSyncIdentity(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	users := NewUserService(env.users, repository.NewRatingRepository(env.db), &memImageStore{})

	if err := users.SyncIdentity(ctx, "fb-1", "", "https://img/p.png", "Hana@Example.com"); err != nil {
		t.Fatalf("SyncIdentity: %v", err)
	}
	u, err := users.Get(ctx, "fb-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if u.DisplayName != "Hana" || *u.Email != "hana@example.com" || *u.AvatarURL != "https://img/p.png" {
		t.Fatalf("profile=%+v", u)
	}

	if _, err := users.UpdateDisplayName(ctx, "fb-1", "  Hana K.  "); err != nil {
		t.Fatalf("UpdateDisplayName: %v", err)
	}
	// a later token must not undo the rename
	if err := users.SyncIdentity(ctx, "fb-1", "Hana from token", "", "hana@example.com"); err != nil {
		t.Fatalf("SyncIdentity again: %v", err)
	}
	u, _ = users.Get(ctx, "fb-1")
	if u.DisplayName != "Hana K." {
		t.Fatalf("display name=%q", u.DisplayName)
	}

	if _, err := users.UpdateDisplayName(ctx, "fb-1", strings.Repeat("x", 61)); !IsValidation(err) {
		t.Fatalf("long name err=%v", err)
	}
	if _, err := users.Get(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("ghost err=%v", err)
	}
}

func TestSetAvatar(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "alice")
	store := &memImageStore{}
	users := NewUserService(env.users, repository.NewRatingRepository(env.db), store)

	if _, err := users.SetAvatar(ctx, "alice", "text/plain", strings.NewReader("x")); !IsValidation(err) {
		t.Fatalf("text upload err=%v", err)
	}
	u, err := users.SetAvatar(ctx, "alice", "image/png", strings.NewReader("png"))
	if err != nil {
		t.Fatalf("SetAvatar: %v", err)
	}
	if u.AvatarURL == nil || *u.AvatarURL != store.uploads[0] {
		t.Fatalf("avatar=%v uploads=%v", u.AvatarURL, store.uploads)
	}
}

func TestBoxValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	boxes := NewBoxService(repository.NewBoxRepository(env.db), &memImageStore{})
	start := time.Date(2026, 3, 1, 17, 0, 0, 0, time.UTC)
	valid := func() BoxInput {
		return BoxInput{
			Title: "Veg box", Description: "odd carrots", Category: "produce",
			PriceYen: 400, Quantity: 2, PickupStartsAt: start, PickupEndsAt: start.Add(time.Hour),
		}
	}
	dataURI := "data:image/png;base64,AAAA"
	tests := []struct {
		name   string
		mutate func(*BoxInput)
	}{
		{"empty title", func(in *BoxInput) { in.Title = "  " }},
		{"long title", func(in *BoxInput) { in.Title = strings.Repeat("t", 121) }},
		{"free", func(in *BoxInput) { in.PriceYen = 0 }},
		{"negative stock", func(in *BoxInput) { in.Quantity = -1 }},
		{"window reversed", func(in *BoxInput) { in.PickupEndsAt = start.Add(-time.Minute) }},
		{"data uri", func(in *BoxInput) { in.ImageURL = &dataURI }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid()
			tt.mutate(&in)
			if _, err := boxes.Create(ctx, "seller", in); !IsValidation(err) {
				t.Fatalf("err=%v", err)
			}
		})
	}

	box, err := boxes.Create(ctx, "seller", valid())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	upd := valid()
	upd.Quantity = 5
	if _, err := boxes.Update(ctx, box.ID, "intruder", upd); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign update err=%v", err)
	}
	got, err := boxes.Update(ctx, box.ID, "seller", upd)
	if err != nil || got.Quantity != 5 {
		t.Fatalf("update=%+v err=%v", got, err)
	}
	withImage, err := boxes.SetImage(ctx, box.ID, "seller", "image/jpeg", strings.NewReader("jpg"))
	if err != nil || withImage.ImageURL == nil {
		t.Fatalf("SetImage=%+v err=%v", withImage, err)
	}
	list, total, err := boxes.List(ctx, 0, -1, "produce")
	if err != nil || total != 1 || len(list) != 1 {
		t.Fatalf("list=%v total=%d err=%v", list, total, err)
	}
}
