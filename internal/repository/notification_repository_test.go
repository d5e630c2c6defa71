package repository

import (
	"context"
	"testing"

	"github.com/shinyyama/secondchances-backend/internal/db/dbtest"
	"github.com/shinyyama/secondchances-backend/internal/model"
)

func TestNotificationMarkRead(t *testing.T) {
	ctx := context.Background()
	repo := NewNotificationRepository(dbtest.Open(t))
	conv1, conv2 := uint64(1), uint64(2)

	seed := []model.Notification{
		{UserUID: "u1", Type: model.NotificationMessage, Title: "a", ConversationID: &conv1},
		{UserUID: "u1", Type: model.NotificationMessage, Title: "b", ConversationID: &conv1},
		{UserUID: "u1", Type: model.NotificationMessage, Title: "c", ConversationID: &conv2},
		{UserUID: "u2", Type: model.NotificationMessage, Title: "d", ConversationID: &conv1},
	}
	for i := range seed {
		if err := repo.Create(ctx, &seed[i]); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	n, err := repo.MarkRead(ctx, "u1", &conv1)
	if err != nil || n != 2 {
		t.Fatalf("MarkRead conv1 n=%d err=%v", n, err)
	}
	unread, err := repo.CountUnread(ctx, "u1")
	if err != nil || unread != 1 {
		t.Fatalf("u1 unread=%d err=%v", unread, err)
	}
	if other, _ := repo.CountUnread(ctx, "u2"); other != 1 {
		t.Fatalf("u2 unread=%d", other)
	}

	list, err := repo.ListByUser(ctx, "u1", true, 0)
	if err != nil || len(list) != 1 || list[0].Title != "c" {
		t.Fatalf("unread list=%v err=%v", list, err)
	}
	all, err := repo.ListByUser(ctx, "u1", false, 500)
	if err != nil || len(all) != 3 || all[0].Title != "c" {
		t.Fatalf("all=%v err=%v", all, err)
	}

	if n, err := repo.MarkRead(ctx, "u1", nil); err != nil || n != 1 {
		t.Fatalf("MarkRead all n=%d err=%v", n, err)
	}
	if n, _ := repo.MarkRead(ctx, "u1", nil); n != 0 {
		t.Fatalf("second MarkRead n=%d", n)
	}
}
