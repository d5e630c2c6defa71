package service

import (
	"context"
	"io"
	"testing"

	"github.com/shinyyama/secondchances-backend/internal/db/dbtest"
	"github.com/shinyyama/secondchances-backend/internal/model"
	"github.com/shinyyama/secondchances-backend/internal/repository"
	"gorm.io/gorm"
)

type testEnv struct {
	db       *gorm.DB
	users    repository.UserRepository
	convRepo repository.ConversationRepository
	notes    repository.NotificationRepository
	notifier NotificationService
	chat     ConversationService
}

func newTestEnv(t *testing.T, uids ...string) *testEnv {
	t.Helper()
	gdb := dbtest.Open(t)
	env := &testEnv{
		db:       gdb,
		users:    repository.NewUserRepository(gdb),
		convRepo: repository.NewConversationRepository(gdb),
		notes:    repository.NewNotificationRepository(gdb),
	}
	env.notifier = NewNotificationService(env.notes)
	env.chat = NewConversationService(env.convRepo, env.users, env.notifier)
	for _, uid := range uids {
		if err := env.users.Upsert(context.Background(), &model.UserProfile{UID: uid, DisplayName: "User " + uid}); err != nil {
			t.Fatalf("seed user %s: %v", uid, err)
		}
	}
	return env
}

func (e *testEnv) conversation(t *testing.T, id uint64) *model.Conversation {
	t.Helper()
	cv, err := e.convRepo.FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("load conversation %d: %v", id, err)
	}
	return cv
}

type memImageStore struct {
	uploads []string
}

func (m *memImageStore) Upload(_ context.Context, folder, _ string, _ io.Reader) (string, error) {
	url := "https://storage.example/" + folder + "/img.png"
	m.uploads = append(m.uploads, url)
	return url, nil
}
