package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"chatty/database"
	"chatty/models"
)

// fakeStore is an in-memory UserStore and MessageStore. err, when set, is
// returned from every call; block makes calls wait for ctx to expire.
type fakeStore struct {
	mu       sync.Mutex
	users    []*models.User
	messages []*models.Message
	nextID   int
	err      error
	block    bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{}
}

func (f *fakeStore) fail(ctx context.Context) error {
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return f.err
}

func (f *fakeStore) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s%d", prefix, f.nextID)
}

func (f *fakeStore) CreateUser(ctx context.Context, user *models.User) error {
	if err := f.fail(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == user.Username {
			return database.ErrDuplicateUsername
		}
		if u.Email == user.Email {
			return database.ErrDuplicateEmail
		}
	}
	user.ID = f.id("u")
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	f.users = append(f.users, &stored)
	return nil
}

func (f *fakeStore) findUser(ctx context.Context, match func(*models.User) bool) (*models.User, error) {
	if err := f.fail(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if match(u) {
			found := *u
			return &found, nil
		}
	}
	return nil, database.ErrNotFound
}

func (f *fakeStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return f.findUser(ctx, func(u *models.User) bool { return u.ID == id })
}

func (f *fakeStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return f.findUser(ctx, func(u *models.User) bool { return u.Username == username })
}

func (f *fakeStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return f.findUser(ctx, func(u *models.User) bool { return u.Email == email })
}

func (f *fakeStore) ListUsers(ctx context.Context, excludeID, prefix string) ([]*models.User, error) {
	if err := f.fail(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.User
	for _, u := range f.users {
		if u.ID != excludeID && strings.HasPrefix(u.Username, prefix) {
			found := *u
			out = append(out, &found)
		}
	}
	return out, nil
}

func (f *fakeStore) SetAvatar(ctx context.Context, id, image string) (*models.User, error) {
	if err := f.fail(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			u.IsAvatarImageSet = true
			u.AvatarImage = image
			found := *u
			return &found, nil
		}
	}
	return nil, database.ErrNotFound
}

func (f *fakeStore) CreateMessage(ctx context.Context, msg *models.Message) error {
	if err := f.fail(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	msg.ID = f.id("m")
	msg.CreatedAt = time.Now()
	msg.UpdatedAt = msg.CreatedAt
	stored := *msg
	f.messages = append(f.messages, &stored)
	return nil
}

func (f *fakeStore) GetMessageByID(ctx context.Context, id string) (*models.Message, error) {
	if err := f.fail(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.messages {
		if m.ID == id {
			found := *m
			return &found, nil
		}
	}
	return nil, database.ErrNotFound
}

func (f *fakeStore) GetConversation(ctx context.Context, a, b string) ([]*models.Message, error) {
	if err := f.fail(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := database.PairKey(a, b)
	var out []*models.Message
	for _, m := range f.messages {
		if database.PairKey(m.Users[0], m.Users[1]) == key {
			found := *m
			out = append(out, &found)
		}
	}
	return out, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testOptions() Options {
	return Options{StoreTimeout: time.Second, HashCost: 4}
}
