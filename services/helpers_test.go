package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/LovationAdmin/financas-api/models"
	"github.com/LovationAdmin/financas-api/storage"
	"github.com/LovationAdmin/financas-api/storage/storagetest"
	"github.com/LovationAdmin/financas-api/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const testKey = "0123456789abcdef0123456789abcdef"

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) LedgerChanged(_ context.Context, _ int64, entity string) {
	n.mu.Lock()
	n.events = append(n.events, entity)
	n.mu.Unlock()
}

func (n *recordingNotifier) Events() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.events...)
}

func testBox(t *testing.T) *utils.SecretBox {
	t.Helper()
	box, err := utils.NewSecretBox(testKey)
	require.NoError(t, err)
	return box
}

func newUsers(t *testing.T, db *storage.Gateway, clock *fakeClock) *UserService {
	t.Helper()
	users := NewUserService(db, testBox(t), nil)
	users.now = clock.Now
	return users
}

func createUser(t *testing.T, users *UserService, email, phone string) *models.User {
	t.Helper()
	user, err := users.Signup(context.Background(), models.SignupRequest{
		Name:     "Ana",
		Surname:  "Souza",
		Email:    email,
		Password: "s3cret-pass",
		Phone:    phone,
	})
	require.NoError(t, err)
	return user
}

func setup(t *testing.T) (*storage.Gateway, *fakeClock, *UserService) {
	t.Helper()
	db := storagetest.New(t)
	clock := newClock()
	return db, clock, newUsers(t, db, clock)
}

func amt(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
