package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/examshaala/examshaala-portal/internal/common"
	"github.com/examshaala/examshaala-portal/internal/config"
	"github.com/examshaala/examshaala-portal/internal/identity/local"
	"github.com/examshaala/examshaala-portal/internal/profile"
	"github.com/examshaala/examshaala-portal/internal/storage/badger"
)

func TestLoadUsersFile_Valid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "users.json")
	data := `{"users":[{"full_name":"Asha Verma","email":"asha@example.com","password":"secret1","exam_category":"JEE"}]}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	users, err := loadUsersFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected 1 user, got %d", len(users))
	}
	if users[0].FullName != "Asha Verma" {
		t.Errorf("expected full name Asha Verma, got %s", users[0].FullName)
	}
	if users[0].Email != "asha@example.com" {
		t.Errorf("expected email asha@example.com, got %s", users[0].Email)
	}
	if users[0].ExamCategory != "JEE" {
		t.Errorf("expected exam category JEE, got %s", users[0].ExamCategory)
	}
}

func TestLoadUsersFile_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "users.json")
	if err := os.WriteFile(path, []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := loadUsersFile(path)
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestLoadUsersFile_NotFound(t *testing.T) {
	_, err := loadUsersFile("/nonexistent/path/users.json")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadUsersFile_EmptyUsers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "users.json")
	if err := os.WriteFile(path, []byte(`{"users":[]}`), 0644); err != nil {
		t.Fatal(err)
	}

	users, err := loadUsersFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(users) != 0 {
		t.Errorf("expected 0 users, got %d", len(users))
	}
}

type fixture struct {
	provider *local.Provider
	profiles *profile.Synchronizer
	store    *badger.Manager
	logger   *common.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := common.NewSilentLogger()
	mgr, err := badger.NewManager(logger, &config.BadgerConfig{Path: t.TempDir()})
	if err != nil {
		t.Fatalf("failed to open badger: %v", err)
	}
	t.Cleanup(func() { mgr.Close() })

	return &fixture{
		provider: local.NewProvider(mgr.AccountStore(), logger).WithCost(bcrypt.MinCost),
		profiles: profile.NewSynchronizer(mgr.ProfileStore(), nil, nil, logger),
		store:    mgr,
		logger:   logger,
	}
}

func TestSeedAll_CreatesAccountsAndProfiles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	users := []User{
		{FullName: "Asha Verma", Email: "asha@example.com", Password: "secret1", ExamCategory: "JEE"},
		{Email: "ravi@example.com", Password: "secret2"},
	}

	created, err := seedAll(ctx, f.provider, f.profiles, users, f.logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created != 2 {
		t.Fatalf("expected 2 created, got %d", created)
	}

	id, err := f.provider.Authenticate(ctx, "asha@example.com", "secret1")
	if err != nil {
		t.Fatalf("seeded account cannot sign in: %v", err)
	}
	p, err := f.store.ProfileStore().GetProfile(ctx, id.UID)
	if err != nil {
		t.Fatalf("expected profile for seeded user: %v", err)
	}
	if p.FullName != "Asha Verma" {
		t.Errorf("expected full name Asha Verma, got %s", p.FullName)
	}
	if p.ExamCategory != "JEE" {
		t.Errorf("expected exam category JEE, got %s", p.ExamCategory)
	}
}

func TestSeedAll_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	users := []User{{FullName: "Asha Verma", Email: "asha@example.com", Password: "secret1"}}

	if _, err := seedAll(ctx, f.provider, f.profiles, users, f.logger); err != nil {
		t.Fatalf("first seed failed: %v", err)
	}
	created, err := seedAll(ctx, f.provider, f.profiles, users, f.logger)
	if err != nil {
		t.Fatalf("second seed failed: %v", err)
	}
	if created != 0 {
		t.Errorf("expected 0 created on reseed, got %d", created)
	}
}

func TestSeedAll_StopsOnFirstError(t *testing.T) {
	f := newFixture(t)
	users := []User{
		{Email: "asha@example.com", Password: "secret1"},
		{Email: "ravi@example.com", Password: "123"},
		{Email: "meera@example.com", Password: "secret3"},
	}

	created, err := seedAll(context.Background(), f.provider, f.profiles, users, f.logger)
	if err == nil {
		t.Fatal("expected error for weak password")
	}
	if created != 1 {
		t.Errorf("expected 1 created before the failure, got %d", created)
	}
	if _, err := f.provider.Authenticate(context.Background(), "meera@example.com", "secret3"); err == nil {
		t.Error("expected users after the failure to be skipped")
	}
}
