// Package seed loads development accounts into the local identity provider.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/examshaala/examshaala-portal/internal/common"
	"github.com/examshaala/examshaala-portal/internal/identity"
	"github.com/examshaala/examshaala-portal/internal/interfaces"
	"github.com/examshaala/examshaala-portal/internal/profile"
)

const usersFileName = "import/users.json"

// User is one entry of the users seed file.
type User struct {
	FullName     string `json:"full_name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	ExamCategory string `json:"exam_category"`
}

// usersFile is the JSON structure for the users seed file.
type usersFile struct {
	Users []User `json:"users"`
}

// DevUsers seeds accounts from import/users.json through provider, creating
// each user's profile as a first sign-in would. Accounts that already exist
// are left alone. Failures are logged and never fatal.
func DevUsers(ctx context.Context, provider interfaces.IdentityProvider, profiles *profile.Synchronizer, logger *common.Logger) {
	path := findUsersFile()
	if path == "" {
		logger.Warn().Msg("seed: import/users.json not found, skipping dev user seeding")
		return
	}

	users, err := loadUsersFile(path)
	if err != nil {
		logger.Error().Str("error", err.Error()).Str("path", path).Msg("seed: failed to load users file")
		return
	}

	if len(users) == 0 {
		logger.Warn().Msg("seed: users file is empty, skipping dev user seeding")
		return
	}

	created, err := seedAll(ctx, provider, profiles, users, logger)
	if err != nil {
		logger.Warn().Str("error", err.Error()).Msg("seed: failed to seed dev users, continuing without seeding")
		return
	}
	logger.Info().Int("users", len(users)).Int("created", created).Msg("seed: dev users seeded successfully")
}

// findUsersFile searches for import/users.json relative to the executable
// directory first, then falls back to the current working directory.
func findUsersFile() string {
	if exe, err := os.Executable(); err == nil {
		binDir := filepath.Dir(exe)
		p := filepath.Join(binDir, usersFileName)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	if _, err := os.Stat(usersFileName); err == nil {
		return usersFileName
	}

	return ""
}

// loadUsersFile reads and parses the users JSON file.
func loadUsersFile(path string) ([]User, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var f usersFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse JSON: %w", err)
	}

	return f.Users, nil
}

// seedAll creates each user, returning on first error. It reports how many
// accounts were new.
func seedAll(ctx context.Context, provider interfaces.IdentityProvider, profiles *profile.Synchronizer, users []User, logger *common.Logger) (int, error) {
	created := 0
	for _, u := range users {
		id, err := provider.CreateAccount(ctx, u.Email, u.Password)
		if identity.CodeOf(err) == identity.CodeEmailExists {
			logger.Debug().Str("email", u.Email).Msg("seed: account exists, skipping")
			continue
		}
		if err != nil {
			return created, fmt.Errorf("create %s: %w", u.Email, err)
		}
		created++

		if u.FullName != "" {
			if err := provider.SetDisplayName(ctx, id, u.FullName); err != nil {
				return created, fmt.Errorf("set display name for %s: %w", u.Email, err)
			}
			id.DisplayName = u.FullName
		}

		if profiles != nil {
			seed := profile.Seed{FullName: u.FullName, ExamCategory: u.ExamCategory}
			if err := profiles.EnsureProfile(ctx, id, seed); err != nil {
				return created, fmt.Errorf("create profile for %s: %w", u.Email, err)
			}
		}
		logger.Debug().Str("email", u.Email).Msg("seed: created user")
	}
	return created, nil
}
