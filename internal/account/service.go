// Package account covers signup, login and per-user settings.
package account

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/foxseedlab/koenote/internal/apperr"
	"github.com/foxseedlab/koenote/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

type Service struct {
	repo            repository.Repository
	defaultLanguage string
}

func NewService(repo repository.Repository, defaultLanguage string) *Service {
	return &Service{repo: repo, defaultLanguage: defaultLanguage}
}

type SignupInput struct {
	Username string
	Email    string
	Password string
	Language string
}

func (s *Service) Signup(ctx context.Context, input SignupInput) (*repository.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if username == "" || email == "" || input.Password == "" {
		return nil, apperr.Validationf("username, email and password are required")
	}

	if existing, err := s.repo.GetUserByEmail(ctx, email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, apperr.Validationf("email already registered")
	}
	if existing, err := s.repo.GetUserByUsername(ctx, username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, apperr.Validationf("username already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	language := input.Language
	if language == "" {
		language = s.defaultLanguage
	}
	user, err := s.repo.CreateUser(ctx, repository.CreateUserInput{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Language:     language,
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	slog.Info("user created", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Login resolves the account by email. Unknown email and wrong password
// are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*repository.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperr.Validationf("email and password are required")
	}
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.ErrInvalidCredentials
	}
	return user, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (*repository.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %s", apperr.ErrNotFound, id)
	}
	return user, nil
}

// GetSettings returns the stored record, or the defaults when the owner
// has never written settings.
func (s *Service) GetSettings(ctx context.Context, ownerID string) (*repository.Settings, error) {
	settings, err := s.repo.GetSettings(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return repository.DefaultSettings(ownerID, s.defaultLanguage), nil
	}
	return settings, nil
}

func (s *Service) UpdateSettings(ctx context.Context, ownerID string, input repository.UpdateSettingsInput) (*repository.Settings, error) {
	if err := validateSettingsUpdate(input); err != nil {
		return nil, err
	}
	return s.repo.UpsertSettings(ctx, ownerID, s.defaultLanguage, input)
}

func validateSettingsUpdate(input repository.UpdateSettingsInput) error {
	if input.NoteOrganizationStyle != nil {
		switch *input.NoteOrganizationStyle {
		case repository.StyleMinimal, repository.StyleNarrative:
		default:
			return apperr.Validationf("unknown note organization style %q", *input.NoteOrganizationStyle)
		}
	}
	if input.AudioQuality != nil {
		switch *input.AudioQuality {
		case repository.QualityStandard, repository.QualityHigh:
		default:
			return apperr.Validationf("unknown audio quality %q", *input.AudioQuality)
		}
	}
	if input.DataRetention != nil {
		switch *input.DataRetention {
		case repository.RetentionForever, repository.RetentionOneYear, repository.RetentionNinetyDays:
		default:
			return apperr.Validationf("unknown data retention %q", *input.DataRetention)
		}
	}
	return nil
}
