package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/communitylink/membership-api/internal/model"
	"github.com/communitylink/membership-api/internal/shared/database"
	"github.com/communitylink/membership-api/internal/shared/logger"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// LocalProvider keeps identity accounts in the application database.
type LocalProvider struct {
	db         *gorm.DB
	repository *AccountRepository
	hashCost   int
}

var (
	_ Provider      = (*LocalProvider)(nil)
	_ Authenticator = (*LocalProvider)(nil)
)

func NewLocalProvider(db *gorm.DB, repository *AccountRepository) *LocalProvider {
	return &LocalProvider{
		db:         db,
		repository: repository,
		hashCost:   bcrypt.DefaultCost,
	}
}

// WithHashCost lowers the bcrypt cost, for tests.
func (p *LocalProvider) WithHashCost(cost int) *LocalProvider {
	p.hashCost = cost
	return p
}

func (p *LocalProvider) CreateAccount(ctx context.Context, email, password string) (string, error) {
	return p.create(ctx, email, password, []string{GroupMember}, false)
}

// EnsureAdmin creates an enabled admin account unless one already exists for email.
func (p *LocalProvider) EnsureAdmin(ctx context.Context, email, password string) (string, error) {
	existing, err := p.repository.FindByEmail(ctx, p.db, normalizeEmail(email))
	if err == nil {
		groups := splitGroups(existing.Groups)
		if !containsGroup(groups, GroupAdmin) {
			groups = append(groups, GroupAdmin)
			if err := p.repository.SetGroups(ctx, p.db, existing.ID, strings.Join(groups, ",")); err != nil {
				return "", fmt.Errorf("%w: grant admin: %w", ErrUnavailable, err)
			}
		}
		return existing.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("%w: find account: %w", ErrUnavailable, err)
	}
	return p.create(ctx, email, password, []string{GroupAdmin}, true)
}

func (p *LocalProvider) create(ctx context.Context, email, password string, groups []string, enabled bool) (string, error) {
	log := logger.FromContext(ctx)

	if password == "" {
		return "", errors.New("identity: password is required to create an account")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), p.hashCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	account := &model.IdentityAccount{
		ID:       uuid.New().String(),
		Email:    normalizeEmail(email),
		Password: string(hashed),
		Enabled:  enabled,
		Groups:   strings.Join(groups, ","),
	}
	if err := p.repository.Create(ctx, p.db, account); err != nil {
		if database.IsDuplicateKey(err) {
			return "", fmt.Errorf("create account %s: %w", logger.MaskEmail(account.Email), ErrAccountExists)
		}
		return "", fmt.Errorf("%w: create account: %w", ErrUnavailable, err)
	}

	log.Info("Identity account created", "account_id", account.ID, "email", logger.MaskEmail(account.Email))
	return account.ID, nil
}

func (p *LocalProvider) Enable(ctx context.Context, accountID string) error {
	return p.setEnabled(ctx, accountID, true)
}

func (p *LocalProvider) Disable(ctx context.Context, accountID string) error {
	return p.setEnabled(ctx, accountID, false)
}

func (p *LocalProvider) setEnabled(ctx context.Context, accountID string, enabled bool) error {
	rows, err := p.repository.SetEnabled(ctx, p.db, accountID, enabled)
	if err != nil {
		return fmt.Errorf("%w: set enabled=%t: %w", ErrUnavailable, enabled, err)
	}
	if rows == 0 {
		return fmt.Errorf("account %s: %w", accountID, ErrAccountNotFound)
	}

	logger.FromContext(ctx).Info("Identity account updated", "account_id", accountID, "enabled", enabled)
	return nil
}

func (p *LocalProvider) GroupsOf(ctx context.Context, accountID string) ([]string, error) {
	account, err := p.Lookup(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return account.Groups, nil
}

// Lookup returns the current state of an account, enabled or not.
func (p *LocalProvider) Lookup(ctx context.Context, accountID string) (*Account, error) {
	account, err := p.repository.FindByID(ctx, p.db, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("account %s: %w", accountID, ErrAccountNotFound)
		}
		return nil, fmt.Errorf("%w: find account: %w", ErrUnavailable, err)
	}
	return toAccount(account), nil
}

func (p *LocalProvider) FindByEmail(ctx context.Context, email string) (string, bool, error) {
	account, err := p.repository.FindByEmail(ctx, p.db, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: find account: %w", ErrUnavailable, err)
	}
	return account.ID, true, nil
}

// Authenticate checks the password and that the account is enabled.
func (p *LocalProvider) Authenticate(ctx context.Context, email, password string) (*Account, error) {
	log := logger.FromContext(ctx)

	account, err := p.repository.FindByEmail(ctx, p.db, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("로그인 실패 - account not found", "email", logger.MaskEmail(email))
			return nil, fmt.Errorf("error %w", ErrInvalidCredentials) // Security: don't reveal if email exists
		}
		return nil, fmt.Errorf("%w: find account: %w", ErrUnavailable, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(password)); err != nil {
		log.Warn("로그인 실패 - invalid password", "email", logger.MaskEmail(email))
		return nil, fmt.Errorf("error %w", ErrInvalidCredentials)
	}

	if !account.Enabled {
		log.Warn("로그인 실패 - account disabled", "email", logger.MaskEmail(email))
		return nil, fmt.Errorf("account %s: %w", account.ID, ErrAccountDisabled)
	}

	return toAccount(account), nil
}

func toAccount(account *model.IdentityAccount) *Account {
	return &Account{
		ID:      account.ID,
		Email:   account.Email,
		Enabled: account.Enabled,
		Groups:  splitGroups(account.Groups),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func splitGroups(groups string) []string {
	if groups == "" {
		return nil
	}
	return strings.Split(groups, ",")
}

func containsGroup(groups []string, group string) bool {
	for _, g := range groups {
		if g == group {
			return true
		}
	}
	return false
}
