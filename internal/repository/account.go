package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rentwise/api/internal/database"
	"github.com/rentwise/api/internal/model"
)

// AccountRepository reads account-level state that the generic routes do not expose
type AccountRepository struct {
	db database.Database
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db database.Database) *AccountRepository {
	return &AccountRepository{db: db}
}

// SubscriptionStatus returns the caller's subscription status.
// A missing row or blank status counts as trial.
func (r *AccountRepository) SubscriptionStatus(ctx context.Context, userID string) (string, error) {
	query := `SELECT status FROM subscription WHERE user_id = $user_id LIMIT 1`
	result, err := r.db.QueryOne(ctx, query, map[string]interface{}{"user_id": userID})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return model.SubscriptionTrial, nil
		}
		return "", err
	}

	m, ok := result.(map[string]interface{})
	if !ok {
		return model.SubscriptionTrial, nil
	}
	status := strings.TrimSpace(getString(m, "status"))
	if status == "" {
		return model.SubscriptionTrial, nil
	}
	return status, nil
}

// ProfileExists reports whether the user has created a profile
func (r *AccountRepository) ProfileExists(ctx context.Context, userID string) (bool, error) {
	query := `SELECT id FROM user_profile WHERE user_id = $user_id LIMIT 1`
	_, err := r.db.QueryOne(ctx, query, map[string]interface{}{"user_id": userID})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// LatestAppVersion returns the newest minimum app version, or nil when none exists
func (r *AccountRepository) LatestAppVersion(ctx context.Context) (*model.AppVersion, error) {
	query := `SELECT * FROM app_minimum_version ORDER BY created_at DESC LIMIT 1`
	result, err := r.db.QueryOne(ctx, query, nil)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	m, ok := result.(map[string]interface{})
	if !ok {
		return nil, nil
	}
	var version model.AppVersion
	if err := decodeRow(normalizeRow(m), &version); err != nil {
		return nil, fmt.Errorf("decode app version: %w", err)
	}
	return &version, nil
}
