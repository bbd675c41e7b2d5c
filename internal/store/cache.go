package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	commonerrors "jobmatch-engine/internal/common/errors"
	"jobmatch-engine/internal/common/logger"
	"jobmatch-engine/internal/models"
)

const (
	preferencesKeyPrefix = "jobmatch:prefs:"
	freshnessKeyPrefix   = "jobmatch:fresh:"
)

// PreferenceCache keeps learned preferences and refresh-freshness markers
// in Redis. Preferences have no TTL; each feedback analysis overwrites the
// previous value in full.
type PreferenceCache struct {
	client *redis.Client
	logger logger.Logger
}

func NewPreferenceCache(client *redis.Client, log logger.Logger) *PreferenceCache {
	return &PreferenceCache{client: client, logger: log}
}

func preferencesKey(userID string) string {
	return preferencesKeyPrefix + userID
}

func freshnessKey(userID string) string {
	return freshnessKeyPrefix + userID
}

// SavePreferences overwrites the user's learned preferences.
func (c *PreferenceCache) SavePreferences(ctx context.Context, prefs models.LearnedPreferences) error {
	raw, err := json.Marshal(prefs)
	if err != nil {
		return commonerrors.NewCacheOperationFailedError("encode_preferences", err)
	}
	if err := c.client.Set(ctx, preferencesKey(prefs.UserID), raw, 0).Err(); err != nil {
		return commonerrors.NewCacheOperationFailedError("save_preferences", err)
	}
	return nil
}

// GetPreferences returns the user's learned preferences, or nil when none
// have been learned yet.
func (c *PreferenceCache) GetPreferences(ctx context.Context, userID string) (*models.LearnedPreferences, error) {
	raw, err := c.client.Get(ctx, preferencesKey(userID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, commonerrors.NewCacheOperationFailedError("get_preferences", err)
	}

	var prefs models.LearnedPreferences
	if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
		// A corrupt value is treated as absent; the next analysis rewrites it.
		c.logger.Warn("discarding corrupt preferences value", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
		return nil, nil
	}
	return &prefs, nil
}

// MarkRefreshed stamps the user as freshly refreshed for the given window.
func (c *PreferenceCache) MarkRefreshed(ctx context.Context, userID string, window time.Duration) error {
	value := fmt.Sprintf("%d", time.Now().Unix())
	if err := c.client.Set(ctx, freshnessKey(userID), value, window).Err(); err != nil {
		return commonerrors.NewCacheOperationFailedError("mark_refreshed", err)
	}
	return nil
}

// IsFresh reports whether the user was refreshed within the freshness window.
// Cache errors count as not fresh so a broken cache cannot block refreshes.
func (c *PreferenceCache) IsFresh(ctx context.Context, userID string) bool {
	err := c.client.Get(ctx, freshnessKey(userID)).Err()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		c.logger.Warn("freshness check failed, treating as stale", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
		return false
	}
	return true
}
