package driven

import (
	"context"
	"encoding/json"
	"errors"

	"go.etcd.io/bbolt"

	port "github.com/alorle/iptv-player/internal/port/driven"
)

const (
	settingsBucket = "settings"

	keyPlaylistURL  = "playlist_url"
	keyLastUpdate   = "last_update"
	keyTouchThrough = "touch_through"
)

// SettingsBoltDBRepository implements the SettingsRepository port using BoltDB.
// Each setting is stored as a JSON value under its own key.
type SettingsBoltDBRepository struct {
	db *bbolt.DB
}

// NewSettingsBoltDBRepository creates a new BoltDB-backed settings repository.
// It initializes the required bucket if it doesn't exist.
func NewSettingsBoltDBRepository(db *bbolt.DB) (*SettingsBoltDBRepository, error) {
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}

	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(settingsBucket))
		return err
	})
	if err != nil {
		return nil, err
	}

	return &SettingsBoltDBRepository{db: db}, nil
}

// PlaylistURL returns the stored remote playlist URL.
func (r *SettingsBoltDBRepository) PlaylistURL(ctx context.Context) (string, error) {
	var url string
	err := r.get(ctx, keyPlaylistURL, &url)
	return url, err
}

// SetPlaylistURL stores the remote playlist URL.
func (r *SettingsBoltDBRepository) SetPlaylistURL(ctx context.Context, url string) error {
	return r.put(ctx, keyPlaylistURL, url)
}

// LastUpdate returns the epoch-millis time of the last successful sync.
func (r *SettingsBoltDBRepository) LastUpdate(ctx context.Context) (int64, error) {
	var millis int64
	err := r.get(ctx, keyLastUpdate, &millis)
	return millis, err
}

// SetLastUpdate stores the epoch-millis time of the last successful sync.
func (r *SettingsBoltDBRepository) SetLastUpdate(ctx context.Context, epochMillis int64) error {
	return r.put(ctx, keyLastUpdate, epochMillis)
}

// TouchThroughEnabled reports whether touch input is forwarded to the surface.
// A flag that was never written reads as false.
func (r *SettingsBoltDBRepository) TouchThroughEnabled(ctx context.Context) (bool, error) {
	var enabled bool
	err := r.get(ctx, keyTouchThrough, &enabled)
	if errors.Is(err, port.ErrSettingNotFound) {
		return false, nil
	}
	return enabled, err
}

// SetTouchThroughEnabled stores the touch-through flag.
func (r *SettingsBoltDBRepository) SetTouchThroughEnabled(ctx context.Context, enabled bool) error {
	return r.put(ctx, keyTouchThrough, enabled)
}

// Ping checks if the BoltDB database is accessible and operational.
func (r *SettingsBoltDBRepository) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket([]byte(settingsBucket)) == nil {
			return errors.New("settings bucket not found")
		}
		return nil
	})
}

func (r *SettingsBoltDBRepository) get(ctx context.Context, key string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(settingsBucket))
		if bucket == nil {
			return errors.New("settings bucket not found")
		}

		data := bucket.Get([]byte(key))
		if data == nil {
			return port.ErrSettingNotFound
		}

		return json.Unmarshal(data, v)
	})
}

func (r *SettingsBoltDBRepository) put(ctx context.Context, key string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	return r.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(settingsBucket))
		if bucket == nil {
			return errors.New("settings bucket not found")
		}
		return bucket.Put([]byte(key), data)
	})
}
