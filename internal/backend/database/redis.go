package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisPhotosKey   = "closetcam:photos"
	redisMaxAttempts = 5
	redisTimeout     = 5 * time.Second
)

// RedisDatabase keeps every photo as a JSON document in a single hash keyed
// by photo id. Mutations run as optimistic WATCH/MULTI transactions.
type RedisDatabase struct {
	client *redis.Client
}

// NewRedisDatabase accepts a redis:// URL, e.g. redis://localhost:6379/0.
func NewRedisDatabase(connectionString string) (DatabaseService, error) {
	opts, err := redis.ParseURL(connectionString)
	if err != nil {
		return nil, fmt.Errorf("invalid redis connection string: %w", err)
	}
	return &RedisDatabase{client: redis.NewClient(opts)}, nil
}

func (r *RedisDatabase) CreateDatabase() error {
	// the hash is created lazily on first write; only verify connectivity
	ctx, cancel := r.ctx()
	defer cancel()
	return r.client.Ping(ctx).Err()
}

func (r *RedisDatabase) DoesDatabaseExist() bool {
	ctx, cancel := r.ctx()
	defer cancel()
	return r.client.Ping(ctx).Err() == nil
}

func (r *RedisDatabase) Close() error {
	return r.client.Close()
}

func (r *RedisDatabase) CreatePhoto(photo Photo) (*Photo, error) {
	if photo.AssociatedPhotos == nil {
		photo.AssociatedPhotos = []AssociatedPhoto{}
	}
	err := r.update(func(photos map[string]*Photo) (map[string]*Photo, error) {
		if _, ok := photos[photo.ID]; ok {
			return nil, fmt.Errorf("photo %s: %w", photo.ID, ErrDuplicateID)
		}
		last := ""
		for _, p := range photos {
			if p.Rank > last {
				last = p.Rank
			}
		}
		photo.Rank = Next(last)
		return map[string]*Photo{photo.ID: &photo}, nil
	})
	if err != nil {
		return nil, err
	}
	return &photo, nil
}

func (r *RedisDatabase) GetPhotoByID(id string) (*Photo, error) {
	ctx, cancel := r.ctx()
	defer cancel()

	raw, err := r.client.HGet(ctx, redisPhotosKey, id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodePhoto(raw)
}

func (r *RedisDatabase) GetPhotos() ([]*Photo, error) {
	ctx, cancel := r.ctx()
	defer cancel()

	raw, err := r.client.HGetAll(ctx, redisPhotosKey).Result()
	if err != nil {
		return nil, err
	}
	photos, err := decodePhotos(raw)
	if err != nil {
		return nil, err
	}
	list := make([]*Photo, 0, len(photos))
	for _, p := range photos {
		list = append(list, p)
	}
	sortByRank(list)
	return list, nil
}

func (r *RedisDatabase) UpdatePhoto(photo Photo) error {
	return r.update(func(photos map[string]*Photo) (map[string]*Photo, error) {
		current, ok := photos[photo.ID]
		if !ok {
			return nil, fmt.Errorf("photo %s: %w", photo.ID, ErrNotFound)
		}
		current.Description = photo.Description
		current.Object = photo.Object
		current.GeneratedDescription = photo.GeneratedDescription
		return map[string]*Photo{current.ID: current}, nil
	})
}

func (r *RedisDatabase) DeletePhoto(id string) error {
	ctx, cancel := r.ctx()
	defer cancel()

	n, err := r.client.HDel(ctx, redisPhotosKey, id).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("photo %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *RedisDatabase) AddAssociatedPhoto(photoID string, associated AssociatedPhoto) error {
	return r.update(func(photos map[string]*Photo) (map[string]*Photo, error) {
		parent, ok := photos[photoID]
		if !ok {
			return nil, fmt.Errorf("photo %s: %w", photoID, ErrNotFound)
		}
		parent.AssociatedPhotos = append(parent.AssociatedPhotos, associated)
		return map[string]*Photo{parent.ID: parent}, nil
	})
}

func (r *RedisDatabase) RemoveAssociatedPhotos(photoID string, ids []string) (int, error) {
	removed := 0
	err := r.update(func(photos map[string]*Photo) (map[string]*Photo, error) {
		removed = 0
		parent, ok := photos[photoID]
		if !ok {
			return nil, fmt.Errorf("photo %s: %w", photoID, ErrNotFound)
		}
		drop := make(map[string]bool, len(ids))
		for _, id := range ids {
			drop[id] = true
		}
		kept := make([]AssociatedPhoto, 0, len(parent.AssociatedPhotos))
		for _, a := range parent.AssociatedPhotos {
			if drop[a.ID] {
				removed++
				continue
			}
			kept = append(kept, a)
		}
		parent.AssociatedPhotos = kept
		return map[string]*Photo{parent.ID: parent}, nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func (r *RedisDatabase) GetOrderedPhotoIDs() ([]string, error) {
	photos, err := r.GetPhotos()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(photos))
	for _, p := range photos {
		ids = append(ids, p.ID)
	}
	return ids, nil
}

func (r *RedisDatabase) UpdatePhotoOrder(order []string) error {
	return r.update(func(photos map[string]*Photo) (map[string]*Photo, error) {
		existing := make(map[string]string, len(photos))
		for id, p := range photos {
			existing[id] = p.Rank
		}
		if err := validateOrder(existing, order); err != nil {
			return nil, err
		}
		changed := make(map[string]*Photo)
		for id, rank := range Reorder(existing, order) {
			photos[id].Rank = rank
			changed[id] = photos[id]
		}
		return changed, nil
	})
}

// update reads all photos under WATCH, lets fn decide which documents change
// and writes those in one MULTI block, retrying when another client won the race.
func (r *RedisDatabase) update(fn func(photos map[string]*Photo) (map[string]*Photo, error)) error {
	ctx, cancel := r.ctx()
	defer cancel()

	txf := func(tx *redis.Tx) error {
		raw, err := tx.HGetAll(ctx, redisPhotosKey).Result()
		if err != nil {
			return err
		}
		photos, err := decodePhotos(raw)
		if err != nil {
			return err
		}
		changed, err := fn(photos)
		if err != nil {
			return err
		}
		if len(changed) == 0 {
			return nil
		}

		values := make([]any, 0, 2*len(changed))
		for id, p := range changed {
			encoded, err := json.Marshal(p)
			if err != nil {
				return err
			}
			values = append(values, id, encoded)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, redisPhotosKey, values...)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < redisMaxAttempts; attempt++ {
		err := r.client.Watch(ctx, txf, redisPhotosKey)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("redis transaction on %s failed after %d attempts", redisPhotosKey, redisMaxAttempts)
}

func (r *RedisDatabase) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), redisTimeout)
}

func decodePhoto(raw string) (*Photo, error) {
	var p Photo
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("failed to decode photo document: %w", err)
	}
	if p.AssociatedPhotos == nil {
		p.AssociatedPhotos = []AssociatedPhoto{}
	}
	return &p, nil
}

func decodePhotos(raw map[string]string) (map[string]*Photo, error) {
	photos := make(map[string]*Photo, len(raw))
	for id, doc := range raw {
		p, err := decodePhoto(doc)
		if err != nil {
			return nil, fmt.Errorf("photo %s: %w", id, err)
		}
		photos[id] = p
	}
	return photos, nil
}
