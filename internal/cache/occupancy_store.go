package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Occupancy is the cached view of an open session, keyed by plate number.
// It backs read-only status queries so they never touch the write path.
type Occupancy struct {
	SessionID int64     `json:"session_id"`
	VehicleID int64     `json:"vehicle_id"`
	Plate     string    `json:"plate"`
	SlotID    int64     `json:"slot_id"`
	SlotNo    string    `json:"slot_no"`
	EntryTime time.Time `json:"entry_time"`
}

// OccupancyStore manages the active-session cache.
type OccupancyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewOccupancyStore returns redis-backed store.
func NewOccupancyStore(client *redis.Client, ttl time.Duration) *OccupancyStore {
	return &OccupancyStore{client: client, ttl: ttl}
}

func (s *OccupancyStore) key(plate string) string {
	return fmt.Sprintf("parking:occupied:%s", plate)
}

// Save caches an open session.
func (s *OccupancyStore) Save(ctx context.Context, occ Occupancy) error {
	data, err := json.Marshal(occ)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(occ.Plate), data, s.ttl).Err()
}

// Get returns the cached occupancy for a plate.
func (s *OccupancyStore) Get(ctx context.Context, plate string) (*Occupancy, error) {
	result, err := s.client.Get(ctx, s.key(plate)).Result()
	if err != nil {
		return nil, err
	}
	var occ Occupancy
	if err := json.Unmarshal([]byte(result), &occ); err != nil {
		return nil, err
	}
	return &occ, nil
}

// Delete removes the cached occupancy on exit.
func (s *OccupancyStore) Delete(ctx context.Context, plate string) error {
	return s.client.Del(ctx, s.key(plate)).Err()
}
