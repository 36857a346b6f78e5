package movement

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const bucketName = "movements"

// DB defines the interface for database operations
type DB interface {
	// SaveMovement saves a movement to the database
	SaveMovement(movement *Movement) error

	// GetMovement retrieves a movement by ID
	GetMovement(id string) (*Movement, error)

	// ListMovements returns all movements
	ListMovements() ([]*Movement, error)

	// DeleteMovement removes a movement from the database
	DeleteMovement(id string) error

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// SaveMovement saves a movement to the database
func (b *BoltDB) SaveMovement(movement *Movement) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		data, err := json.Marshal(movement)
		if err != nil {
			return fmt.Errorf("marshaling movement: %w", err)
		}
		return bucket.Put([]byte(movement.ID), data)
	})
}

// GetMovement retrieves a movement by ID
func (b *BoltDB) GetMovement(id string) (*Movement, error) {
	var movement *Movement
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		data := bucket.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("movement not found: %s", id)
		}
		return json.Unmarshal(data, &movement)
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}

// ListMovements returns all movements
func (b *BoltDB) ListMovements() ([]*Movement, error) {
	movements := make([]*Movement, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var movement Movement
			if err := json.Unmarshal(v, &movement); err != nil {
				return fmt.Errorf("unmarshaling movement: %w", err)
			}
			movements = append(movements, &movement)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return movements, nil
}

// DeleteMovement removes a movement from the database
func (b *BoltDB) DeleteMovement(id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		return bucket.Delete([]byte(id))
	})
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}
