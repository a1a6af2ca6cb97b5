package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// documentRow stores one collection member. Position keeps document order.
type documentRow struct {
	Collection string `gorm:"primaryKey;size:64"`
	Key        string `gorm:"primaryKey;size:191"`
	Position   int    `gorm:"not null"`
	Body       datatypes.JSON
	UpdatedAt  time.Time
}

func (documentRow) TableName() string {
	return "documents"
}

// documentLock is bumped at the start of every write transaction. The row
// lock it takes is held until commit and serializes writers of one collection
// across every process sharing the database.
type documentLock struct {
	Collection string `gorm:"primaryKey;size:64"`
	Version    int64  `gorm:"not null;default:0"`
}

func (documentLock) TableName() string {
	return "document_locks"
}

// GormBackend keeps collections in a single "documents" table. Writes and
// updates run in one transaction holding the collection's lock row, so
// several processes may share a database. SQLite needs a busy timeout and
// immediate transactions for that (database.Open sets both).
type GormBackend struct {
	locks
	db *gorm.DB
}

var _ Backend = (*GormBackend)(nil)

func NewGormBackend(db *gorm.DB) (*GormBackend, error) {
	if err := db.AutoMigrate(&documentRow{}, &documentLock{}); err != nil {
		return nil, fmt.Errorf("migrate documents table: %w", err)
	}
	return &GormBackend{db: db}, nil
}

func (b *GormBackend) ReadDocument(ctx context.Context, collection string) ([]Member, error) {
	return readRows(b.db.WithContext(ctx), collection)
}

func (b *GormBackend) WriteDocument(ctx context.Context, collection string, members []Member) error {
	mu := b.lock(collection)
	mu.Lock()
	defer mu.Unlock()

	return b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockCollection(tx, collection); err != nil {
			return err
		}
		return writeRows(tx, collection, members)
	})
}

// UpdateDocument reads, applies fn and writes back inside one transaction.
func (b *GormBackend) UpdateDocument(ctx context.Context, collection string, fn UpdateFunc) error {
	mu := b.lock(collection)
	mu.Lock()
	defer mu.Unlock()

	return b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockCollection(tx, collection); err != nil {
			return err
		}
		members, err := readRows(tx, collection)
		if err != nil {
			return err
		}
		out, write, err := fn(members)
		if err != nil || !write {
			return err
		}
		return writeRows(tx, collection, out)
	})
}

func lockCollection(tx *gorm.DB, collection string) error {
	err := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&documentLock{Collection: collection}).Error
	if err != nil {
		return fmt.Errorf("create lock row for %s: %w", collection, err)
	}
	err = tx.Model(&documentLock{}).
		Where("collection = ?", collection).
		UpdateColumn("version", gorm.Expr("version + 1")).Error
	if err != nil {
		return fmt.Errorf("lock collection %s: %w", collection, err)
	}
	return nil
}

func readRows(db *gorm.DB, collection string) ([]Member, error) {
	var rows []documentRow
	err := db.
		Where("collection = ?", collection).
		Order("position ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("read collection %s: %w", collection, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	members := make([]Member, 0, len(rows))
	for _, row := range rows {
		if !json.Valid(row.Body) {
			return nil, fmt.Errorf("%w: %s/%s", ErrCorrupt, collection, row.Key)
		}
		members = append(members, Member{Key: row.Key, Value: json.RawMessage(row.Body)})
	}
	return members, nil
}

func writeRows(tx *gorm.DB, collection string, members []Member) error {
	now := time.Now().UTC()
	rows := make([]documentRow, 0, len(members))
	for i, m := range members {
		rows = append(rows, documentRow{
			Collection: collection,
			Key:        m.Key,
			Position:   i,
			Body:       datatypes.JSON(m.Value),
			UpdatedAt:  now,
		})
	}

	if err := tx.Where("collection = ?", collection).Delete(&documentRow{}).Error; err != nil {
		return fmt.Errorf("clear collection %s: %w", collection, err)
	}
	if len(rows) == 0 {
		return nil
	}
	if err := tx.CreateInBatches(rows, 200).Error; err != nil {
		return fmt.Errorf("write collection %s: %w", collection, err)
	}
	return nil
}
