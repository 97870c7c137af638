package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// record is one tree document flattened into a row. Dir is the parent path,
// kept denormalized and indexed so child listings and field queries stay a
// single indexed scan.
type record struct {
	Path      string `gorm:"primaryKey;size:512"`
	Dir       string `gorm:"index;size:512"`
	Key       string `gorm:"size:128"`
	Value     string `gorm:"type:json"`
	UpdatedAt time.Time
}

func (record) TableName() string { return "store_entries" }

// gormStore persists the tree in a relational table via GORM. MySQL in
// production, SQLite in tests; the JSON field extraction is the only
// dialect-sensitive spot. Change fan-out is in-process: subscribers are
// notified after the local commit.
type gormStore struct {
	db      *gorm.DB
	hub     *hub
	pushIDs pushIDGen
}

// NewGorm migrates the backing table and returns a store on db.
func NewGorm(db *gorm.DB) (Store, error) {
	if err := db.AutoMigrate(&record{}); err != nil {
		return nil, fmt.Errorf("store migration failed: %w", err)
	}
	return &gormStore{db: db, hub: newHub()}, nil
}

func (s *gormStore) Get(ctx context.Context, path string) (json.RawMessage, error) {
	var rec record
	err := s.db.WithContext(ctx).Where("path = ?", path).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storeErr(err)
	}
	return json.RawMessage(rec.Value), nil
}

func (s *gormStore) Put(ctx context.Context, path string, value any) error {
	doc, err := json.Marshal(value)
	if err != nil {
		return err
	}
	dir, key := splitDir(path)
	rec := record{Path: path, Dir: dir, Key: key, Value: string(doc)}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&rec).Error
	if err != nil {
		return storeErr(err)
	}
	s.hub.broadcast(path)
	return nil
}

func (s *gormStore) Update(ctx context.Context, changes map[string]any) error {
	recs := make([]record, 0, len(changes))
	deletes := make([]string, 0)
	for path, value := range changes {
		if value == nil {
			deletes = append(deletes, path)
			continue
		}
		doc, err := json.Marshal(value)
		if err != nil {
			return err
		}
		dir, key := splitDir(path)
		recs = append(recs, record{Path: path, Dir: dir, Key: key, Value: string(doc)})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, rec := range recs {
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&rec).Error; err != nil {
				return err
			}
		}
		for _, path := range deletes {
			if err := tx.Where("path = ? OR path LIKE ?", path, path+"/%").
				Delete(&record{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return storeErr(err)
	}

	changed := make([]string, 0, len(changes))
	for path := range changes {
		changed = append(changed, path)
	}
	s.hub.broadcast(changed...)
	return nil
}

func (s *gormStore) Children(ctx context.Context, dir string) ([]Entry, error) {
	var recs []record
	err := s.db.WithContext(ctx).
		Where("dir = ?", dir).
		Order("`key`").
		Find(&recs).Error
	if err != nil {
		return nil, storeErr(err)
	}
	return toEntries(recs), nil
}

// Field names are internal constants, never user input, but validate anyway
// since they end up inside a SQL expression.
var fieldPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func (s *gormStore) Query(ctx context.Context, dir, field, lower, upper string, limit int) ([]Entry, error) {
	if !fieldPattern.MatchString(field) {
		return nil, fmt.Errorf("invalid query field %q", field)
	}

	var extract string
	switch s.db.Dialector.Name() {
	case "mysql":
		extract = fmt.Sprintf("JSON_UNQUOTE(JSON_EXTRACT(value, '$.%s'))", field)
	default:
		extract = fmt.Sprintf("json_extract(value, '$.%s')", field)
	}

	tx := s.db.WithContext(ctx).Model(&record{}).
		Where("dir = ?", dir).
		Where(extract+" >= ?", lower).
		Where(extract+" < ?", upper).
		Order(extract)
	if limit > 0 {
		tx = tx.Limit(limit)
	}

	var recs []record
	if err := tx.Find(&recs).Error; err != nil {
		return nil, storeErr(err)
	}
	return toEntries(recs), nil
}

func (s *gormStore) Watch(ctx context.Context, path string) (Subscription, error) {
	return s.hub.subscribe(ctx, path, func(ctx context.Context) ([]Entry, error) {
		var recs []record
		err := s.db.WithContext(ctx).
			Where("path = ? OR path LIKE ?", path, path+"/%").
			Order("path").
			Find(&recs).Error
		if err != nil {
			return nil, storeErr(err)
		}
		return toEntries(recs), nil
	}), nil
}

func (s *gormStore) NewKey() string {
	return s.pushIDs.next(time.Now())
}

func toEntries(recs []record) []Entry {
	entries := make([]Entry, len(recs))
	for i, rec := range recs {
		entries[i] = Entry{Key: rec.Key, Path: rec.Path, Value: json.RawMessage(rec.Value)}
	}
	return entries
}

func storeErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return wrapTimeout(err)
	}
	return wrapUnavailable(err)
}
