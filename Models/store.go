package Models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultSlotKey is the single named slot holding the full inspection set.
const DefaultSlotKey = "inspections"

// StorageSlot is one durable key-value entry. The whole record set is stored
// as a JSON array under one key, so a read-back always returns the complete
// latest state.
type StorageSlot struct {
	Key       string         `gorm:"primaryKey;size:64"`
	Value     datatypes.JSON `gorm:"not null"`
	UpdatedAt time.Time
}

// RecordStore persists the ordered inspection set. Every mutation replaces
// the full set; there is no delta persistence. A single active writer per
// process is assumed, the mutex keeps concurrent handlers from interleaving
// a load-modify-save cycle.
type RecordStore struct {
	db   *gorm.DB
	slot string
	mu   sync.Mutex
}

func NewRecordStore(db *gorm.DB) *RecordStore {
	return &RecordStore{db: db, slot: DefaultSlotKey}
}

// Load returns the persisted record set in insertion order. A missing slot is
// an empty set, not an error.
func (s *RecordStore) Load() ([]InspectionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *RecordStore) load() ([]InspectionRecord, error) {
	var slot StorageSlot
	err := s.db.First(&slot, "key = ?", s.slot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []InspectionRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load slot %q: %w", s.slot, err)
	}

	var records []InspectionRecord
	if err := json.Unmarshal(slot.Value, &records); err != nil {
		return nil, fmt.Errorf("decode slot %q: %w", s.slot, err)
	}
	return records, nil
}

// SaveAll replaces the persisted set with the given records.
func (s *RecordStore) SaveAll(records []InspectionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveAll(records)
}

func (s *RecordStore) saveAll(records []InspectionRecord) error {
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode slot %q: %w", s.slot, err)
	}
	slot := StorageSlot{Key: s.slot, Value: payload, UpdatedAt: time.Now()}
	err = s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&slot).Error
	if err != nil {
		return fmt.Errorf("save slot %q: %w", s.slot, err)
	}
	return nil
}

// Insert appends a record and persists the full set.
func (s *RecordStore) Insert(record InspectionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}
	records = append(records, record)
	return s.saveAll(records)
}

// Update applies mutate to the record with the given id and persists the
// full set. Returns ErrNotFound when the id is unknown.
func (s *RecordStore) Update(id string, mutate func(*InspectionRecord)) (InspectionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return InspectionRecord{}, err
	}
	for i := range records {
		if records[i].ID == id {
			mutate(&records[i])
			if err := s.saveAll(records); err != nil {
				return InspectionRecord{}, err
			}
			return records[i], nil
		}
	}
	return InspectionRecord{}, ErrNotFound
}

// FindByID returns the record with the given id, or ErrNotFound.
func (s *RecordStore) FindByID(id string) (InspectionRecord, error) {
	records, err := s.Load()
	if err != nil {
		return InspectionRecord{}, err
	}
	for _, record := range records {
		if record.ID == id {
			return record, nil
		}
	}
	return InspectionRecord{}, ErrNotFound
}

// FindByCode looks a record up by its share code, case-insensitively.
func (s *RecordStore) FindByCode(code string) (InspectionRecord, error) {
	records, err := s.Load()
	if err != nil {
		return InspectionRecord{}, err
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, record := range records {
		if strings.ToUpper(record.Code) == code {
			return record, nil
		}
	}
	return InspectionRecord{}, ErrNotFound
}

// CodeExists reports whether any stored record already uses the code.
func (s *RecordStore) CodeExists(code string) (bool, error) {
	_, err := s.FindByCode(code)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
