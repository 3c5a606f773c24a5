package CronJobs

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"Vistoria/Models"

	"github.com/robfig/cron/v3"
)

// StoreMaintenance runs the scheduled housekeeping over the record store: a
// nightly JSON snapshot of the full inspection set, plus a sweep that logs
// records waiting on their client past the threshold. Nothing is ever
// deleted; expiry stays a manual decision.
type StoreMaintenance struct {
	cronScheduler  *cron.Cron
	store          *Models.RecordStore
	backupDir      string
	staleThreshold time.Duration
	snapshotJobID  cron.EntryID
	sweepJobID     cron.EntryID
}

func NewStoreMaintenance(store *Models.RecordStore, backupDir string, staleThreshold time.Duration) *StoreMaintenance {
	if staleThreshold <= 0 {
		staleThreshold = 72 * time.Hour
	}
	return &StoreMaintenance{
		cronScheduler:  cron.New(cron.WithSeconds()),
		store:          store,
		backupDir:      backupDir,
		staleThreshold: staleThreshold,
	}
}

// Start schedules the nightly snapshot (02:00) and the stale sweep (every
// hour).
func (m *StoreMaintenance) Start() error {
	var err error
	m.snapshotJobID, err = m.cronScheduler.AddFunc("0 0 2 * * *", func() {
		if err := m.RunSnapshot(); err != nil {
			log.Printf("Snapshot failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("error scheduling snapshot job: %w", err)
	}

	m.sweepJobID, err = m.cronScheduler.AddFunc("0 0 * * * *", func() {
		m.RunStaleSweep()
	})
	if err != nil {
		return fmt.Errorf("error scheduling sweep job: %w", err)
	}

	m.cronScheduler.Start()
	log.Println("Store maintenance scheduler started")
	return nil
}

// Stop terminates the scheduler.
func (m *StoreMaintenance) Stop() {
	if m.cronScheduler != nil {
		m.cronScheduler.Stop()
		log.Println("Store maintenance scheduler stopped")
	}
}

// RunSnapshot writes the current record set to a dated JSON file.
func (m *StoreMaintenance) RunSnapshot() error {
	records, err := m.store.Load()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(m.backupDir, 0755); err != nil {
		return err
	}

	payload, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}

	path := filepath.Join(m.backupDir, fmt.Sprintf("inspections-%s.json", time.Now().Format("2006-01-02")))
	if err := os.WriteFile(path, payload, 0644); err != nil {
		return err
	}
	log.Printf("Snapshot written: %s (%d records)", path, len(records))
	return nil
}

// RunStaleSweep logs inspections still waiting on their client past the
// threshold so operators can chase them up.
func (m *StoreMaintenance) RunStaleSweep() {
	records, err := m.store.Load()
	if err != nil {
		log.Printf("Stale sweep failed: %v", err)
		return
	}

	cutoff := time.Now().Add(-m.staleThreshold)
	stale := 0
	for i := range records {
		if Models.DeriveStatus(&records[i]) == Models.StatusAwaitingClient && records[i].CreatedAt.Before(cutoff) {
			log.Printf("Inspection %s still awaiting client since %s (operator %s)",
				records[i].Code, records[i].CreatedAt.Format("2006-01-02"), records[i].OperatorName)
			stale++
		}
	}
	if stale > 0 {
		log.Printf("Stale sweep: %d inspection(s) awaiting client beyond %s", stale, m.staleThreshold)
	}
}
