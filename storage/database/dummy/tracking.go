package dummydb

import (
	"sort"
	"time"

	"github.com/minumate/backend/core/tracking"
)

var (
	trackingPKCount      int
	trackingEventPKCount int
)

type trackingRepository struct {
	db *trackingTable
}

var _ tracking.Repository = (*trackingRepository)(nil) // interface compliance check

func NewTrackingRepository(db *DB) tracking.Repository {
	return &trackingRepository{db: db.tracking}
}

// withEvents returns a copy of the email with its events and the
// open/click convenience fields filled in.
func (repo *trackingRepository) withEvents(em tracking.Email) tracking.Email {
	events := append([]tracking.Event(nil), repo.db.events[em.TrackingID]...)
	sort.Slice(events, func(i, j int) bool { return events[i].Timestamp.After(events[j].Timestamp) })

	for _, ev := range events {
		switch ev.EventType {
		case tracking.EventOpen:
			em.OpenCount++
			if em.OpenedAt == nil || ev.Timestamp.After(*em.OpenedAt) {
				at := ev.Timestamp
				em.OpenedAt = &at
			}
		case tracking.EventClick:
			em.ClickCount++
		}
	}
	em.Opened = em.OpenCount > 0
	em.Clicked = em.ClickCount > 0
	em.Events = events
	return em
}

func (repo *trackingRepository) SaveEmail(em tracking.Email) (tracking.Email, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	trackingPKCount++
	em.ID = trackingPKCount
	stored := em
	repo.db.table[em.TrackingID] = &stored
	return em, nil
}

func (repo *trackingRepository) GetEmailByTrackingID(trackingID string) (tracking.Email, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	em, ok := repo.db.table[trackingID]
	if !ok {
		return tracking.Email{}, tracking.ErrNotFound
	}
	return repo.withEvents(*em), nil
}

func (repo *trackingRepository) QueryEmails(limit, offset int) ([]tracking.Email, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	all := make([]tracking.Email, 0, len(repo.db.table))
	for _, em := range repo.db.table {
		all = append(all, repo.withEvents(*em))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].SentAt.After(all[j].SentAt) })

	if offset >= len(all) {
		return []tracking.Email{}, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (repo *trackingRepository) RecordEvent(ev tracking.Event) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	trackingEventPKCount++
	ev.ID = trackingEventPKCount
	repo.db.events[ev.TrackingID] = append(repo.db.events[ev.TrackingID], ev)
	return nil
}

func (repo *trackingRepository) GetStats() (tracking.Stats, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var stats tracking.Stats
	dayAgo := time.Now().UTC().AddDate(0, 0, -1)
	for _, em := range repo.db.table {
		stats.TotalEmails++
		if em.SentAt.After(dayAgo) {
			stats.RecentEmails++
		}
		for _, ev := range repo.db.events[em.TrackingID] {
			if ev.EventType == tracking.EventOpen {
				stats.OpenedEmails++
				break
			}
		}
		for _, ev := range repo.db.events[em.TrackingID] {
			if ev.EventType == tracking.EventClick {
				stats.ClickedEmails++
				break
			}
		}
	}
	if stats.TotalEmails > 0 {
		stats.OpenRate = float64(stats.OpenedEmails) / float64(stats.TotalEmails) * 100
		stats.ClickRate = float64(stats.ClickedEmails) / float64(stats.TotalEmails) * 100
	}
	return stats, nil
}

func (repo *trackingRepository) DeleteEmailsOlderThan(days int) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	var deleted int
	for tid, em := range repo.db.table {
		if em.SentAt.Before(cutoff) {
			delete(repo.db.table, tid)
			delete(repo.db.events, tid)
			deleted++
		}
	}
	return deleted, nil
}
