package services

import (
	"fmt"

	"github.com/unkind-fall/marketing-sms-backup/internal/db"
	"github.com/unkind-fall/marketing-sms-backup/internal/models"
)

// IngestResult reports what one ingestion pass did.
type IngestResult struct {
	Total        int `json:"total"`
	Inserted     int `json:"inserted"`
	Skipped      int `json:"skipped"`
	UniquePhones int `json:"uniquePhones"`
}

// IngestService is the ingestion reconciler: it bulk-persists parsed
// records under the store's conflict resolution and recomputes the
// per-phone aggregates the batch touched. It holds no cross-request
// state; concurrent ingestions of overlapping data are coordinated
// entirely by the store.
type IngestService struct {
	messages db.MessageRepository
	calls    db.CallRepository
	phones   db.PhoneRepository
	subs     db.SubscriptionRepository

	insertChunkSize int
	statsChunkSize  int
}

// NewIngestService creates a new IngestService. Chunk sizes of zero fall
// back to the repository defaults.
func NewIngestService(
	messages db.MessageRepository,
	calls db.CallRepository,
	phones db.PhoneRepository,
	subs db.SubscriptionRepository,
	insertChunkSize, statsChunkSize int,
) *IngestService {
	return &IngestService{
		messages:        messages,
		calls:           calls,
		phones:          phones,
		subs:            subs,
		insertChunkSize: insertChunkSize,
		statsChunkSize:  statsChunkSize,
	}
}

// IngestMessages persists a parsed message batch and recomputes aggregates
// for every phone the batch touched.
func (s *IngestService) IngestMessages(msgs []*models.Message) (*IngestResult, error) {
	if len(msgs) == 0 {
		return &IngestResult{}, nil
	}

	stats, err := s.messages.BatchInsert(msgs, s.insertChunkSize)
	if err != nil {
		return nil, fmt.Errorf("failed to persist messages: %w", err)
	}

	entries := messagePhoneEntries(msgs)
	if err := s.phones.UpsertStatsBatch(entries, s.statsChunkSize); err != nil {
		return nil, fmt.Errorf("failed to recompute phone stats: %w", err)
	}

	return &IngestResult{
		Total:        len(msgs),
		Inserted:     stats.Inserted,
		Skipped:      stats.Skipped,
		UniquePhones: len(entries),
	}, nil
}

// IngestCalls persists a parsed call batch and recomputes aggregates for
// every phone the batch touched.
func (s *IngestService) IngestCalls(calls []*models.Call) (*IngestResult, error) {
	if len(calls) == 0 {
		return &IngestResult{}, nil
	}

	stats, err := s.calls.BatchInsert(calls, s.insertChunkSize)
	if err != nil {
		return nil, fmt.Errorf("failed to persist calls: %w", err)
	}

	entries := callPhoneEntries(calls)
	if err := s.phones.UpsertStatsBatch(entries, s.statsChunkSize); err != nil {
		return nil, fmt.Errorf("failed to recompute phone stats: %w", err)
	}

	return &IngestResult{
		Total:        len(calls),
		Inserted:     stats.Inserted,
		Skipped:      stats.Skipped,
		UniquePhones: len(entries),
	}, nil
}

// IngestSingleMessage persists one message (webhook path) and recomputes
// that phone's aggregate only when the insert actually landed.
func (s *IngestService) IngestSingleMessage(msg *models.Message) (bool, error) {
	if msg == nil {
		return false, fmt.Errorf("message is required")
	}

	stats, err := s.messages.BatchInsert([]*models.Message{msg}, s.insertChunkSize)
	if err != nil {
		return false, fmt.Errorf("failed to persist message: %w", err)
	}

	if stats.Inserted > 0 {
		if err := s.phones.UpsertStats(msg.Phone, msg.ContactName); err != nil {
			return true, fmt.Errorf("failed to recompute phone stats: %w", err)
		}
	}

	return stats.Inserted > 0, nil
}

// RecomputePhoneStats rebuilds one phone's aggregate from a live scan.
func (s *IngestService) RecomputePhoneStats(phone string, displayName *string) error {
	return s.phones.UpsertStats(phone, displayName)
}

// RecomputePhoneStatsBatch rebuilds aggregates for a list of phones.
func (s *IngestService) RecomputePhoneStatsBatch(entries []models.PhoneStatsEntry) error {
	return s.phones.UpsertStatsBatch(entries, s.statsChunkSize)
}

// DiscoverSubscriptions registers a default subscription row for every
// subscription ID present in message or call data but not yet in the
// subscriptions table. It returns every ID found in the data, so repeated
// runs return the same set and insert nothing new.
func (s *IngestService) DiscoverSubscriptions() ([]string, error) {
	ids, err := s.subs.DistinctDataSubscriptionIDs()
	if err != nil {
		return nil, fmt.Errorf("failed to discover subscriptions: %w", err)
	}

	for _, id := range ids {
		if _, err := s.subs.InsertIfMissing(models.NewDiscoveredSubscription(id)); err != nil {
			return nil, fmt.Errorf("failed to register subscription %q: %w", id, err)
		}
	}

	return ids, nil
}

// messagePhoneEntries collapses a batch to its unique phones, keeping the
// first non-null contact name seen for each as the display-name candidate.
func messagePhoneEntries(msgs []*models.Message) []models.PhoneStatsEntry {
	index := make(map[string]int, len(msgs))
	entries := make([]models.PhoneStatsEntry, 0, len(msgs))

	for _, m := range msgs {
		i, seen := index[m.Phone]
		if !seen {
			index[m.Phone] = len(entries)
			entries = append(entries, models.PhoneStatsEntry{Phone: m.Phone, DisplayName: m.ContactName})
			continue
		}
		if entries[i].DisplayName == nil && m.ContactName != nil {
			entries[i].DisplayName = m.ContactName
		}
	}

	return entries
}

func callPhoneEntries(calls []*models.Call) []models.PhoneStatsEntry {
	index := make(map[string]int, len(calls))
	entries := make([]models.PhoneStatsEntry, 0, len(calls))

	for _, c := range calls {
		i, seen := index[c.Phone]
		if !seen {
			index[c.Phone] = len(entries)
			entries = append(entries, models.PhoneStatsEntry{Phone: c.Phone, DisplayName: c.ContactName})
			continue
		}
		if entries[i].DisplayName == nil && c.ContactName != nil {
			entries[i].DisplayName = c.ContactName
		}
	}

	return entries
}
