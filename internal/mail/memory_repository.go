package mail

import (
	"context"
	"slices"
	"sync"
)

// InMemoryRepository stores the send history in process, ideal for local
// development or tests.
type InMemoryRepository struct {
	mu   sync.RWMutex
	logs []EmailLog
}

// NewInMemoryRepository constructs an empty repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

// Create appends a log entry.
func (r *InMemoryRepository) Create(_ context.Context, log EmailLog) (EmailLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logs = append(r.logs, log)
	return log, nil
}

// List returns entries matching the options, newest first.
func (r *InMemoryRepository) List(_ context.Context, opts ListOptions) ([]EmailLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]EmailLog, 0, len(r.logs))
	for _, log := range r.logs {
		if opts.ProfileID != nil && (log.ProfileID == nil || *log.ProfileID != *opts.ProfileID) {
			continue
		}
		list = append(list, log)
	}

	slices.SortFunc(list, func(a, b EmailLog) int {
		return b.SentAt.Compare(a.SentAt)
	})

	if opts.Limit != nil && *opts.Limit >= 0 && len(list) > *opts.Limit {
		list = list[:*opts.Limit]
	}
	return list, nil
}
