package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fieldops-io/fieldops-sla/internal/models"
)

// MemoryTicketRepository implements TicketRepository with in-memory
// storage. Snapshots are loaded whole from fixtures or a feed import and
// swapped atomically; readers always see a consistent set.
type MemoryTicketRepository struct {
	mu          sync.RWMutex
	tickets     map[string]*models.TicketSnapshot
	order       []string
	transitions []models.StatusTransition
}

// NewMemoryTicketRepository creates an empty in-memory ticket repository
func NewMemoryTicketRepository() *MemoryTicketRepository {
	return &MemoryTicketRepository{
		tickets: make(map[string]*models.TicketSnapshot),
	}
}

// GetTicket retrieves one ticket snapshot by id
func (r *MemoryTicketRepository) GetTicket(ctx context.Context, id string) (*models.TicketSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ticket, exists := r.tickets[id]
	if !exists {
		return nil, fmt.Errorf("ticket %s: %w", id, ErrTicketNotFound)
	}

	// Return a copy
	result := *ticket
	if ticket.ResolvedAt != nil {
		resolved := *ticket.ResolvedAt
		result.ResolvedAt = &resolved
	}
	return &result, nil
}

// ListTickets returns all ticket snapshots in load order
func (r *MemoryTicketRepository) ListTickets(ctx context.Context) ([]models.TicketSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tickets := make([]models.TicketSnapshot, 0, len(r.order))
	for _, id := range r.order {
		tickets = append(tickets, copyTicket(r.tickets[id]))
	}
	return tickets, nil
}

// Snapshot returns the tickets active inside the window together with
// their full transition history. A ticket is active when its open
// interval overlaps the window; transitions are not clipped to it, since
// duration pairing needs the complete sequence.
func (r *MemoryTicketRepository) Snapshot(ctx context.Context, from, to time.Time) (models.Snapshot, error) {
	if to.Before(from) {
		return models.Snapshot{}, fmt.Errorf("%s to %s: %w",
			from.Format(time.RFC3339), to.Format(time.RFC3339), ErrInvalidWindow)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := models.Snapshot{
		From:    from,
		To:      to,
		Tickets: []models.TicketSnapshot{},
	}

	included := make(map[string]bool, len(r.order))
	for _, id := range r.order {
		t := r.tickets[id]
		if t.CreatedAt.After(to) {
			continue
		}
		if t.ResolvedAt != nil && t.ResolvedAt.Before(from) {
			continue
		}
		included[id] = true
		snap.Tickets = append(snap.Tickets, copyTicket(t))
	}

	snap.Transitions = make([]models.StatusTransition, 0, len(r.transitions))
	for _, tr := range r.transitions {
		if included[tr.TicketID] {
			snap.Transitions = append(snap.Transitions, tr)
		}
	}

	return snap, nil
}

// ReplaceAll swaps the stored data set. Duplicate ticket ids are
// rejected rather than silently collapsed.
func (r *MemoryTicketRepository) ReplaceAll(ctx context.Context, tickets []models.TicketSnapshot, transitions []models.StatusTransition) error {
	byID := make(map[string]*models.TicketSnapshot, len(tickets))
	order := make([]string, 0, len(tickets))
	for i := range tickets {
		t := copyTicket(&tickets[i])
		if t.ID == "" {
			return fmt.Errorf("ticket at index %d has no id", i)
		}
		if _, dup := byID[t.ID]; dup {
			return fmt.Errorf("duplicate ticket id %s", t.ID)
		}
		byID[t.ID] = &t
		order = append(order, t.ID)
	}

	stored := make([]models.StatusTransition, len(transitions))
	copy(stored, transitions)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tickets = byID
	r.order = order
	r.transitions = stored
	return nil
}

func copyTicket(t *models.TicketSnapshot) models.TicketSnapshot {
	result := *t
	if t.ResolvedAt != nil {
		resolved := *t.ResolvedAt
		result.ResolvedAt = &resolved
	}
	return result
}
