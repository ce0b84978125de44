package repository

import (
	"context"
	"errors"
	"time"

	"github.com/fieldops-io/fieldops-sla/internal/models"
)

var (
	// ErrTicketNotFound is returned when a ticket id has no snapshot.
	ErrTicketNotFound = errors.New("ticket not found")
	// ErrInvalidWindow is returned when a reporting window ends before it
	// starts.
	ErrInvalidWindow = errors.New("window end precedes window start")
)

// TicketRepository is the read surface the reports and API layers
// consume. Implementations must hand out copies; callers own what they
// receive.
type TicketRepository interface {
	GetTicket(ctx context.Context, id string) (*models.TicketSnapshot, error)
	ListTickets(ctx context.Context) ([]models.TicketSnapshot, error)
	Snapshot(ctx context.Context, from, to time.Time) (models.Snapshot, error)
	ReplaceAll(ctx context.Context, tickets []models.TicketSnapshot, transitions []models.StatusTransition) error
}
