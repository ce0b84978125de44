package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fieldops-io/fieldops-sla/internal/repository"
)

// handleTicketSLA serves the SLA position of a single ticket: business
// hours used against its allotment, the deadline, and the within /
// at_risk / breached state.
func (r *Router) handleTicketSLA(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		respondError(c, http.StatusBadRequest, "Ticket ID required")
		return
	}

	re, ok := r.reportEngine(c)
	if !ok {
		return
	}

	ticket, err := r.repo.GetTicket(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			respondError(c, http.StatusNotFound, "Ticket not found")
		} else {
			respondError(c, http.StatusInternalServerError, "Ticket store unavailable")
		}
		return
	}

	outcome := re.Assembler.TicketSLA(ticket, time.Now().UTC())
	c.JSON(http.StatusOK, outcome)
}
