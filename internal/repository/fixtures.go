package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/fieldops-io/fieldops-sla/internal/models"
)

// fixtureSchema is the shape contract for snapshot files. Value-level
// checks (known priorities and statuses) happen during conversion, where
// the offending record can be named.
const fixtureSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"title": "Ticket Snapshot Fixtures",
	"type": "object",
	"properties": {
		"tickets": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"id": {"type": "string", "minLength": 1},
					"created_at": {"type": "string", "format": "date-time"},
					"resolved_at": {"type": "string", "format": "date-time"},
					"priority": {"type": "string"},
					"status": {"type": "string", "minLength": 1},
					"escalated": {"type": "boolean"},
					"zone_id": {"type": "string"},
					"customer_id": {"type": "string"},
					"assigned_to_id": {"type": "string"}
				},
				"required": ["id", "created_at", "status"]
			}
		},
		"transitions": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"ticket_id": {"type": "string", "minLength": 1},
					"from": {"type": "string"},
					"to": {"type": "string", "minLength": 1},
					"at": {"type": "string", "format": "date-time"}
				},
				"required": ["ticket_id", "to", "at"]
			}
		}
	},
	"required": ["tickets"]
}`

type fixtureFile struct {
	Tickets     []fixtureTicket     `yaml:"tickets" json:"tickets"`
	Transitions []fixtureTransition `yaml:"transitions,omitempty" json:"transitions,omitempty"`
}

type fixtureTicket struct {
	ID           string     `yaml:"id" json:"id"`
	CreatedAt    time.Time  `yaml:"created_at" json:"created_at"`
	ResolvedAt   *time.Time `yaml:"resolved_at,omitempty" json:"resolved_at,omitempty"`
	Priority     string     `yaml:"priority,omitempty" json:"priority,omitempty"`
	Status       string     `yaml:"status" json:"status"`
	Escalated    bool       `yaml:"escalated,omitempty" json:"escalated,omitempty"`
	ZoneID       string     `yaml:"zone_id,omitempty" json:"zone_id,omitempty"`
	CustomerID   string     `yaml:"customer_id,omitempty" json:"customer_id,omitempty"`
	AssignedToID string     `yaml:"assigned_to_id,omitempty" json:"assigned_to_id,omitempty"`
}

type fixtureTransition struct {
	TicketID string    `yaml:"ticket_id" json:"ticket_id"`
	From     string    `yaml:"from,omitempty" json:"from,omitempty"`
	To       string    `yaml:"to" json:"to"`
	At       time.Time `yaml:"at" json:"at"`
}

// LoadFixtures reads a YAML snapshot file, validates its shape against
// the fixture schema, and converts it into domain records. A record
// carrying an unknown priority or status is rejected with the record
// named; a missing priority is allowed and degrades downstream.
func LoadFixtures(path string) ([]models.TicketSnapshot, []models.StatusTransition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read fixtures: %w", err)
	}

	var file fixtureFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, nil, fmt.Errorf("parse fixtures: %w", err)
	}

	if err := validateFixtures(&file); err != nil {
		return nil, nil, err
	}

	tickets := make([]models.TicketSnapshot, 0, len(file.Tickets))
	for _, ft := range file.Tickets {
		ticket, err := ft.toModel()
		if err != nil {
			return nil, nil, err
		}
		tickets = append(tickets, ticket)
	}

	transitions := make([]models.StatusTransition, 0, len(file.Transitions))
	for _, ftr := range file.Transitions {
		transition, err := ftr.toModel()
		if err != nil {
			return nil, nil, err
		}
		transitions = append(transitions, transition)
	}

	return tickets, transitions, nil
}

// WriteFixtures serializes records into the fixture YAML shape.
func WriteFixtures(path string, tickets []models.TicketSnapshot, transitions []models.StatusTransition) error {
	file := fixtureFile{
		Tickets:     make([]fixtureTicket, 0, len(tickets)),
		Transitions: make([]fixtureTransition, 0, len(transitions)),
	}
	for i := range tickets {
		file.Tickets = append(file.Tickets, fixtureFromModel(&tickets[i]))
	}
	for _, tr := range transitions {
		file.Transitions = append(file.Transitions, fixtureTransition{
			TicketID: tr.TicketID,
			From:     string(tr.From),
			To:       string(tr.To),
			At:       tr.At,
		})
	}

	raw, err := yaml.Marshal(&file)
	if err != nil {
		return fmt.Errorf("marshal fixtures: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write fixtures: %w", err)
	}
	return nil
}

// validateFixtures checks the file shape against the JSON schema. The
// YAML document is re-encoded as JSON because the validator speaks JSON.
func validateFixtures(file *fixtureFile) error {
	docJSON, err := json.Marshal(file)
	if err != nil {
		return fmt.Errorf("failed to marshal fixtures for validation: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(fixtureSchema),
		gojsonschema.NewBytesLoader(docJSON),
	)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		var problems []string
		for _, e := range result.Errors() {
			problems = append(problems, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
		}
		return fmt.Errorf("fixtures failed schema validation:\n  %s", strings.Join(problems, "\n  "))
	}
	return nil
}

func (ft fixtureTicket) toModel() (models.TicketSnapshot, error) {
	if ft.CreatedAt.IsZero() {
		return models.TicketSnapshot{}, fmt.Errorf("ticket %s: created_at is missing", ft.ID)
	}

	var priority models.Priority
	if ft.Priority != "" {
		parsed, err := models.ParsePriority(ft.Priority)
		if err != nil {
			return models.TicketSnapshot{}, fmt.Errorf("ticket %s: %w", ft.ID, err)
		}
		priority = parsed
	}

	status, err := models.ParseStatus(ft.Status)
	if err != nil {
		return models.TicketSnapshot{}, fmt.Errorf("ticket %s: %w", ft.ID, err)
	}

	return models.TicketSnapshot{
		ID:           ft.ID,
		CreatedAt:    ft.CreatedAt,
		ResolvedAt:   ft.ResolvedAt,
		Priority:     priority,
		Status:       status,
		IsEscalated:  ft.Escalated,
		ZoneID:       ft.ZoneID,
		CustomerID:   ft.CustomerID,
		AssignedToID: ft.AssignedToID,
	}, nil
}

func (ftr fixtureTransition) toModel() (models.StatusTransition, error) {
	if ftr.At.IsZero() {
		return models.StatusTransition{}, fmt.Errorf("transition for ticket %s: at is missing", ftr.TicketID)
	}

	var from models.Status
	if ftr.From != "" {
		parsed, err := models.ParseStatus(ftr.From)
		if err != nil {
			return models.StatusTransition{}, fmt.Errorf("transition for ticket %s: %w", ftr.TicketID, err)
		}
		from = parsed
	}

	to, err := models.ParseStatus(ftr.To)
	if err != nil {
		return models.StatusTransition{}, fmt.Errorf("transition for ticket %s: %w", ftr.TicketID, err)
	}

	return models.StatusTransition{
		TicketID: ftr.TicketID,
		From:     from,
		To:       to,
		At:       ftr.At,
	}, nil
}

func fixtureFromModel(t *models.TicketSnapshot) fixtureTicket {
	return fixtureTicket{
		ID:           t.ID,
		CreatedAt:    t.CreatedAt,
		ResolvedAt:   t.ResolvedAt,
		Priority:     string(t.Priority),
		Status:       string(t.Status),
		Escalated:    t.IsEscalated,
		ZoneID:       t.ZoneID,
		CustomerID:   t.CustomerID,
		AssignedToID: t.AssignedToID,
	}
}
