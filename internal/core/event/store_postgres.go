// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package event

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/crewdesk/internal/platform/database/schema"
	"github.com/taibuivan/crewdesk/internal/platform/dberr"
)

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository constructs a PostgreSQL backed event store.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

var eventColumns = strings.Join(schema.CoreEvent.Columns(), ", ")

var teamColumns = strings.Join(schema.CoreTeam.Columns(), ", ")

func scanEvent(row pgx.Row, extra ...any) (*Event, error) {
	event := &Event{}
	targets := append([]any{
		&event.ID, &event.Slug, &event.Name, &event.Description,
		&event.StartsAt, &event.EndsAt, &event.CreatedBy,
		&event.CreatedAt, &event.UpdatedAt,
	}, extra...)
	if err := row.Scan(targets...); err != nil {
		return nil, err
	}
	return event, nil
}

// # Event Retrieval

/*
List returns a page of events.

Description: Undated events sort last. COUNT(*) OVER() carries the total.
*/
func (repository *PostgresRepository) List(ctx context.Context, limit, offset int) ([]*Event, int, error) {
	query := fmt.Sprintf(`
		SELECT %s, COUNT(*) OVER() AS total
		FROM %s
		ORDER BY %s ASC NULLS LAST, %s ASC
		LIMIT $1 OFFSET $2`,
		eventColumns, schema.CoreEvent.Table, schema.CoreEvent.StartsAt, schema.CoreEvent.Name,
	)

	rows, err := repository.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "Event")
	}
	defer rows.Close()

	events := []*Event{}
	var total int
	for rows.Next() {
		event, err := scanEvent(rows, &total)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "Event")
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, "Event")
	}

	return events, total, nil
}

func (repository *PostgresRepository) findBy(ctx context.Context, column, value string) (*Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, eventColumns, schema.CoreEvent.Table, column)

	event, err := scanEvent(repository.db.QueryRow(ctx, query, value))
	if err != nil {
		return nil, dberr.Wrap(err, "Event")
	}
	return event, nil
}

// FindByID retrieves a single event by its primary key.
func (repository *PostgresRepository) FindByID(ctx context.Context, id string) (*Event, error) {
	return repository.findBy(ctx, schema.CoreEvent.ID, id)
}

// FindBySlug retrieves an event by its unique URL slug.
func (repository *PostgresRepository) FindBySlug(ctx context.Context, slug string) (*Event, error) {
	return repository.findBy(ctx, schema.CoreEvent.Slug, slug)
}

// # Event Persistence

/*
Create inserts a new event.

Returns:
  - error: apperr.Conflict when the slug is taken, or database failures
*/
func (repository *PostgresRepository) Create(ctx context.Context, event *Event) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		schema.CoreEvent.Table, eventColumns,
	)

	_, err := repository.db.Exec(ctx, query,
		event.ID, event.Slug, event.Name, event.Description,
		event.StartsAt, event.EndsAt, event.CreatedBy,
		event.CreatedAt, event.UpdatedAt,
	)
	return dberr.Wrap(err, "Event")
}

// # Teams

// ListTeams returns the teams of an event ordered by name.
func (repository *PostgresRepository) ListTeams(ctx context.Context, eventID string) ([]*Team, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 ORDER BY %s`,
		teamColumns, schema.CoreTeam.Table, schema.CoreTeam.EventID, schema.CoreTeam.Name,
	)

	rows, err := repository.db.Query(ctx, query, eventID)
	if err != nil {
		return nil, dberr.Wrap(err, "Team")
	}
	defer rows.Close()

	teams := []*Team{}
	for rows.Next() {
		team := &Team{}
		if err := rows.Scan(&team.ID, &team.EventID, &team.Slug, &team.Name, &team.Description, &team.CreatedAt); err != nil {
			return nil, dberr.Wrap(err, "Team")
		}
		teams = append(teams, team)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "Team")
	}
	return teams, nil
}

// CreateTeam inserts a team. The (eventid, slug) unique key maps to apperr.Conflict.
func (repository *PostgresRepository) CreateTeam(ctx context.Context, team *Team) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6)`, schema.CoreTeam.Table, teamColumns)

	_, err := repository.db.Exec(ctx, query,
		team.ID, team.EventID, team.Slug, team.Name, team.Description, team.CreatedAt,
	)
	return dberr.Wrap(err, "Team")
}
