package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventlisting/internal/domain"
)

const eventColumns = `id, title, annotation, description, category_id, initiator_id, location_lat, location_lon,
		paid, participant_limit, request_moderation, state, event_date, created_on, published_on, views`

const confirmedCountColumn = `(SELECT COUNT(*) FROM requests r WHERE r.event_id = events.id AND r.status = 'CONFIRMED')`

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

// scanEvent scans eventColumns followed by any extra destinations.
func scanEvent(row rowScanner, extra ...any) (*domain.Event, error) {
	e := &domain.Event{}
	var state string
	var publishedNull sql.NullTime
	dest := []any{
		&e.ID, &e.Title, &e.Annotation, &e.Description, &e.CategoryID, &e.InitiatorID,
		&e.Location.Lat, &e.Location.Lon, &e.Paid, &e.ParticipantLimit, &e.RequestModeration,
		&state, &e.EventDate, &e.CreatedOn, &publishedNull, &e.Views,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	e.State = domain.EventState(state)
	if publishedNull.Valid {
		e.PublishedOn = &publishedNull.Time
	}
	return e, nil
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (title, annotation, description, category_id, initiator_id, location_lat, location_lon,
			paid, participant_limit, request_moderation, state, event_date, created_on, views)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query,
		e.Title, e.Annotation, e.Description, e.CategoryID, e.InitiatorID, e.Location.Lat, e.Location.Lon,
		e.Paid, e.ParticipantLimit, e.RequestModeration, string(e.State), e.EventDate, e.CreatedOn, e.Views,
	).Scan(&e.ID)
	return mapWriteError(err)
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `, ` + confirmedCountColumn + `
		FROM events
		WHERE id = $1
	`
	var confirmed int
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id), &confirmed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	e.ConfirmedRequests = confirmed
	return e, nil
}

func (r *eventRepository) ListByInitiatorID(ctx context.Context, initiatorID string, params domain.PaginationParams) ([]*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `, ` + confirmedCountColumn + `
		FROM events
		WHERE initiator_id = $1
		ORDER BY created_on DESC, id
		LIMIT $2 OFFSET $3
	`
	limit := sql.NullInt64{Int64: int64(params.Limit()), Valid: params.Limit() > 0}
	rows, err := r.DB.QueryContext(ctx, query, initiatorID, limit, params.Offset())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		var confirmed int
		e, err := scanEvent(rows, &confirmed)
		if err != nil {
			return nil, err
		}
		e.ConfirmedRequests = confirmed
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *eventRepository) IncrementViews(ctx context.Context, id string) error {
	query := `UPDATE events SET views = views + 1 WHERE id = $1`
	result, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
