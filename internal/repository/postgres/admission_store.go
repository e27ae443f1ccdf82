package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"eventlisting/internal/domain"
)

// admissionStore serializes admission decisions per event with SELECT ... FOR UPDATE
// on the event row. The lock is held until the transaction commits or rolls back.
type admissionStore struct {
	DB *sql.DB
}

// NewAdmissionStore returns a domain.AdmissionStore implemented with Postgres row locks.
func NewAdmissionStore(db *sql.DB) domain.AdmissionStore {
	return &admissionStore{DB: db}
}

func (s *admissionStore) WithEventLock(ctx context.Context, eventID string, fn func(ctx context.Context, event *domain.Event, tx domain.AdmissionTx) error) (err error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1 FOR UPDATE`
	event, err := scanEvent(tx.QueryRowContext(ctx, query, eventID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("lock event: %w", err)
	}

	atx := &admissionTx{tx: tx, eventID: eventID}
	confirmed, err := atx.countConfirmed(ctx)
	if err != nil {
		return fmt.Errorf("count confirmed requests: %w", err)
	}
	event.ConfirmedRequests = confirmed

	if err = fn(ctx, event, atx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type admissionTx struct {
	tx      *sql.Tx
	eventID string
}

func (a *admissionTx) countConfirmed(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM requests WHERE event_id = $1 AND status = 'CONFIRMED'`
	var n int
	if err := a.tx.QueryRowContext(ctx, query, a.eventID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (a *admissionTx) FindActive(ctx context.Context, requesterID string) (*domain.Request, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM requests
		WHERE event_id = $1 AND requester_id = $2 AND status <> 'CANCELED'
		LIMIT 1
	`
	req, err := scanRequest(a.tx.QueryRowContext(ctx, query, a.eventID, requesterID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return req, nil
}

func (a *admissionTx) GetRequests(ctx context.Context, ids []string) ([]*domain.Request, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM requests
		WHERE id = ANY($1) AND event_id = $2
		FOR UPDATE
	`
	rows, err := a.tx.QueryContext(ctx, query, pq.Array(ids), a.eventID)
	if err != nil {
		return nil, err
	}
	found, err := collectRequests(rows)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*domain.Request, len(found))
	for _, req := range found {
		byID[req.ID] = req
	}
	ordered := make([]*domain.Request, 0, len(ids))
	for _, id := range ids {
		req, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: request %s for event %s", domain.ErrNotFound, id, a.eventID)
		}
		ordered = append(ordered, req)
	}
	return ordered, nil
}

func (a *admissionTx) CreateRequest(ctx context.Context, req *domain.Request) error {
	query := `
		INSERT INTO requests (event_id, requester_id, status, created)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := a.tx.QueryRowContext(ctx, query, req.EventID, req.RequesterID, string(req.Status), req.Created).Scan(&req.ID)
	return mapWriteError(err)
}

func (a *admissionTx) SaveStatuses(ctx context.Context, reqs []*domain.Request) error {
	query := `UPDATE requests SET status = $1 WHERE id = $2 AND event_id = $3`
	for _, req := range reqs {
		if _, err := a.tx.ExecContext(ctx, query, string(req.Status), req.ID, a.eventID); err != nil {
			return mapWriteError(err)
		}
	}
	return nil
}

func (a *admissionTx) RejectPending(ctx context.Context) ([]*domain.Request, error) {
	query := `
		UPDATE requests SET status = 'REJECTED'
		WHERE event_id = $1 AND status = 'PENDING'
		RETURNING ` + requestColumns
	rows, err := a.tx.QueryContext(ctx, query, a.eventID)
	if err != nil {
		return nil, err
	}
	return collectRequests(rows)
}

func (a *admissionTx) UpdateEvent(ctx context.Context, e *domain.Event) error {
	query := `
		UPDATE events SET title = $1, annotation = $2, description = $3, category_id = $4,
			location_lat = $5, location_lon = $6, paid = $7, participant_limit = $8,
			request_moderation = $9, state = $10, event_date = $11, published_on = $12
		WHERE id = $13
	`
	_, err := a.tx.ExecContext(ctx, query,
		e.Title, e.Annotation, e.Description, e.CategoryID,
		e.Location.Lat, e.Location.Lon, e.Paid, e.ParticipantLimit,
		e.RequestModeration, string(e.State), e.EventDate, e.PublishedOn,
		a.eventID,
	)
	return mapWriteError(err)
}
