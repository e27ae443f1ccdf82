package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventlisting/internal/domain"
)

const requestColumns = `id, event_id, requester_id, status, created`

type requestRepository struct {
	DB *sql.DB
}

func NewRequestRepository(db *sql.DB) domain.RequestRepository {
	return &requestRepository{
		DB: db,
	}
}

func scanRequest(row rowScanner) (*domain.Request, error) {
	req := &domain.Request{}
	var status string
	if err := row.Scan(&req.ID, &req.EventID, &req.RequesterID, &status, &req.Created); err != nil {
		return nil, err
	}
	req.Status = domain.RequestStatus(status)
	return req, nil
}

// collectRequests drains rows into a non-nil slice.
func collectRequests(rows *sql.Rows) ([]*domain.Request, error) {
	defer rows.Close()
	reqs := make([]*domain.Request, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}

func (r *requestRepository) GetByID(ctx context.Context, id string) (*domain.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests WHERE id = $1`
	req, err := scanRequest(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return req, nil
}

func (r *requestRepository) ListByRequesterID(ctx context.Context, requesterID string) ([]*domain.Request, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM requests
		WHERE requester_id = $1
		ORDER BY created, id
	`
	rows, err := r.DB.QueryContext(ctx, query, requesterID)
	if err != nil {
		return nil, err
	}
	return collectRequests(rows)
}

func (r *requestRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.Request, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM requests
		WHERE event_id = $1
		ORDER BY created, id
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	return collectRequests(rows)
}

func (r *requestRepository) UpdateStatus(ctx context.Context, id string, status domain.RequestStatus) error {
	query := `UPDATE requests SET status = $1 WHERE id = $2`
	result, err := r.DB.ExecContext(ctx, query, string(status), id)
	if err != nil {
		return mapWriteError(err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
