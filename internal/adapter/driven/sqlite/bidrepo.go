package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/automatrixhq/automatrix/internal/domain/model"
	"github.com/automatrixhq/automatrix/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.BidStore = (*BidRepo)(nil)

// BidRepo is the SQLite implementation of the BidStore port interface.
type BidRepo struct {
	db *DB
}

// NewBidRepo creates a new BidRepo backed by the given DB.
func NewBidRepo(db *DB) *BidRepo {
	return &BidRepo{db: db}
}

const bidColumns = `id, project_id, freelancer_id, amount_cents, message, status, created_at`

// Create inserts a bid. A second bid by the same freelancer on the project
// returns driven.ErrAlreadyExists.
func (r *BidRepo) Create(ctx context.Context, b model.Bid) error {
	const query = `INSERT INTO bids (` + bidColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Writer.ExecContext(ctx, query,
		b.ID, b.ProjectID, b.FreelancerID, b.AmountCents, b.Message, string(b.Status), formatTime(b.CreatedAt))
	if isUniqueViolation(err) {
		return fmt.Errorf("create bid on %s: %w", b.ProjectID, driven.ErrAlreadyExists)
	}
	if isForeignKeyViolation(err) {
		return fmt.Errorf("create bid: project %s: %w", b.ProjectID, driven.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("create bid on %s: %w", b.ProjectID, err)
	}
	return nil
}

// Get retrieves a bid by id.
func (r *BidRepo) Get(ctx context.Context, bidID string) (model.Bid, error) {
	b, err := scanBid(r.db.Reader.QueryRowContext(ctx, `SELECT `+bidColumns+` FROM bids WHERE id = ?`, bidID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Bid{}, fmt.Errorf("bid %s: %w", bidID, driven.ErrNotFound)
	}
	if err != nil {
		return model.Bid{}, fmt.Errorf("get bid %s: %w", bidID, err)
	}
	return b, nil
}

// ListByProject returns a project's bids, lowest amount first.
func (r *BidRepo) ListByProject(ctx context.Context, projectID string) ([]model.Bid, error) {
	rows, err := r.db.Reader.QueryContext(ctx,
		`SELECT `+bidColumns+` FROM bids WHERE project_id = ? ORDER BY amount_cents, created_at`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list bids %s: %w", projectID, err)
	}
	defer rows.Close()

	var bids []model.Bid
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bid: %w", err)
		}
		bids = append(bids, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bids: %w", err)
	}
	return bids, nil
}

// Accept marks the bid accepted, rejects the project's other pending bids
// and assigns the project in one transaction. It returns driven.ErrConflict
// if the bid is no longer pending or the project no longer open.
func (r *BidRepo) Accept(ctx context.Context, projectID, bidID string) error {
	now := formatTime(time.Now())

	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE bids SET status = 'accepted' WHERE id = ? AND project_id = ? AND status = 'pending'`,
			bidID, projectID)
		if err != nil {
			return fmt.Errorf("accept bid %s: %w", bidID, err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("check rows affected: %w", err)
		} else if n == 0 {
			return fmt.Errorf("accept bid %s: %w", bidID, driven.ErrConflict)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE bids SET status = 'rejected' WHERE project_id = ? AND id != ? AND status = 'pending'`,
			projectID, bidID); err != nil {
			return fmt.Errorf("reject sibling bids: %w", err)
		}

		res, err = tx.ExecContext(ctx,
			`UPDATE projects SET status = 'assigned', updated_at = ? WHERE id = ? AND status = 'open'`,
			now, projectID)
		if err != nil {
			return fmt.Errorf("assign project %s: %w", projectID, err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("check rows affected: %w", err)
		} else if n == 0 {
			return fmt.Errorf("assign project %s: %w", projectID, driven.ErrConflict)
		}
		return nil
	})
}

func scanBid(s scanner) (model.Bid, error) {
	var b model.Bid
	var status, createdAt string

	err := s.Scan(&b.ID, &b.ProjectID, &b.FreelancerID, &b.AmountCents, &b.Message, &status, &createdAt)
	if err != nil {
		return model.Bid{}, err
	}
	b.Status = model.BidStatus(status)
	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return model.Bid{}, fmt.Errorf("parse created_at: %w", err)
	}
	return b, nil
}
