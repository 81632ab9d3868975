package mysql

import (
	"context"
	"database/sql"

	"skillswap/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) InsertReview(ctx context.Context, rv domain.StoredReview) error {
	_, err := r.db.ExecContext(ctx, insertReviewSQL,
		rv.ReviewID,
		rv.ReviewerUserID,
		rv.ReviewedUserID,
		rv.SkillID,
		rv.Rating,
		valStr(rv.Comment),
		rv.CreatedAt,
		rv.UpdatedAt,
	)
	return err
}

func (r *Repo) ListReviewsForProvider(ctx context.Context, providerID string, pg domain.PageQuery) (domain.ReviewsPage, error) {
	rows, err := r.db.QueryContext(ctx, listReviewsForProviderSQL, providerID, pg.Limit)
	if err != nil {
		return domain.ReviewsPage{}, err
	}
	defer rows.Close()

	out := []domain.StoredReview{}
	for rows.Next() {
		var rv domain.StoredReview
		var comment sql.NullString
		if err := rows.Scan(
			&rv.ReviewID,
			&rv.ReviewerUserID,
			&rv.ReviewedUserID,
			&rv.SkillID,
			&rv.Rating,
			&comment,
			&rv.CreatedAt,
			&rv.UpdatedAt,
		); err != nil {
			return domain.ReviewsPage{}, err
		}
		if comment.Valid {
			s := comment.String
			rv.Comment = &s
		}
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return domain.ReviewsPage{}, err
	}
	return domain.ReviewsPage{Items: out}, nil
}

func (r *Repo) ListProviders(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, listProvidersSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
