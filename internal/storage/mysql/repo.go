package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"pulse/internal/domain"
)

// maxRowsPerInsert keeps multi-row upserts under the server's placeholder limit.
const maxRowsPerInsert = 500

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valF64(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
func valTime(p *time.Time) any {
	if p == nil {
		return nil
	}
	return p.UTC()
}

func nullStr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) UpsertActivities(ctx context.Context, as []domain.Activity) error {
	for start := 0; start < len(as); start += maxRowsPerInsert {
		end := start + maxRowsPerInsert
		if end > len(as) {
			end = len(as)
		}
		if err := r.upsertChunk(ctx, as[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repo) upsertChunk(ctx context.Context, as []domain.Activity) error {
	values := make([]string, 0, len(as))
	args := make([]any, 0, len(as)*12) // 12 params per row
	for _, a := range as {
		values = append(values, "(?,?,?,?,?,?,?,?,?,?,?,?)")
		args = append(args,
			a.ID,
			a.Title,
			string(a.Category),
			valStr(a.VenueName),
			valStr(a.Address),
			valStr(a.Neighborhood),
			a.StartTime.UTC(),
			valTime(a.EndTime),
			a.PriceRange,
			valF64(a.RatingScore),
			a.Source,
			valStr(a.URL),
		)
	}
	sqlStr := insertActivitiesPrefix + strings.Join(values, ",") + insertActivitiesOnDup
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("upsert %d activities: %w", len(as), err)
	}
	return nil
}

func (r *Repo) LogMiss(ctx context.Context, source string, status int, reason string) error {
	_, err := r.db.ExecContext(ctx, insertMissSQL, source, status, reason)
	return err
}

func (r *Repo) SavePlan(ctx context.Context, sp domain.SavedPlan) error {
	body, err := json.Marshal(sp.Plan)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, insertSavedPlanSQL, sp.ID, sp.UserID, string(body), sp.CreatedAt.UTC())
	return err
}

func (r *Repo) ListActivities(ctx context.Context, q domain.ActivityQuery) ([]domain.Activity, error) {
	query := listActivitiesSQL
	args := []any{q.From.UTC(), q.To.UTC()}
	if q.Category != nil {
		query += "  AND category = ?\n"
		args = append(args, string(*q.Category))
	}
	query += listActivitiesOrder
	if q.Limit > 0 {
		query += "\nLIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Activity{}
	for rows.Next() {
		var a domain.Activity
		var (
			category                     string
			venue, addr, hood, src, link sql.NullString
			end                          sql.NullTime
			rating                       sql.NullFloat64
		)
		if err := rows.Scan(
			&a.ID,
			&a.Title,
			&category,
			&venue,
			&addr,
			&hood,
			&a.StartTime,
			&end,
			&a.PriceRange,
			&rating,
			&src,
			&link,
		); err != nil {
			return nil, err
		}
		a.Category = domain.Category(category)
		a.VenueName = nullStr(venue)
		a.Address = nullStr(addr)
		a.Neighborhood = nullStr(hood)
		a.URL = nullStr(link)
		a.Source = src.String
		if end.Valid {
			t := end.Time
			a.EndTime = &t
		}
		if rating.Valid {
			f := rating.Float64
			a.RatingScore = &f
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) ListSavedPlans(ctx context.Context, userID string, limit int) ([]domain.SavedPlan, error) {
	rows, err := r.db.QueryContext(ctx, listSavedPlansSQL, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.SavedPlan{}
	for rows.Next() {
		var sp domain.SavedPlan
		var body []byte
		if err := rows.Scan(&sp.ID, &sp.UserID, &body, &sp.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(body, &sp.Plan); err != nil {
			return nil, fmt.Errorf("decode saved plan %s: %w", sp.ID, err)
		}
		out = append(out, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
