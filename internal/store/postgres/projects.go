package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/gestion2026/ledger/internal/ledger"
)

const projectColumns = "id, lcp_code, name, cap_total, exp_total, status, created_at, updated_at"

func scanProject(row pgx.Row) (*ledger.Project, error) {
	var (
		p              ledger.Project
		capSum, expSum pgtype.Numeric
		status         string
	)
	err := row.Scan(&p.ID, &p.LcpCode, &p.Name, &capSum, &expSum, &status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.CapTotal = toDecimal(capSum)
	p.ExpTotal = toDecimal(expSum)
	p.Status = ledger.ProjectStatus(status)
	return &p, nil
}

// FindProjectsByCodes resolves root codes to (id, lcp_code) refs in a single
// round trip. Unknown codes are simply absent from the result.
func (s *Store) FindProjectsByCodes(ctx context.Context, codes []string) ([]ledger.ProjectRef, error) {
	if len(codes) == 0 {
		return nil, nil
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, lcp_code FROM projects WHERE lcp_code = ANY($1)`, codes)
	if err != nil {
		return nil, fmt.Errorf("FindProjectsByCodes: query: %w", err)
	}
	defer rows.Close()

	var refs []ledger.ProjectRef
	for rows.Next() {
		var ref ledger.ProjectRef
		if err := rows.Scan(&ref.ID, &ref.LcpCode); err != nil {
			return nil, fmt.Errorf("FindProjectsByCodes: scan: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("FindProjectsByCodes: rows: %w", err)
	}
	return refs, nil
}

// UpsertProject inserts a project or overwrites name and totals on conflict.
// Status is only set on first insert (ABIERTO via column default).
func (s *Store) UpsertProject(ctx context.Context, p ledger.ProjectUpsert) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO projects (lcp_code, name, cap_total, exp_total)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (lcp_code) DO UPDATE
		SET name       = EXCLUDED.name,
		    cap_total  = EXCLUDED.cap_total,
		    exp_total  = EXCLUDED.exp_total,
		    updated_at = now()
	`, p.LcpCode, p.Name, numeric(p.CapTotal), numeric(p.ExpTotal))
	if err != nil {
		return fmt.Errorf("UpsertProject %s: %w", p.LcpCode, err)
	}
	return nil
}

// ListProjects returns every project, ordered by code.
func (s *Store) ListProjects(ctx context.Context) ([]ledger.Project, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+projectColumns+` FROM projects ORDER BY lcp_code`)
	if err != nil {
		return nil, fmt.Errorf("ListProjects: query: %w", err)
	}
	defer rows.Close()

	var projects []ledger.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("ListProjects: scan: %w", err)
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListProjects: rows: %w", err)
	}
	return projects, nil
}

// GetProjectByCode looks a project up by its canonical lcp code.
func (s *Store) GetProjectByCode(ctx context.Context, lcpCode string) (*ledger.Project, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE lcp_code = $1`,
		strings.ToUpper(strings.TrimSpace(lcpCode)))
	p, err := scanProject(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetProjectByCode %s: %w", lcpCode, err)
	}
	return p, nil
}

// UpdateProjectStatus sets the status of one project and returns the updated
// row, or ErrNotFound.
func (s *Store) UpdateProjectStatus(ctx context.Context, id int64, status ledger.ProjectStatus) (*ledger.Project, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE projects SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+projectColumns,
		id, string(status))
	p, err := scanProject(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("UpdateProjectStatus %d: %w", id, err)
	}
	return p, nil
}

// Stats aggregates the dashboard numbers: project counts by status and the
// four ledger sums.
func (s *Store) Stats(ctx context.Context) (*ledger.Stats, error) {
	stats := &ledger.Stats{ByStatus: make(map[string]int)}

	var capSum, expSum pgtype.Numeric
	err := s.db.QueryRow(ctx, `
		SELECT count(*), coalesce(sum(cap_total), 0), coalesce(sum(exp_total), 0)
		FROM projects
	`).Scan(&stats.Projects, &capSum, &expSum)
	if err != nil {
		return nil, fmt.Errorf("Stats: projects: %w", err)
	}
	stats.CapTotal = toDecimal(capSum)
	stats.ExpTotal = toDecimal(expSum)

	var realized, committed pgtype.Numeric
	err = s.db.QueryRow(ctx, `
		SELECT (SELECT coalesce(sum(amount), 0) FROM realized_expenses),
		       (SELECT coalesce(sum(amount), 0) FROM committed_expenses)
	`).Scan(&realized, &committed)
	if err != nil {
		return nil, fmt.Errorf("Stats: expense sums: %w", err)
	}
	stats.RealizedTotal = toDecimal(realized)
	stats.CommittedTotal = toDecimal(committed)

	rows, err := s.db.Query(ctx, `SELECT status, count(*) FROM projects GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("Stats: by status: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("Stats: scan status: %w", err)
		}
		stats.ByStatus[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Stats: rows: %w", err)
	}
	return stats, nil
}
