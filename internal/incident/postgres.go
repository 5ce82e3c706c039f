package incident

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"saferoute/internal/model"
)

// Postgres stores incidents in a single table; expiry is enforced at query
// time so no background reaper is needed.
type Postgres struct {
	db  *sql.DB
	ttl time.Duration
}

func NewPostgres(dsn string, ttl time.Duration) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &Postgres{db: db, ttl: ttl}, nil
}

// Ping reports backend health for readiness probes.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *Postgres) Create(ctx context.Context, in model.IncidentInput) (model.Incident, error) {
	now := time.Now().UTC()
	inc := model.Incident{
		ID:          uuid.NewString(),
		Type:        in.Type,
		Severity:    in.Severity,
		Location:    in.Location,
		Description: in.Description,
		ReportedAt:  now.Format(time.RFC3339),
		ExpiresAt:   now.Add(p.ttl).Format(time.RFC3339),
	}
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO incidents (id, type, severity, lat, lng, description, reported_at, expires_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		inc.ID, inc.Type, inc.Severity, inc.Location.Lat, inc.Location.Lng,
		inc.Description, now, now.Add(p.ttl))
	if err != nil {
		return model.Incident{}, err
	}
	return inc, nil
}

func (p *Postgres) Get(ctx context.Context, id string) (model.Incident, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT id::text, type, severity, lat, lng, description, reported_at, expires_at
		 FROM incidents WHERE id=$1 AND expires_at > now()`, id)
	inc, err := scanIncident(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Incident{}, ErrNotFound
	}
	return inc, err
}

func (p *Postgres) ListActive(ctx context.Context) ([]model.Incident, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id::text, type, severity, lat, lng, description, reported_at, expires_at
		 FROM incidents WHERE expires_at > now() ORDER BY reported_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Incident
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inc)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIncident(r rowScanner) (model.Incident, error) {
	var inc model.Incident
	var desc sql.NullString
	var reported, expires time.Time
	err := r.Scan(&inc.ID, &inc.Type, &inc.Severity, &inc.Location.Lat, &inc.Location.Lng,
		&desc, &reported, &expires)
	if err != nil {
		return model.Incident{}, err
	}
	inc.Description = desc.String
	inc.ReportedAt = reported.UTC().Format(time.RFC3339)
	inc.ExpiresAt = expires.UTC().Format(time.RFC3339)
	return inc, nil
}

var _ Store = (*Postgres)(nil)
