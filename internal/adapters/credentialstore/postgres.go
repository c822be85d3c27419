package credentialstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Amund211/videofeed/internal/reporting"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type PostgresStore struct {
	db      *sqlx.DB
	schema  string
	ttl     time.Duration
	nowFunc func() time.Time

	tracer trace.Tracer
}

// NewPostgresStore creates a store backed by the credentials table in the given schema
//
// Credentials expire after ttl, or never if ttl is 0.
func NewPostgresStore(db *sqlx.DB, schema string, ttl time.Duration, nowFunc func() time.Time) *PostgresStore {
	return &PostgresStore{
		db:      db,
		schema:  schema,
		ttl:     ttl,
		nowFunc: nowFunc,

		tracer: otel.Tracer("videofeed/credentialstore"),
	}
}

type dbCredentialsEntry struct {
	Name      string       `db:"name"`
	Value     string       `db:"value"`
	UpdatedAt time.Time    `db:"updated_at"`
	ExpiresAt sql.NullTime `db:"expires_at"`
}

func (p *PostgresStore) GetCredential(ctx context.Context, name string) (string, bool, error) {
	ctx, span := p.tracer.Start(ctx, "PostgresStore.GetCredential", trace.WithAttributes(attribute.String("name", name)))
	defer span.End()

	var entry dbCredentialsEntry
	err := p.db.GetContext(ctx, &entry, fmt.Sprintf(`SELECT
		name, value, updated_at, expires_at
		FROM %s.credentials
		WHERE name = $1 AND (expires_at IS NULL OR expires_at > $2)`,
		pq.QuoteIdentifier(p.schema),
	),
		name,
		p.nowFunc(),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		err := fmt.Errorf("failed to select credentials entry: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"name": name,
		})
		return "", false, err
	}

	return entry.Value, true, nil
}

func (p *PostgresStore) SetCredential(ctx context.Context, name string, value string) error {
	ctx, span := p.tracer.Start(ctx, "PostgresStore.SetCredential", trace.WithAttributes(attribute.String("name", name)))
	defer span.End()

	now := p.nowFunc()
	expiresAt := sql.NullTime{}
	if p.ttl > 0 {
		expiresAt = sql.NullTime{Time: now.Add(p.ttl), Valid: true}
	}

	_, err := p.db.ExecContext(ctx, fmt.Sprintf(`INSERT INTO %s.credentials
		(name, value, updated_at, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name)
		DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at,
			expires_at = EXCLUDED.expires_at`,
		pq.QuoteIdentifier(p.schema),
	),
		name,
		value,
		now,
		expiresAt,
	)
	if err != nil {
		err := fmt.Errorf("failed to upsert credentials entry: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"name":      name,
			"updatedAt": now.Format(time.RFC3339),
		})
		return err
	}

	return nil
}

func (p *PostgresStore) DeleteCredential(ctx context.Context, name string) error {
	ctx, span := p.tracer.Start(ctx, "PostgresStore.DeleteCredential", trace.WithAttributes(attribute.String("name", name)))
	defer span.End()

	_, err := p.db.ExecContext(ctx, fmt.Sprintf(
		"DELETE FROM %s.credentials WHERE name = $1",
		pq.QuoteIdentifier(p.schema),
	),
		name,
	)
	if err != nil {
		err := fmt.Errorf("failed to delete credentials entry: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"name": name,
		})
		return err
	}

	return nil
}

var _ Store = (*PostgresStore)(nil)
