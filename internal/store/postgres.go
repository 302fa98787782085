package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/hoa-onboard/internal/db"
	"github.com/sells-group/hoa-onboard/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS hoas (
	id                 BIGSERIAL PRIMARY KEY,
	name               TEXT NOT NULL,
	address            TEXT NOT NULL DEFAULT '',
	contact_email      TEXT NOT NULL,
	phone              TEXT NOT NULL DEFAULT '',
	management_company TEXT,
	website            TEXT NOT NULL DEFAULT '',
	established_date   DATE,
	total_units        INTEGER NOT NULL DEFAULT 0,
	monthly_fee_range  TEXT NOT NULL DEFAULT '',
	demo_email_used    TEXT NOT NULL DEFAULT '',
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS properties (
	id              BIGSERIAL PRIMARY KEY,
	hoa_id          BIGINT NOT NULL REFERENCES hoas(id) ON DELETE CASCADE,
	address         TEXT NOT NULL,
	property_type   TEXT NOT NULL DEFAULT 'single_family',
	unit_count      INTEGER NOT NULL DEFAULT 1 CHECK (unit_count >= 1),
	square_footage  INTEGER,
	year_built      INTEGER,
	monthly_hoa_fee NUMERIC(8,2),
	is_active       BOOLEAN NOT NULL DEFAULT TRUE,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS email_responses (
	id                          BIGSERIAL PRIMARY KEY,
	hoa_id                      BIGINT NOT NULL REFERENCES hoas(id) ON DELETE CASCADE,
	message_id                  TEXT NOT NULL UNIQUE,
	from_email                  TEXT NOT NULL DEFAULT '',
	subject                     TEXT NOT NULL DEFAULT '',
	raw_content                 TEXT NOT NULL DEFAULT '',
	html_content                TEXT NOT NULL DEFAULT '',
	text_content                TEXT NOT NULL DEFAULT '',
	manages_properties          BOOLEAN,
	properties_confirmation     TEXT,
	regular_dues_amount         TEXT,
	payment_method              TEXT,
	payment_address             TEXT,
	master_hoa_name             TEXT,
	phone_number                TEXT,
	management_company          TEXT,
	ai_analysis_result          JSONB,
	ai_generated_subject        TEXT NOT NULL DEFAULT '',
	ai_generated_response       TEXT NOT NULL DEFAULT '',
	ai_reasoning                TEXT NOT NULL DEFAULT '',
	ai_processed_at             TIMESTAMPTZ,
	response_completeness_score INTEGER NOT NULL DEFAULT 0,
	status                      TEXT NOT NULL DEFAULT 'new',
	reviewed_by                 TEXT NOT NULL DEFAULT '',
	reviewed_at                 TIMESTAMPTZ,
	generated_response_sent     BOOLEAN NOT NULL DEFAULT FALSE,
	generated_response_sent_at  TIMESTAMPTZ,
	created_at                  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at                  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_hoas_contact_email ON hoas(lower(contact_email));
CREATE INDEX IF NOT EXISTS idx_hoas_name ON hoas(lower(name));
CREATE INDEX IF NOT EXISTS idx_properties_hoa_id ON properties(hoa_id);
CREATE INDEX IF NOT EXISTS idx_email_responses_hoa_id ON email_responses(hoa_id);
CREATE INDEX IF NOT EXISTS idx_email_responses_status ON email_responses(status);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// --- HOAs ---

func (s *PostgresStore) CreateHOA(ctx context.Context, h *model.HOA) error {
	now := time.Now().UTC()
	err := s.pool.QueryRow(ctx,
		`INSERT INTO hoas (name, address, contact_email, phone, management_company, website,
			established_date, total_units, monthly_fee_range, demo_email_used, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`,
		h.Name, h.Address, h.ContactEmail, h.Phone, h.ManagementCompany, h.Website,
		h.EstablishedDate, h.TotalUnits, h.MonthlyFeeRange, h.DemoEmailUsed, now, now,
	).Scan(&h.ID)
	if err != nil {
		return eris.Wrapf(err, "postgres: insert hoa %s", h.Name)
	}
	h.CreatedAt = now
	h.UpdatedAt = now
	return nil
}

func (s *PostgresStore) GetHOA(ctx context.Context, id int64) (*model.HOA, error) {
	h, err := pgScanHOA(s.pool.QueryRow(ctx, `SELECT `+hoaColumns+` FROM hoas WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: hoa %d", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get hoa %d", id)
	}
	return h, nil
}

func (s *PostgresStore) FindHOAsByContactEmail(ctx context.Context, email string) ([]model.HOA, error) {
	return s.queryHOAs(ctx, "find hoas by contact email", `SELECT `+hoaColumns+` FROM hoas WHERE lower(contact_email) = lower($1) ORDER BY name, id`, email)
}

func (s *PostgresStore) FindHOAsByName(ctx context.Context, name string) ([]model.HOA, error) {
	return s.queryHOAs(ctx, "find hoas by name", `SELECT `+hoaColumns+` FROM hoas WHERE lower(name) = lower($1) ORDER BY name, id`, name)
}

func (s *PostgresStore) ListHOAs(ctx context.Context, page PageFilter) ([]model.HOA, error) {
	query := `SELECT ` + hoaColumns + ` FROM hoas ORDER BY name, id`
	var args []any
	if page.Limit > 0 {
		query += ` LIMIT $1 OFFSET $2`
		args = append(args, page.Limit, max(page.Offset, 0))
	}
	return s.queryHOAs(ctx, "list hoas", query, args...)
}

func (s *PostgresStore) RecentHOAs(ctx context.Context, limit int) ([]model.HOA, error) {
	if limit <= 0 {
		limit = 6
	}
	return s.queryHOAs(ctx, "recent hoas",
		`SELECT `+hoaColumns+` FROM hoas ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
}

func (s *PostgresStore) CountHOAs(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM hoas`).Scan(&n)
	return n, eris.Wrap(err, "postgres: count hoas")
}

func (s *PostgresStore) SetDemoEmailUsed(ctx context.Context, hoaID int64, email string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE hoas SET demo_email_used = $1, updated_at = $2 WHERE id = $3`,
		email, time.Now().UTC(), hoaID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: set demo email for hoa %d", hoaID)
	}
	return checkTag(tag, "hoa", hoaID)
}

func (s *PostgresStore) DeleteHOA(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM hoas WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete hoa %d", id)
	}
	return checkTag(tag, "hoa", id)
}

func (s *PostgresStore) DeleteAllHOAs(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `TRUNCATE hoas, properties, email_responses RESTART IDENTITY`)
	return eris.Wrap(err, "postgres: delete all hoas")
}

func (s *PostgresStore) queryHOAs(ctx context.Context, op, query string, args ...any) ([]model.HOA, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: %s", op)
	}
	defer rows.Close()

	var out []model.HOA
	for rows.Next() {
		h, err := pgScanHOA(rows)
		if err != nil {
			return nil, eris.Wrapf(err, "postgres: %s scan", op)
		}
		out = append(out, *h)
	}
	return out, eris.Wrapf(rows.Err(), "postgres: %s iterate", op)
}

// --- Properties ---

func (s *PostgresStore) CreateProperty(ctx context.Context, p *model.Property) error {
	now := time.Now().UTC()
	err := s.pool.QueryRow(ctx,
		`INSERT INTO properties (hoa_id, address, property_type, unit_count, square_footage, year_built,
			monthly_hoa_fee, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`,
		p.HOAID, p.Address, string(p.PropertyType), p.UnitCount, p.SquareFootage, p.YearBuilt,
		p.MonthlyHOAFee, p.IsActive, now, now,
	).Scan(&p.ID)
	if err != nil {
		return eris.Wrapf(err, "postgres: insert property for hoa %d", p.HOAID)
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

func (s *PostgresStore) ListProperties(ctx context.Context, filter PropertyFilter) ([]model.Property, error) {
	query, args := propertyWhere(`SELECT `+propertyColumns+` FROM properties WHERE 1=1`, filter, postgresPlaceholder)
	query += ` ORDER BY address, id`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list properties")
	}
	defer rows.Close()

	var out []model.Property
	for rows.Next() {
		var p model.Property
		var ptype string
		if err := rows.Scan(&p.ID, &p.HOAID, &p.Address, &ptype, &p.UnitCount, &p.SquareFootage, &p.YearBuilt,
			&p.MonthlyHOAFee, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan property")
		}
		p.PropertyType = model.PropertyType(ptype)
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list properties iterate")
}

func (s *PostgresStore) CountProperties(ctx context.Context, filter PropertyFilter) (int, error) {
	query, args := propertyWhere(`SELECT COUNT(*) FROM properties WHERE 1=1`, filter, postgresPlaceholder)
	var n int
	err := s.pool.QueryRow(ctx, query, args...).Scan(&n)
	return n, eris.Wrap(err, "postgres: count properties")
}

// --- Email responses ---

func (s *PostgresStore) CreateEmailResponse(ctx context.Context, r *model.EmailResponse) error {
	now := time.Now().UTC()
	if r.Status == "" {
		r.Status = model.ResponseStatusNew
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO email_responses (hoa_id, message_id, from_email, subject, raw_content, html_content,
			text_content, response_completeness_score, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`,
		r.HOAID, r.MessageID, r.FromEmail, r.Subject, r.RawContent, r.HTMLContent,
		r.TextContent, r.CompletenessScore, string(r.Status), now, now,
	).Scan(&r.ID)
	if err != nil {
		if isPgUniqueViolation(err) {
			return eris.Wrapf(ErrDuplicateMessage, "postgres: message %s", r.MessageID)
		}
		return eris.Wrapf(err, "postgres: insert email response %s", r.MessageID)
	}
	r.CreatedAt = now
	r.UpdatedAt = now
	return nil
}

func (s *PostgresStore) GetEmailResponse(ctx context.Context, id int64) (*model.EmailResponse, error) {
	r, err := pgScanResponse(s.pool.QueryRow(ctx, `SELECT `+responseColumns+` FROM email_responses WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: email response %d", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get email response %d", id)
	}
	return r, nil
}

func (s *PostgresStore) EmailResponseExists(ctx context.Context, messageID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM email_responses WHERE message_id = $1)`, messageID).Scan(&exists)
	return exists, eris.Wrapf(err, "postgres: email response exists %s", messageID)
}

func (s *PostgresStore) ListEmailResponses(ctx context.Context, filter ResponseFilter) ([]model.EmailResponse, error) {
	query := `SELECT ` + responseColumns + ` FROM email_responses WHERE 1=1`
	var args []any

	if filter.HOAID != 0 {
		args = append(args, filter.HOAID)
		query += ` AND hoa_id = ` + postgresPlaceholder(len(args))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += ` AND status = ` + postgresPlaceholder(len(args))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	args = append(args, limit)
	query += ` LIMIT ` + postgresPlaceholder(len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET ` + postgresPlaceholder(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list email responses")
	}
	defer rows.Close()

	var out []model.EmailResponse
	for rows.Next() {
		r, err := pgScanResponse(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan email response")
		}
		out = append(out, *r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list email responses iterate")
}

func (s *PostgresStore) LatestEmailResponse(ctx context.Context, hoaID int64) (*model.EmailResponse, error) {
	list, err := s.ListEmailResponses(ctx, ResponseFilter{HOAID: hoaID, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return &list[0], nil
}

func (s *PostgresStore) SaveAnalysis(ctx context.Context, r *model.EmailResponse) error {
	var analysisJSON []byte
	if r.AIAnalysis != nil {
		b, err := json.Marshal(r.AIAnalysis)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal ai analysis")
		}
		analysisJSON = b
	}
	now := time.Now().UTC()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin save analysis")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	e := r.Extracted
	tag, err := tx.Exec(ctx,
		`UPDATE email_responses SET
			manages_properties = $1, properties_confirmation = $2, regular_dues_amount = $3,
			payment_method = $4, payment_address = $5, master_hoa_name = $6, phone_number = $7,
			management_company = $8, ai_analysis_result = $9, ai_generated_subject = $10,
			ai_generated_response = $11, ai_reasoning = $12, ai_processed_at = $13,
			response_completeness_score = $14, updated_at = $15
		 WHERE id = $16`,
		e.ManagesProperties, e.PropertiesConfirmation, e.RegularDuesAmount,
		e.PaymentMethod, e.PaymentAddress, e.MasterHOAName, e.PhoneNumber,
		e.ManagementCompany, analysisJSON, r.AIGeneratedSubject,
		r.AIGeneratedResponse, r.AIReasoning, r.AIProcessedAt,
		r.CompletenessScore, now, r.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: save analysis %d", r.ID)
	}
	if err := checkTag(tag, "email response", r.ID); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return eris.Wrapf(err, "postgres: commit analysis %d", r.ID)
	}
	r.UpdatedAt = now
	return nil
}

func (s *PostgresStore) MarkReviewed(ctx context.Context, id int64, reviewedBy string, at time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE email_responses SET
			status = CASE WHEN status = $1 THEN $2 ELSE status END,
			reviewed_by = $3, reviewed_at = $4, updated_at = $5
		 WHERE id = $6`,
		string(model.ResponseStatusNew), string(model.ResponseStatusReviewed),
		reviewedBy, at.UTC(), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: mark reviewed %d", id)
	}
	return checkTag(tag, "email response", id)
}

func (s *PostgresStore) MarkGeneratedSent(ctx context.Context, id int64, at time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE email_responses SET
			generated_response_sent = TRUE, generated_response_sent_at = $1,
			status = $2, updated_at = $3
		 WHERE id = $4 AND NOT generated_response_sent`,
		at.UTC(), string(model.ResponseStatusProcessed), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: mark generated sent %d", id)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM email_responses WHERE id = $1)`, id).Scan(&exists); err != nil {
			return eris.Wrapf(err, "postgres: check email response %d", id)
		}
		if !exists {
			return eris.Wrapf(ErrNotFound, "postgres: email response %d", id)
		}
		return eris.Wrapf(ErrAlreadySent, "postgres: email response %d", id)
	}
	return nil
}

// helpers

func checkTag(tag pgconn.CommandTag, entity string, id int64) error {
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "%s %d", entity, id)
	}
	return nil
}

func isPgUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func pgScanHOA(row pgx.Row) (*model.HOA, error) {
	var h model.HOA
	err := row.Scan(&h.ID, &h.Name, &h.Address, &h.ContactEmail, &h.Phone, &h.ManagementCompany, &h.Website,
		&h.EstablishedDate, &h.TotalUnits, &h.MonthlyFeeRange, &h.DemoEmailUsed, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func pgScanResponse(row pgx.Row) (*model.EmailResponse, error) {
	var r model.EmailResponse
	var status string
	var analysis []byte
	e := &r.Extracted

	err := row.Scan(&r.ID, &r.HOAID, &r.MessageID, &r.FromEmail, &r.Subject, &r.RawContent,
		&r.HTMLContent, &r.TextContent,
		&e.ManagesProperties, &e.PropertiesConfirmation, &e.RegularDuesAmount, &e.PaymentMethod,
		&e.PaymentAddress, &e.MasterHOAName, &e.PhoneNumber, &e.ManagementCompany,
		&analysis, &r.AIGeneratedSubject, &r.AIGeneratedResponse, &r.AIReasoning, &r.AIProcessedAt,
		&r.CompletenessScore, &status, &r.ReviewedBy, &r.ReviewedAt,
		&r.GeneratedResponseSent, &r.GeneratedResponseSentAt, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.Status = model.ResponseStatus(status)

	if len(analysis) > 0 {
		r.AIAnalysis = &model.AnalysisResult{}
		if err := json.Unmarshal(analysis, r.AIAnalysis); err != nil {
			return nil, eris.Wrap(err, "unmarshal ai analysis")
		}
	}
	return &r, nil
}
