package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sells-group/hoa-onboard/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
// Foreign keys are enabled per connection through the DSN so that deleting an
// HOA cascades to its properties and responses.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", withPragmas(dsn))
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func withPragmas(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS hoas (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
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
	created_at         DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at         DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS properties (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	hoa_id          INTEGER NOT NULL REFERENCES hoas(id) ON DELETE CASCADE,
	address         TEXT NOT NULL,
	property_type   TEXT NOT NULL DEFAULT 'single_family',
	unit_count      INTEGER NOT NULL DEFAULT 1,
	square_footage  INTEGER,
	year_built      INTEGER,
	monthly_hoa_fee TEXT,
	is_active       INTEGER NOT NULL DEFAULT 1,
	created_at      DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS email_responses (
	id                          INTEGER PRIMARY KEY AUTOINCREMENT,
	hoa_id                      INTEGER NOT NULL REFERENCES hoas(id) ON DELETE CASCADE,
	message_id                  TEXT NOT NULL UNIQUE,
	from_email                  TEXT NOT NULL DEFAULT '',
	subject                     TEXT NOT NULL DEFAULT '',
	raw_content                 TEXT NOT NULL DEFAULT '',
	html_content                TEXT NOT NULL DEFAULT '',
	text_content                TEXT NOT NULL DEFAULT '',
	manages_properties          INTEGER,
	properties_confirmation     TEXT,
	regular_dues_amount         TEXT,
	payment_method              TEXT,
	payment_address             TEXT,
	master_hoa_name             TEXT,
	phone_number                TEXT,
	management_company          TEXT,
	ai_analysis_result          TEXT,
	ai_generated_subject        TEXT NOT NULL DEFAULT '',
	ai_generated_response       TEXT NOT NULL DEFAULT '',
	ai_reasoning                TEXT NOT NULL DEFAULT '',
	ai_processed_at             DATETIME,
	response_completeness_score INTEGER NOT NULL DEFAULT 0,
	status                      TEXT NOT NULL DEFAULT 'new',
	reviewed_by                 TEXT NOT NULL DEFAULT '',
	reviewed_at                 DATETIME,
	generated_response_sent     INTEGER NOT NULL DEFAULT 0,
	generated_response_sent_at  DATETIME,
	created_at                  DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at                  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_hoas_contact_email ON hoas(lower(contact_email));
CREATE INDEX IF NOT EXISTS idx_hoas_name ON hoas(lower(name));
CREATE INDEX IF NOT EXISTS idx_properties_hoa_id ON properties(hoa_id);
CREATE INDEX IF NOT EXISTS idx_email_responses_hoa_id ON email_responses(hoa_id);
CREATE INDEX IF NOT EXISTS idx_email_responses_status ON email_responses(status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- HOAs ---

const hoaColumns = `id, name, address, contact_email, phone, management_company, website,
	established_date, total_units, monthly_fee_range, demo_email_used, created_at, updated_at`

func (s *SQLiteStore) CreateHOA(ctx context.Context, h *model.HOA) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO hoas (name, address, contact_email, phone, management_company, website,
			established_date, total_units, monthly_fee_range, demo_email_used, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.Name, h.Address, h.ContactEmail, h.Phone, nullString(h.ManagementCompany), h.Website,
		nullTime(h.EstablishedDate), h.TotalUnits, h.MonthlyFeeRange, h.DemoEmailUsed, now, now,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: insert hoa %s", h.Name)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return eris.Wrap(err, "sqlite: hoa last insert id")
	}
	h.ID = id
	h.CreatedAt = now
	h.UpdatedAt = now
	return nil
}

func (s *SQLiteStore) GetHOA(ctx context.Context, id int64) (*model.HOA, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+hoaColumns+` FROM hoas WHERE id = ?`, id)
	h, err := scanHOA(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: hoa %d", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get hoa %d", id)
	}
	return h, nil
}

func (s *SQLiteStore) FindHOAsByContactEmail(ctx context.Context, email string) ([]model.HOA, error) {
	return s.queryHOAs(ctx, "find hoas by contact email",
		`SELECT `+hoaColumns+` FROM hoas WHERE lower(contact_email) = lower(?) ORDER BY name, id`, email)
}

func (s *SQLiteStore) FindHOAsByName(ctx context.Context, name string) ([]model.HOA, error) {
	return s.queryHOAs(ctx, "find hoas by name",
		`SELECT `+hoaColumns+` FROM hoas WHERE lower(name) = lower(?) ORDER BY name, id`, name)
}

func (s *SQLiteStore) ListHOAs(ctx context.Context, page PageFilter) ([]model.HOA, error) {
	query := `SELECT ` + hoaColumns + ` FROM hoas ORDER BY name, id`
	var args []any
	if page.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, page.Limit, max(page.Offset, 0))
	}
	return s.queryHOAs(ctx, "list hoas", query, args...)
}

func (s *SQLiteStore) RecentHOAs(ctx context.Context, limit int) ([]model.HOA, error) {
	if limit <= 0 {
		limit = 6
	}
	return s.queryHOAs(ctx, "recent hoas",
		`SELECT `+hoaColumns+` FROM hoas ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
}

func (s *SQLiteStore) CountHOAs(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM hoas`).Scan(&n)
	return n, eris.Wrap(err, "sqlite: count hoas")
}

func (s *SQLiteStore) SetDemoEmailUsed(ctx context.Context, hoaID int64, email string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE hoas SET demo_email_used = ?, updated_at = ? WHERE id = ?`,
		email, time.Now().UTC(), hoaID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set demo email for hoa %d", hoaID)
	}
	return checkRowsAffected(res, "hoa", hoaID)
}

func (s *SQLiteStore) DeleteHOA(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM hoas WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete hoa %d", id)
	}
	return checkRowsAffected(res, "hoa", id)
}

func (s *SQLiteStore) DeleteAllHOAs(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin delete all")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, table := range []string{"email_responses", "properties", "hoas"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return eris.Wrapf(err, "sqlite: delete from %s", table)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit delete all")
}

func (s *SQLiteStore) queryHOAs(ctx context.Context, op, query string, args ...any) ([]model.HOA, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: %s", op)
	}
	defer rows.Close()

	var out []model.HOA
	for rows.Next() {
		h, err := scanHOA(rows)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: %s scan", op)
		}
		out = append(out, *h)
	}
	return out, eris.Wrapf(rows.Err(), "sqlite: %s iterate", op)
}

// --- Properties ---

const propertyColumns = `id, hoa_id, address, property_type, unit_count, square_footage, year_built,
	monthly_hoa_fee, is_active, created_at, updated_at`

func (s *SQLiteStore) CreateProperty(ctx context.Context, p *model.Property) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO properties (hoa_id, address, property_type, unit_count, square_footage, year_built,
			monthly_hoa_fee, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.HOAID, p.Address, string(p.PropertyType), p.UnitCount, nullInt(p.SquareFootage), nullInt(p.YearBuilt),
		p.MonthlyHOAFee, p.IsActive, now, now,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: insert property for hoa %d", p.HOAID)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return eris.Wrap(err, "sqlite: property last insert id")
	}
	p.ID = id
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

func (s *SQLiteStore) ListProperties(ctx context.Context, filter PropertyFilter) ([]model.Property, error) {
	query, args := propertyWhere(`SELECT `+propertyColumns+` FROM properties WHERE 1=1`, filter, sqlitePlaceholder)
	query += ` ORDER BY address, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list properties")
	}
	defer rows.Close()

	var out []model.Property
	for rows.Next() {
		var p model.Property
		var ptype string
		var sqft, year sql.NullInt64
		if err := rows.Scan(&p.ID, &p.HOAID, &p.Address, &ptype, &p.UnitCount, &sqft, &year,
			&p.MonthlyHOAFee, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan property")
		}
		p.PropertyType = model.PropertyType(ptype)
		p.SquareFootage = fromNullInt(sqft)
		p.YearBuilt = fromNullInt(year)
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list properties iterate")
}

func (s *SQLiteStore) CountProperties(ctx context.Context, filter PropertyFilter) (int, error) {
	query, args := propertyWhere(`SELECT COUNT(*) FROM properties WHERE 1=1`, filter, sqlitePlaceholder)
	var n int
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, eris.Wrap(err, "sqlite: count properties")
}

// --- Email responses ---

const responseColumns = `id, hoa_id, message_id, from_email, subject, raw_content, html_content, text_content,
	manages_properties, properties_confirmation, regular_dues_amount, payment_method, payment_address,
	master_hoa_name, phone_number, management_company,
	ai_analysis_result, ai_generated_subject, ai_generated_response, ai_reasoning, ai_processed_at,
	response_completeness_score, status, reviewed_by, reviewed_at,
	generated_response_sent, generated_response_sent_at, created_at, updated_at`

func (s *SQLiteStore) CreateEmailResponse(ctx context.Context, r *model.EmailResponse) error {
	now := time.Now().UTC()
	if r.Status == "" {
		r.Status = model.ResponseStatusNew
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO email_responses (hoa_id, message_id, from_email, subject, raw_content, html_content,
			text_content, response_completeness_score, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.HOAID, r.MessageID, r.FromEmail, r.Subject, r.RawContent, r.HTMLContent,
		r.TextContent, r.CompletenessScore, string(r.Status), now, now,
	)
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return eris.Wrapf(ErrDuplicateMessage, "sqlite: message %s", r.MessageID)
		}
		return eris.Wrapf(err, "sqlite: insert email response %s", r.MessageID)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return eris.Wrap(err, "sqlite: email response last insert id")
	}
	r.ID = id
	r.CreatedAt = now
	r.UpdatedAt = now
	return nil
}

func (s *SQLiteStore) GetEmailResponse(ctx context.Context, id int64) (*model.EmailResponse, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+responseColumns+` FROM email_responses WHERE id = ?`, id)
	r, err := scanResponse(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: email response %d", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get email response %d", id)
	}
	return r, nil
}

func (s *SQLiteStore) EmailResponseExists(ctx context.Context, messageID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM email_responses WHERE message_id = ?)`, messageID,
	).Scan(&exists)
	return exists, eris.Wrapf(err, "sqlite: email response exists %s", messageID)
}

func (s *SQLiteStore) ListEmailResponses(ctx context.Context, filter ResponseFilter) ([]model.EmailResponse, error) {
	query := `SELECT ` + responseColumns + ` FROM email_responses WHERE 1=1`
	var args []any

	if filter.HOAID != 0 {
		query += ` AND hoa_id = ?`
		args = append(args, filter.HOAID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list email responses")
	}
	defer rows.Close()

	var out []model.EmailResponse
	for rows.Next() {
		r, err := scanResponse(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan email response")
		}
		out = append(out, *r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list email responses iterate")
}

func (s *SQLiteStore) LatestEmailResponse(ctx context.Context, hoaID int64) (*model.EmailResponse, error) {
	list, err := s.ListEmailResponses(ctx, ResponseFilter{HOAID: hoaID, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return &list[0], nil
}

// SaveAnalysis writes every classification-derived field in one transaction.
func (s *SQLiteStore) SaveAnalysis(ctx context.Context, r *model.EmailResponse) error {
	analysisJSON, err := marshalAnalysis(r.AIAnalysis)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin save analysis")
	}
	defer tx.Rollback() //nolint:errcheck

	e := r.Extracted
	res, err := tx.ExecContext(ctx,
		`UPDATE email_responses SET
			manages_properties = ?, properties_confirmation = ?, regular_dues_amount = ?,
			payment_method = ?, payment_address = ?, master_hoa_name = ?, phone_number = ?,
			management_company = ?, ai_analysis_result = ?, ai_generated_subject = ?,
			ai_generated_response = ?, ai_reasoning = ?, ai_processed_at = ?,
			response_completeness_score = ?, updated_at = ?
		 WHERE id = ?`,
		nullBool(e.ManagesProperties), nullString(e.PropertiesConfirmation), nullString(e.RegularDuesAmount),
		nullString(e.PaymentMethod), nullString(e.PaymentAddress), nullString(e.MasterHOAName), nullString(e.PhoneNumber),
		nullString(e.ManagementCompany), analysisJSON, r.AIGeneratedSubject,
		r.AIGeneratedResponse, r.AIReasoning, nullTime(r.AIProcessedAt),
		r.CompletenessScore, now, r.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: save analysis %d", r.ID)
	}
	if err := checkRowsAffected(res, "email response", r.ID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return eris.Wrapf(err, "sqlite: commit analysis %d", r.ID)
	}
	r.UpdatedAt = now
	return nil
}

// MarkReviewed stamps reviewed_at and advances a new response to reviewed.
// Responses already past review keep their status.
func (s *SQLiteStore) MarkReviewed(ctx context.Context, id int64, reviewedBy string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE email_responses SET
			status = CASE WHEN status = ? THEN ? ELSE status END,
			reviewed_by = ?, reviewed_at = ?, updated_at = ?
		 WHERE id = ?`,
		string(model.ResponseStatusNew), string(model.ResponseStatusReviewed),
		reviewedBy, at.UTC(), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: mark reviewed %d", id)
	}
	return checkRowsAffected(res, "email response", id)
}

// MarkGeneratedSent sets the write-once sent flag and moves the response to
// processed. It fails with ErrAlreadySent if the flag was already set.
func (s *SQLiteStore) MarkGeneratedSent(ctx context.Context, id int64, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE email_responses SET
			generated_response_sent = 1, generated_response_sent_at = ?,
			status = ?, updated_at = ?
		 WHERE id = ? AND generated_response_sent = 0`,
		at.UTC(), string(model.ResponseStatusProcessed), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: mark generated sent %d", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		if _, err := s.GetEmailResponse(ctx, id); err != nil {
			return err
		}
		return eris.Wrapf(ErrAlreadySent, "sqlite: email response %d", id)
	}
	return nil
}

// helpers

func checkRowsAffected(res sql.Result, entity string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %d", entity, id)
	}
	return nil
}

func isSQLiteUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

type scannable interface {
	Scan(dest ...any) error
}

func scanHOA(row scannable) (*model.HOA, error) {
	var h model.HOA
	var mgmt sql.NullString
	var established sql.NullTime
	err := row.Scan(&h.ID, &h.Name, &h.Address, &h.ContactEmail, &h.Phone, &mgmt, &h.Website,
		&established, &h.TotalUnits, &h.MonthlyFeeRange, &h.DemoEmailUsed, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}
	h.ManagementCompany = fromNullString(mgmt)
	h.EstablishedDate = fromNullTime(established)
	return &h, nil
}

func scanResponse(row scannable) (*model.EmailResponse, error) {
	var r model.EmailResponse
	var manages sql.NullBool
	var confirmation, dues, method, address, master, phone, mgmt sql.NullString
	var analysis sql.NullString
	var status string
	var processedAt, reviewedAt, sentAt sql.NullTime

	err := row.Scan(&r.ID, &r.HOAID, &r.MessageID, &r.FromEmail, &r.Subject, &r.RawContent,
		&r.HTMLContent, &r.TextContent,
		&manages, &confirmation, &dues, &method, &address, &master, &phone, &mgmt,
		&analysis, &r.AIGeneratedSubject, &r.AIGeneratedResponse, &r.AIReasoning, &processedAt,
		&r.CompletenessScore, &status, &r.ReviewedBy, &reviewedAt,
		&r.GeneratedResponseSent, &sentAt, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}

	r.Status = model.ResponseStatus(status)
	r.Extracted = model.ExtractedData{
		ManagesProperties:      fromNullBool(manages),
		PropertiesConfirmation: fromNullString(confirmation),
		RegularDuesAmount:      fromNullString(dues),
		PaymentMethod:          fromNullString(method),
		PaymentAddress:         fromNullString(address),
		MasterHOAName:          fromNullString(master),
		PhoneNumber:            fromNullString(phone),
		ManagementCompany:      fromNullString(mgmt),
	}
	r.AIProcessedAt = fromNullTime(processedAt)
	r.ReviewedAt = fromNullTime(reviewedAt)
	r.GeneratedResponseSentAt = fromNullTime(sentAt)

	if analysis.Valid && analysis.String != "" {
		r.AIAnalysis = &model.AnalysisResult{}
		if err := json.Unmarshal([]byte(analysis.String), r.AIAnalysis); err != nil {
			return nil, eris.Wrap(err, "unmarshal ai analysis")
		}
	}
	return &r, nil
}

func marshalAnalysis(a *model.AnalysisResult) (any, error) {
	if a == nil {
		return nil, nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal ai analysis")
	}
	return string(b), nil
}
