package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"loan-eligibility/domain"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

func checkDriver(driver string) error {
	switch driver {
	case DriverSQLite, DriverPostgres:
		return nil
	default:
		return fmt.Errorf("unsupported storage driver %q", driver)
	}
}

// DecisionRepositorySQL keeps decision history in sqlite3 or postgres.
type DecisionRepositorySQL struct {
	db     *sql.DB
	driver string
}

// OpenDecisionRepositorySQL connects and verifies connectivity. The schema
// must already exist; see Migrate.
func OpenDecisionRepositorySQL(ctx context.Context, driver, dsn string) (*DecisionRepositorySQL, error) {
	if err := checkDriver(driver); err != nil {
		return nil, err
	}
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("%s: dsn must not be empty", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// sqlite allows a single writer
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	return &DecisionRepositorySQL{db: db, driver: driver}, nil
}

// storedApplication reads the application column back without the enum
// validation applied at the transport boundary. A request that omitted a
// field was stored with an empty label and must still list.
type storedApplication struct {
	Gender            string  `json:"gender"`
	Married           string  `json:"married"`
	Dependents        string  `json:"dependents"`
	Education         string  `json:"education"`
	SelfEmployed      string  `json:"self_employed"`
	ApplicantIncome   float64 `json:"applicant_income"`
	CoapplicantIncome float64 `json:"coapplicant_income"`
	LoanAmount        float64 `json:"loan_amount"`
	LoanTermMonths    int     `json:"loan_term_months"`
	CreditHistory     string  `json:"credit_history"`
	PropertyArea      string  `json:"property_area"`
}

func (a storedApplication) raw() domain.RawApplication {
	return domain.RawApplication{
		Gender:            domain.Gender(a.Gender),
		Married:           domain.YesNo(a.Married),
		Dependents:        domain.Dependents(a.Dependents),
		Education:         domain.Education(a.Education),
		SelfEmployed:      domain.YesNo(a.SelfEmployed),
		ApplicantIncome:   a.ApplicantIncome,
		CoapplicantIncome: a.CoapplicantIncome,
		LoanAmount:        a.LoanAmount,
		LoanTermMonths:    a.LoanTermMonths,
		CreditHistory:     domain.CreditHistory(a.CreditHistory),
		PropertyArea:      domain.PropertyArea(a.PropertyArea),
	}
}

func (r *DecisionRepositorySQL) Close() error {
	return r.db.Close()
}

// rebind turns ? placeholders into $n for postgres.
func (r *DecisionRepositorySQL) rebind(query string) string {
	if r.driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

func (r *DecisionRepositorySQL) Save(ctx context.Context, record domain.DecisionRecord) error {
	application, err := json.Marshal(record.Application)
	if err != nil {
		return fmt.Errorf("encoding application: %w", err)
	}
	features, err := json.Marshal(record.Features)
	if err != nil {
		return fmt.Errorf("encoding features: %w", err)
	}

	decidedAt := record.DecidedAt
	if decidedAt.IsZero() {
		decidedAt = time.Now()
	}

	query := r.rebind(`
		INSERT INTO decisions (application, features, label, message, model, decided_at)
		VALUES (?, ?, ?, ?, ?, ?)`)

	_, err = r.db.ExecContext(ctx, query,
		string(application),
		string(features),
		int(record.Label),
		record.Message,
		record.Model,
		decidedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert decision: %w", err)
	}
	return nil
}

func (r *DecisionRepositorySQL) List(ctx context.Context, limit int) ([]domain.DecisionRecord, error) {
	query := `
		SELECT id, application, features, label, message, model, decided_at
		FROM decisions
		ORDER BY decided_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	defer rows.Close()

	records := []domain.DecisionRecord{}
	for rows.Next() {
		var (
			rec         domain.DecisionRecord
			stored      storedApplication
			application string
			features    string
			label       int
		)
		if err := rows.Scan(&rec.ID, &application, &features, &label, &rec.Message, &rec.Model, &rec.DecidedAt); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		if err := json.Unmarshal([]byte(application), &stored); err != nil {
			return nil, fmt.Errorf("decoding application of decision %d: %w", rec.ID, err)
		}
		rec.Application = stored.raw()
		if err := json.Unmarshal([]byte(features), &rec.Features); err != nil {
			return nil, fmt.Errorf("decoding features of decision %d: %w", rec.ID, err)
		}
		rec.Label = domain.Label(label)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	return records, nil
}
