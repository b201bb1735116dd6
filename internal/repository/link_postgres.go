package repository

import (
	"database/sql"
	"fmt"
	"time"

	"playlink/internal/models"
)

type LinkPostgres struct {
	db *sql.DB
}

func NewLinkPostgres(db *sql.DB) *LinkPostgres {
	return &LinkPostgres{db: db}
}

const linkColumns = `code, game_account_id, hardware_id, network_address, caller_id, state, created_at, linked_at`

func (r *LinkPostgres) Put(rec models.LinkRecord) error {
	_, err := r.db.Exec(`
		INSERT INTO link_records (code, game_account_id, hardware_id, network_address, caller_id, state, created_at, linked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (code) DO UPDATE SET
			game_account_id = $2,
			hardware_id = $3,
			network_address = $4,
			caller_id = $5,
			state = $6,
			created_at = $7,
			linked_at = $8
	`, rec.Code, rec.GameAccountID, rec.HardwareID, rec.NetworkAddress,
		rec.CallerID, string(rec.State), rec.CreatedAt, nullableTime(rec.LinkedAt))

	if err != nil {
		return fmt.Errorf("failed to put link record: %w", err)
	}
	return nil
}

func (r *LinkPostgres) Get(code string) (*models.LinkRecord, error) {
	row := r.db.QueryRow(`SELECT `+linkColumns+` FROM link_records WHERE code = $1`, code)

	rec, err := scanLinkRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get link record: %w", err)
	}
	return rec, nil
}

func (r *LinkPostgres) Delete(code string) error {
	_, err := r.db.Exec(`DELETE FROM link_records WHERE code = $1`, code)
	if err != nil {
		return fmt.Errorf("failed to delete link record: %w", err)
	}
	return nil
}

func (r *LinkPostgres) FindByCaller(callerID string) ([]models.LinkRecord, error) {
	return r.query(`SELECT `+linkColumns+` FROM link_records WHERE caller_id = $1 ORDER BY created_at`, callerID)
}

func (r *LinkPostgres) FindByGameAccount(gameAccountID string) ([]models.LinkRecord, error) {
	return r.query(`SELECT `+linkColumns+` FROM link_records WHERE game_account_id = $1 ORDER BY created_at`, gameAccountID)
}

func (r *LinkPostgres) All() ([]models.LinkRecord, error) {
	return r.query(`SELECT ` + linkColumns + ` FROM link_records ORDER BY created_at`)
}

func (r *LinkPostgres) query(q string, args ...interface{}) ([]models.LinkRecord, error) {
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query link records: %w", err)
	}
	defer rows.Close()

	var recs []models.LinkRecord
	for rows.Next() {
		rec, err := scanLinkRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan link record: %w", err)
		}
		recs = append(recs, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read link records: %w", err)
	}
	return recs, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLinkRecord(row rowScanner) (*models.LinkRecord, error) {
	var rec models.LinkRecord
	var state string
	var linkedAt sql.NullTime

	err := row.Scan(&rec.Code, &rec.GameAccountID, &rec.HardwareID, &rec.NetworkAddress,
		&rec.CallerID, &state, &rec.CreatedAt, &linkedAt)
	if err != nil {
		return nil, err
	}

	rec.State = models.LinkState(state)
	if linkedAt.Valid {
		t := linkedAt.Time
		rec.LinkedAt = &t
	}
	return &rec, nil
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}
