package settings

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SQLStore keeps collections in a SQLite database, one row per recipe.
type SQLStore struct {
	conn *sqlx.DB
}

// OpenSQLStore opens or creates a SQLite database at path.
func OpenSQLStore(path string) (*SQLStore, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("settings: open db: %w", err)
	}

	s := &SQLStore{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("settings: migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.conn.Close()
}

func (s *SQLStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS noise_settings (
		key TEXT NOT NULL,
		idx INTEGER NOT NULL,
		type INTEGER NOT NULL,
		channel INTEGER NOT NULL,
		seed INTEGER NOT NULL,
		mix REAL NOT NULL,
		frequency_a INTEGER NOT NULL,
		frequency_b INTEGER NOT NULL,
		frequency_c INTEGER NOT NULL,
		PRIMARY KEY (key, idx)
	);
	`
	_, err := s.conn.Exec(schema)
	return err
}

type settingsRow struct {
	Type       int     `db:"type"`
	Channel    int     `db:"channel"`
	Seed       int     `db:"seed"`
	Mix        float64 `db:"mix"`
	FrequencyA int     `db:"frequency_a"`
	FrequencyB int     `db:"frequency_b"`
	FrequencyC int     `db:"frequency_c"`
}

// Load returns the collection stored under key, or ErrNotFound.
func (s *SQLStore) Load(key string) (Collection, error) {
	var rows []settingsRow
	err := s.conn.Select(&rows, `SELECT type, channel, seed, mix, frequency_a, frequency_b, frequency_c
		FROM noise_settings WHERE key = ? ORDER BY idx`, key)
	if err != nil {
		return Collection{}, fmt.Errorf("settings: query %q: %w", key, err)
	}
	if len(rows) == 0 {
		return Collection{}, fmt.Errorf("%w: key %q", ErrNotFound, key)
	}

	records := make([]NoiseSettings, len(rows))
	for i, r := range rows {
		records[i] = NoiseSettings{
			Type:       NoiseType(r.Type),
			Channel:    Channel(r.Channel),
			Seed:       r.Seed,
			Mix:        r.Mix,
			FrequencyA: r.FrequencyA,
			FrequencyB: r.FrequencyB,
			FrequencyC: r.FrequencyC,
		}
	}
	c, _ := FromRecords(records)
	return c, nil
}

// Save replaces every row under key in one transaction.
func (s *SQLStore) Save(key string, c Collection) error {
	tx, err := s.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM noise_settings WHERE key = ?", key); err != nil {
		return err
	}

	stmt, err := tx.Preparex(`INSERT INTO noise_settings
		(key, idx, type, channel, seed, mix, frequency_a, frequency_b, frequency_c)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range c {
		_, err := stmt.Exec(key, i, int(r.Type), int(r.Channel), r.Seed, r.Mix,
			r.FrequencyA, r.FrequencyB, r.FrequencyC)
		if err != nil {
			return fmt.Errorf("settings: insert %q slot %d: %w", key, i, err)
		}
	}

	return tx.Commit()
}

// Keys lists every key with stored settings.
func (s *SQLStore) Keys() ([]string, error) {
	var keys []string
	err := s.conn.Select(&keys, "SELECT DISTINCT key FROM noise_settings ORDER BY key")
	return keys, err
}
