package memory

import (
	"database/sql"
	"embed"
	"errors"
	"time"

	_ "modernc.org/sqlite"

	"telegram-agenda-bridge/internal/models"
)

//go:embed schema.sql
var ddl embed.FS

// SQLiteStore is the persistent ConversationStore backend. The semantics
// match Store exactly; only the lifetime changes.
type SQLiteStore struct{ db *sql.DB }

func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, err
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	b, err := ddl.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	_, err = db.Exec(string(b))
	return err
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Snapshot(chatID int64) ([]models.AgendaItem, error) {
	rows, err := s.db.Query(`
        SELECT fecha, hora, texto FROM snapshot_items
        WHERE chat_id=? ORDER BY pos`, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.AgendaItem
	for rows.Next() {
		var it models.AgendaItem
		if err := rows.Scan(&it.Date, &it.Time, &it.Text); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *SQLiteStore) SetSnapshot(chatID int64, items []models.AgendaItem) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM snapshot_items WHERE chat_id=?`, chatID); err != nil {
		return err
	}
	for i, it := range items {
		if _, err := tx.Exec(`
            INSERT INTO snapshot_items (chat_id, pos, fecha, hora, texto)
            VALUES (?,?,?,?,?)`, chatID, i, it.Date, it.Time, it.Text); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) ClearSnapshot(chatID int64) error {
	_, err := s.db.Exec(`DELETE FROM snapshot_items WHERE chat_id=?`, chatID)
	return err
}

func (s *SQLiteStore) Pending(chatID int64) (models.PendingAction, bool, error) {
	var p models.PendingAction
	err := s.db.QueryRow(`
        SELECT kind, date, which, command FROM pending_actions
        WHERE chat_id=?`, chatID,
	).Scan(&p.Kind, &p.Date, &p.Which, &p.Command)
	if errors.Is(err, sql.ErrNoRows) {
		return models.PendingAction{}, false, nil
	}
	if err != nil {
		return models.PendingAction{}, false, err
	}
	return p, true, nil
}

func (s *SQLiteStore) SetPending(chatID int64, p models.PendingAction) error {
	_, err := s.db.Exec(`
        INSERT INTO pending_actions (chat_id, kind, date, which, command)
        VALUES (?,?,?,?,?)
        ON CONFLICT(chat_id) DO UPDATE SET kind=excluded.kind,
            date=excluded.date, which=excluded.which, command=excluded.command
    `, chatID, p.Kind, p.Date, p.Which, p.Command)
	return err
}

func (s *SQLiteStore) ClearPending(chatID int64) error {
	_, err := s.db.Exec(`DELETE FROM pending_actions WHERE chat_id=?`, chatID)
	return err
}

func (s *SQLiteStore) Touch(chatID int64) error {
	_, err := s.db.Exec(`
        INSERT INTO chats (chat_id, created_at) VALUES (?,?)
        ON CONFLICT(chat_id) DO NOTHING`, chatID, time.Now().Unix())
	return err
}

func (s *SQLiteStore) Chats() ([]int64, error) {
	rows, err := s.db.Query(`SELECT chat_id FROM chats ORDER BY chat_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) MarkNotified(chatID int64, key string) (bool, error) {
	res, err := s.db.Exec(`
        INSERT INTO notified_reminders (chat_id, dedup_key, notified_at)
        VALUES (?,?,?)
        ON CONFLICT(chat_id, dedup_key) DO NOTHING`,
		chatID, key, time.Now().Unix())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
