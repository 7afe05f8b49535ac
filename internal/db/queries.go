package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/hpungsan/voxnote/internal/errors"
)

// Slot keys for the three persisted documents.
const (
	SlotNotes    = "voiceNotes"
	SlotFolders  = "voiceFolders"
	SlotSettings = "voiceNotesSettings"
)

// Slot is a stored document and the time it was last written.
type Slot struct {
	Key       string
	Value     []byte
	UpdatedAt int64
}

// GetSlot reads a slot. A missing slot returns (nil, nil) so callers can fall back to defaults.
func GetSlot(ctx context.Context, db *sql.DB, key string) (*Slot, error) {
	row := db.QueryRowContext(ctx, `SELECT key, value, updated_at FROM slots WHERE key = ?`, key)

	var s Slot
	var value string
	err := row.Scan(&s.Key, &value, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	s.Value = []byte(value)
	return &s, nil
}

// PutSlot overwrites a slot. Last write wins.
func PutSlot(ctx context.Context, db *sql.DB, key string, value []byte) error {
	return PutSlots(ctx, db, map[string][]byte{key: value})
}

// PutSlots overwrites several slots in a single transaction.
// Either every slot is written or none is.
func PutSlots(ctx context.Context, db *sql.DB, values map[string][]byte) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewInternal(err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UnixMilli()
	for key, value := range values {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO slots (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`, key, string(value), now)
		if err != nil {
			return errors.NewInternal(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// DeleteSlot removes a slot so the next read falls back to defaults.
func DeleteSlot(ctx context.Context, db *sql.DB, key string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM slots WHERE key = ?`, key); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// Recording is one row of the recording session log.
type Recording struct {
	ID           string
	NoteID       string
	StartedAt    int64
	StoppedAt    int64
	Outcome      string
	ErrorCode    *string
	SegmentCount int
	AudioPath    *string
}

// InsertRecording appends a finished recording session to the log.
func InsertRecording(ctx context.Context, db *sql.DB, r *Recording) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO recordings (
			id, note_id, started_at, stopped_at, outcome, error_code, segment_count, audio_path
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.NoteID, r.StartedAt, r.StoppedAt, r.Outcome,
		toNullString(r.ErrorCode), r.SegmentCount, toNullString(r.AudioPath))
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// ListRecordings returns the recordings of a note, newest first.
// An empty noteID lists recordings of every note.
func ListRecordings(ctx context.Context, db *sql.DB, noteID string, limit int) ([]Recording, error) {
	query := `
		SELECT id, note_id, started_at, stopped_at, outcome, error_code, segment_count, audio_path
		FROM recordings
	`
	args := []any{}
	if noteID != "" {
		query += " WHERE note_id = ?"
		args = append(args, noteID)
	}
	query += " ORDER BY started_at DESC, id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var out []Recording
	for rows.Next() {
		var r Recording
		var errorCode, audioPath sql.NullString
		if err := rows.Scan(&r.ID, &r.NoteID, &r.StartedAt, &r.StoppedAt, &r.Outcome,
			&errorCode, &r.SegmentCount, &audioPath); err != nil {
			return nil, errors.NewInternal(err)
		}
		r.ErrorCode = fromNullString(errorCode)
		r.AudioPath = fromNullString(audioPath)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

// DeleteRecordingsForNote drops the log entries of a deleted note.
func DeleteRecordingsForNote(ctx context.Context, db *sql.DB, noteID string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM recordings WHERE note_id = ?`, noteID); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// toNullString converts a *string to sql.NullString.
func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// fromNullString converts a sql.NullString to *string.
func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
