package store

import (
	"encoding/json"
	"time"
)

// QueueOutbox adds a message draft to the send outbox.
func (db *DB) QueueOutbox(e *OutboxEntry) error {
	now := time.Now().UnixMilli()
	paths, err := json.Marshal(e.Attachments)
	if err != nil {
		return err
	}
	_, err = db.Exec(`
		INSERT INTO outbox (client_msg_id, scope_kind, scope_id, body, attachments, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 'queued', ?, ?)`,
		e.ClientMsgID, e.ScopeKind, e.ScopeID, e.Body, string(paths), now, now)
	return err
}

// MarkOutboxSending updates an outbox entry to 'sending' status.
func (db *DB) MarkOutboxSending(clientMsgID string) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`UPDATE outbox SET status = 'sending', updated_at = ? WHERE client_msg_id = ?`, now, clientMsgID)
	return err
}

// MarkOutboxSent updates an outbox entry to 'sent' with the server message id.
func (db *DB) MarkOutboxSent(clientMsgID string, serverMsgID int64) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`UPDATE outbox SET status = 'sent', server_msg_id = ?, updated_at = ? WHERE client_msg_id = ?`, serverMsgID, now, clientMsgID)
	return err
}

// MarkOutboxFailed updates an outbox entry to 'failed' with an error message.
// Failed entries stay in the table so the user can requeue them.
func (db *DB) MarkOutboxFailed(clientMsgID, errMsg string) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`UPDATE outbox SET status = 'failed', error_message = ?, updated_at = ? WHERE client_msg_id = ?`, errMsg, now, clientMsgID)
	return err
}

// PendingOutbox returns outbox entries that are still queued, oldest first.
func (db *DB) PendingOutbox() ([]OutboxEntry, error) {
	rows, err := db.Query(`
		SELECT id, client_msg_id, scope_kind, scope_id, body, attachments, status, error_message, COALESCE(server_msg_id, 0)
		FROM outbox WHERE status = 'queued' ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []OutboxEntry
	for rows.Next() {
		var e OutboxEntry
		var paths string
		if err := rows.Scan(&e.ID, &e.ClientMsgID, &e.ScopeKind, &e.ScopeID, &e.Body, &paths, &e.Status, &e.ErrorMessage, &e.ServerMsgID); err != nil {
			return nil, err
		}
		if paths != "" {
			if err := json.Unmarshal([]byte(paths), &e.Attachments); err != nil {
				return nil, err
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// OutboxCounts returns the number of queued and failed entries.
func (db *DB) OutboxCounts() (queued, failed int, err error) {
	rows, err := db.Query(`SELECT status, COUNT(*) FROM outbox WHERE status IN ('queued', 'failed') GROUP BY status`)
	if err != nil {
		return 0, 0, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return 0, 0, err
		}
		switch status {
		case "queued":
			queued = n
		case "failed":
			failed = n
		}
	}
	return queued, failed, rows.Err()
}

// RequeueAllFailed puts every failed entry back into 'queued' status and
// returns how many were requeued.
func (db *DB) RequeueAllFailed() (int, error) {
	now := time.Now().UnixMilli()
	res, err := db.Exec(`UPDATE outbox SET status = 'queued', error_message = '', updated_at = ? WHERE status = 'failed'`, now)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
