package store

import "time"

// UpsertMessage inserts or updates a cached message (idempotent on
// scope + server id). Returns the local row id.
func (db *DB) UpsertMessage(m *Message) (int64, error) {
	now := time.Now().UnixMilli()
	var id int64
	err := db.QueryRow(`
		INSERT INTO messages (scope_kind, scope_id, server_id, sender_id, body, sent_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(scope_kind, scope_id, server_id) DO UPDATE SET
			sender_id = excluded.sender_id,
			body = excluded.body,
			sent_at = excluded.sent_at
		RETURNING id`,
		m.ScopeKind, m.ScopeID, m.ServerID, m.SenderID, m.Body, m.SentAt, now).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// UpsertImage attaches a cached image reference to a message (idempotent on
// message + server id).
func (db *DB) UpsertImage(img *Image) error {
	_, err := db.Exec(`
		INSERT INTO images (message_id, server_id, url)
		VALUES (?, ?, ?)
		ON CONFLICT(message_id, server_id) DO UPDATE SET
			url = excluded.url`,
		img.MessageID, img.ServerID, img.URL)
	return err
}

// ListMessages returns cached messages for a thread using keyset pagination
// by sent time, newest first.
func (db *DB) ListMessages(scopeKind string, scopeID int64, beforeTs int64, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 50
	}
	if beforeTs <= 0 {
		beforeTs = time.Now().UnixMilli() + 1
	}
	rows, err := db.Query(`
		SELECT id, scope_kind, scope_id, server_id, sender_id, body, sent_at
		FROM messages
		WHERE scope_kind = ? AND scope_id = ? AND sent_at < ?
		ORDER BY sent_at DESC
		LIMIT ?`, scopeKind, scopeID, beforeTs, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ScopeKind, &m.ScopeID, &m.ServerID, &m.SenderID, &m.Body, &m.SentAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// ListImages returns the cached images of a message in server order.
func (db *DB) ListImages(messageID int64) ([]Image, error) {
	rows, err := db.Query(`
		SELECT id, message_id, server_id, url
		FROM images
		WHERE message_id = ?
		ORDER BY server_id ASC`, messageID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var imgs []Image
	for rows.Next() {
		var img Image
		if err := rows.Scan(&img.ID, &img.MessageID, &img.ServerID, &img.URL); err != nil {
			return nil, err
		}
		imgs = append(imgs, img)
	}
	return imgs, rows.Err()
}
