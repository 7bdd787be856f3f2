package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/poesaver"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ poesaver.ConversationService = (*ConversationService)(nil)

// ConversationService implements poesaver.ConversationService using SQLite.
type ConversationService struct {
	db  *DB
	now func() time.Time
}

// NewConversationService creates a new ConversationService.
func NewConversationService(db *DB) *ConversationService {
	return &ConversationService{db: db, now: time.Now}
}

// HashConversation computes the xxHash of the title and message list of
// conv and returns it as a hex string. Two extractions of the same share
// with the same turns hash identically regardless of when they ran.
func HashConversation(conv *poesaver.Conversation) string {
	h := xxhash.New()
	_, _ = h.WriteString(conv.Title)
	for _, m := range conv.Messages {
		_, _ = h.WriteString("\x00" + string(m.Role) + "\x00" + m.Sender + "\x00" + m.Content)
	}
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, h.Sum64())
	return hex.EncodeToString(b)
}

// CreateConversation archives a conversation with its messages.
func (s *ConversationService) CreateConversation(ctx context.Context, conv *poesaver.Conversation) (*poesaver.ConversationArchive, error) {
	if conv == nil {
		return nil, poesaver.Errorf(poesaver.EINVALID, "conversation required")
	}

	archive := &poesaver.ConversationArchive{
		ID:           uuid.New().String(),
		ContentHash:  HashConversation(conv),
		ArchivedAt:   s.now().UTC().Truncate(time.Second),
		Conversation: conv,
	}

	existing, err := s.FindConversations(ctx, poesaver.ConversationFilter{
		ConversationID: &conv.ConversationID,
		ContentHash:    &archive.ContentHash,
		Limit:          1,
	})
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, poesaver.Errorf(poesaver.ECONFLICT, "conversation %s already archived as %s", conv.ConversationID, existing[0].ID)
	}

	metadata, err := json.Marshal(conv.Metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to encode metadata: %w", err)
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO conversations (id, conversation_id, source_url, title, assistant_name, extracted_at, metadata, content_hash, archived_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, archive.ID, conv.ConversationID, conv.SourceURL, conv.Title, conv.AssistantName, conv.ExtractedAt,
		string(metadata), archive.ContentHash, archive.ArchivedAt.Format(time.RFC3339)); err != nil {
		return nil, err
	}

	for i, m := range conv.Messages {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO messages (archive_id, position, sender, role, content, timestamp)
			VALUES (?, ?, ?, ?, ?, ?)
		`, archive.ID, i, m.Sender, string(m.Role), m.Content, m.Timestamp); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return archive, nil
}

// FindConversationByID retrieves an archived conversation by ID.
func (s *ConversationService) FindConversationByID(ctx context.Context, id string) (*poesaver.ConversationArchive, error) {
	archive, err := scanArchive(s.db.QueryRowContext(ctx, `
		SELECT `+archiveColumns+`
		FROM conversations
		WHERE id = ?
	`, id))
	if err == sql.ErrNoRows {
		return nil, poesaver.Errorf(poesaver.ENOTFOUND, "conversation not found")
	}
	if err != nil {
		return nil, err
	}

	if err := s.attachMessages(ctx, archive); err != nil {
		return nil, err
	}
	return archive, nil
}

// FindConversations retrieves archived conversations matching the filter,
// most recently archived first.
func (s *ConversationService) FindConversations(ctx context.Context, filter poesaver.ConversationFilter) ([]*poesaver.ConversationArchive, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT " + archiveColumns + " FROM conversations WHERE 1=1")

	if filter.ConversationID != nil {
		query.WriteString(" AND conversation_id = ?")
		args = append(args, *filter.ConversationID)
	}
	if filter.ContentHash != nil {
		query.WriteString(" AND content_hash = ?")
		args = append(args, *filter.ContentHash)
	}

	query.WriteString(" ORDER BY archived_at DESC, rowid DESC")

	if filter.Limit > 0 {
		query.WriteString(" LIMIT ?")
		args = append(args, filter.Limit)
	} else if filter.Offset > 0 {
		// SQLite requires a LIMIT before OFFSET.
		query.WriteString(" LIMIT -1")
	}
	if filter.Offset > 0 {
		query.WriteString(" OFFSET ?")
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}

	var archives []*poesaver.ConversationArchive
	for rows.Next() {
		archive, err := scanArchive(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		archives = append(archives, archive)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	// Messages are loaded after the cursor is closed: the pool holds a
	// single connection.
	for _, archive := range archives {
		if err := s.attachMessages(ctx, archive); err != nil {
			return nil, err
		}
	}
	return archives, nil
}

const archiveColumns = "id, conversation_id, source_url, title, assistant_name, extracted_at, metadata, content_hash, archived_at"

type scanner interface {
	Scan(dest ...any) error
}

func scanArchive(row scanner) (*poesaver.ConversationArchive, error) {
	conv := &poesaver.Conversation{}
	archive := &poesaver.ConversationArchive{Conversation: conv}
	var metadata, archivedAt string

	if err := row.Scan(&archive.ID, &conv.ConversationID, &conv.SourceURL, &conv.Title, &conv.AssistantName,
		&conv.ExtractedAt, &metadata, &archive.ContentHash, &archivedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(metadata), &conv.Metadata); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}

	var err error
	archive.ArchivedAt, err = time.Parse(time.RFC3339, archivedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse archived_at: %w", err)
	}
	return archive, nil
}

func (s *ConversationService) attachMessages(ctx context.Context, archive *poesaver.ConversationArchive) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sender, role, content, timestamp
		FROM messages
		WHERE archive_id = ?
		ORDER BY position ASC
	`, archive.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var m poesaver.Message
		var role string
		if err := rows.Scan(&m.Sender, &role, &m.Content, &m.Timestamp); err != nil {
			return err
		}
		m.Role = poesaver.Role(role)
		archive.Conversation.Messages = append(archive.Conversation.Messages, &m)
	}
	return rows.Err()
}
