package repository

import (
	"context"
	"database/sql"
)

// ConversationRepo provides access to the conversations table. The
// service only ever opens a conversation or reuses the existing one
// for a tenant/landlord pair; messages themselves live outside this
// service.
type ConversationRepo struct{ DB *sql.DB }

func NewConversationRepo(db *sql.DB) *ConversationRepo { return &ConversationRepo{DB: db} }

// GetOrCreateTx returns the conversation id for the pair, creating
// the row when none exists. The (tenant_id, landlord_id) pair carries
// a unique index so a racing insert falls back to the select.
func (r *ConversationRepo) GetOrCreateTx(ctx context.Context, tx *sql.Tx, tenantID, landlordID uint64) (uint64, error) {
	if _, err := tx.ExecContext(ctx,
		`INSERT IGNORE INTO conversations (tenant_id, landlord_id) VALUES (?,?)`,
		tenantID, landlordID); err != nil {
		return 0, err
	}
	var id uint64
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM conversations WHERE tenant_id = ? AND landlord_id = ?`,
		tenantID, landlordID).Scan(&id)
	return id, err
}
