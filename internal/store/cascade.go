// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
)

// DeletePostCascade deletes a post and all of its comments in a single
// transaction. The comment delete is explicit rather than relying on the
// schema's ON DELETE CASCADE.
func DeletePostCascade(ctx context.Context, db *sql.DB, postID int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	q := New(tx)
	if err := q.DeleteCommentsForPost(ctx, postID); err != nil {
		return fmt.Errorf("deleting comments: %w", err)
	}
	if err := q.DeletePost(ctx, postID); err != nil {
		return fmt.Errorf("deleting post: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
