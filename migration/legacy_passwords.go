// migration/legacy_passwords.go
// Converts password hashes written by the previous application, which stored
// the bcrypt bytes as a hex-escaped bytea literal ("\x2432622431..."), into
// plain bcrypt strings. Login accepts both formats, so this can run at any time.

package migration

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/LovationAdmin/financas-api/storage"
	"github.com/LovationAdmin/financas-api/utils"
)

// Result summarizes one migration run.
type Result struct {
	Scanned  int     `json:"scanned"`
	Migrated int     `json:"migrated"`
	Skipped  int     `json:"skipped"`
	Failed   []int64 `json:"failed"`
}

type legacyHash struct {
	userID int64
	hash   string
}

// MigrateLegacyPasswords rewrites every legacy hash. userID > 0 limits the
// run to one user.
func MigrateLegacyPasswords(ctx context.Context, db *storage.Gateway, userID int64) (*Result, error) {
	log.Println("🚀 Starting legacy password migration...")

	query := `SELECT id, senha FROM usuarios WHERE substr(senha, 1, 2) = '\x' ORDER BY id`
	args := []any{}
	if userID > 0 {
		query = `SELECT id, senha FROM usuarios WHERE substr(senha, 1, 2) = '\x' AND id = $1 ORDER BY id`
		args = append(args, userID)
	}

	// Read everything first: SQLite runs on a single connection.
	var pending []legacyHash
	err := db.Query(ctx, query, func(rows *sql.Rows) error {
		var h legacyHash
		if err := rows.Scan(&h.userID, &h.hash); err != nil {
			return err
		}
		pending = append(pending, h)
		return nil
	}, args...)
	if err != nil {
		return nil, fmt.Errorf("list legacy hashes: %w", err)
	}

	result := &Result{Scanned: len(pending), Failed: []int64{}}
	for _, h := range pending {
		plain, ok := utils.NormalizePasswordHash(h.hash)
		if !ok || !utils.IsLegacyPasswordHash(h.hash) {
			log.Printf("  ⚠️ User %d: hash is not valid hex, skipped", h.userID)
			result.Skipped++
			continue
		}

		// Compare-and-set so a password changed meanwhile is left alone.
		n, err := db.Update(ctx, `UPDATE usuarios SET senha = $1 WHERE id = $2 AND senha = $3`,
			plain, h.userID, h.hash)
		if err != nil {
			log.Printf("  ❌ User %d: %v", h.userID, err)
			result.Failed = append(result.Failed, h.userID)
			continue
		}
		if n == 0 {
			result.Skipped++
			continue
		}
		result.Migrated++
	}

	log.Printf("📊 Legacy passwords: %d scanned, %d migrated, %d skipped, %d failed",
		result.Scanned, result.Migrated, result.Skipped, len(result.Failed))
	return result, nil
}
