package storage_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LovationAdmin/financas-api/storage"
	"github.com/LovationAdmin/financas-api/storage/storagetest"
)

func insertUser(t *testing.T, g *storage.Gateway, email string) int64 {
	t.Helper()
	now := time.Now().UTC()
	id, err := g.Insert(context.Background(), `
		INSERT INTO usuarios (nome, sobrenome, email, senha, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		"Ana", "Silva", email, "hash", now, now)
	require.NoError(t, err)
	return id
}

func TestGateway_InsertAndQuery(t *testing.T) {
	g := storagetest.New(t)
	ctx := context.Background()

	id := insertUser(t, g, "ana@example.com")
	assert.Positive(t, id)

	var emails []string
	err := g.Query(ctx, `SELECT email FROM usuarios ORDER BY id`, func(rows *sql.Rows) error {
		var e string
		if err := rows.Scan(&e); err != nil {
			return err
		}
		emails = append(emails, e)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"ana@example.com"}, emails)
}

func TestGateway_QueryRowNotFound(t *testing.T) {
	g := storagetest.New(t)

	var email string
	err := g.QueryRow(context.Background(), `SELECT email FROM usuarios WHERE id = $1`, 42).Scan(&email)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGateway_UniqueViolation(t *testing.T) {
	g := storagetest.New(t)
	insertUser(t, g, "dup@example.com")

	now := time.Now().UTC()
	_, err := g.Update(context.Background(), `
		INSERT INTO usuarios (nome, sobrenome, email, senha, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		"Bia", "Souza", "dup@example.com", "hash", now, now)
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)
}

func TestGateway_UpdateReportsAffectedRows(t *testing.T) {
	g := storagetest.New(t)
	id := insertUser(t, g, "ana@example.com")
	ctx := context.Background()

	n, err := g.Update(ctx, `UPDATE usuarios SET nome = $1 WHERE id = $2`, "Ana Maria", id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = g.Update(ctx, `UPDATE usuarios SET nome = $1 WHERE id = $2`, "Nobody", id+100)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestGateway_WithTransactionRollsBack(t *testing.T) {
	g := storagetest.New(t)
	ctx := context.Background()
	id := insertUser(t, g, "ana@example.com")

	boom := errors.New("boom")
	err := g.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM usuarios WHERE id = $1`, id); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var count int
	require.NoError(t, g.QueryRow(ctx, `SELECT COUNT(*) FROM usuarios`).Scan(&count))
	assert.Equal(t, 1, count, "delete must have been rolled back")
}

func TestGateway_WithTransactionMapsNoRows(t *testing.T) {
	g := storagetest.New(t)

	err := g.WithTransaction(context.Background(), func(tx *sql.Tx) error {
		var id int64
		return tx.QueryRow(`SELECT id FROM usuarios WHERE email = $1`, "nobody@example.com").Scan(&id)
	})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGateway_Ping(t *testing.T) {
	g := storagetest.New(t)
	require.NoError(t, g.Ping(context.Background()))
	assert.Equal(t, storage.DriverSQLite, g.Driver())
}

func TestRunMigrations_IsIdempotent(t *testing.T) {
	dsn := "file:" + t.TempDir() + "/again.db?_pragma=foreign_keys(1)&_time_format=sqlite"
	require.NoError(t, storage.RunMigrations(storage.DriverSQLite, dsn))
	require.NoError(t, storage.RunMigrations(storage.DriverSQLite, dsn))
}

func TestRunMigrations_UnknownDriver(t *testing.T) {
	err := storage.RunMigrations("mysql", "whatever")
	assert.Error(t, err)
}
