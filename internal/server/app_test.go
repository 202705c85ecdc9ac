package server

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/studymatch/internal/logging"
	"github.com/dmitrijs2005/studymatch/internal/server/config"
	"github.com/dmitrijs2005/studymatch/internal/server/repositories/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.HTTPAddr = "127.0.0.1:0"
	c.S3Bucket = ""
	return c
}

func TestNewApp_OpenError(t *testing.T) {
	orig := sqlOpen
	t.Cleanup(func() { sqlOpen = orig })
	sqlOpen = func(driver, dsn string) (*sql.DB, error) {
		assert.Equal(t, "pgx", driver)
		return nil, errors.New("bad dsn")
	}

	_, err := NewApp(context.Background(), testConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db init error: bad dsn")
}

func TestNewApp_EmptyDSNUsesMemory(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	orig := sqlOpen
	t.Cleanup(func() { sqlOpen = orig })
	sqlOpen = func(driver, dsn string) (*sql.DB, error) {
		assert.Equal(t, "sqlite", driver)
		assert.Equal(t, ":memory:", dsn)
		return db, nil
	}

	c := testConfig()
	c.DatabaseDSN = ""
	app, err := NewApp(context.Background(), c)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	app.http.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, app.db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewApp_WiresHandler(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	app, err := newApp(context.Background(), testConfig(), logging.Nop{}, db, memory.NewInMemoryRepositoryManager())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	app.http.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	app, err := newApp(context.Background(), testConfig(), logging.Nop{}, db, memory.NewInMemoryRepositoryManager())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}
