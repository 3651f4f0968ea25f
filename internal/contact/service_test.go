package contact

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/velvetcharms/storefront-backend/pkg/config"
	"github.com/velvetcharms/storefront-backend/pkg/db/models"
	pkgerrors "github.com/velvetcharms/storefront-backend/pkg/errors"
	"github.com/velvetcharms/storefront-backend/pkg/migrate"
	"github.com/velvetcharms/storefront-backend/pkg/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, migrate.Up(context.Background(), sqlDB, config.DBDriverSQLite))
	return conn
}

func TestSubmitPersistsRecord(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewService(NewRepository(db), nil)
	require.NoError(t, err)

	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.(*service).now = func() time.Time { return fixed }

	msg, err := svc.Submit(context.Background(), Submission{
		Name:       "  Ada ",
		Email:      "ada@example.com",
		Message:    "Do you ship to Lisbon?",
		Fields:     types.Fields{"subject": "shipping"},
		RemoteAddr: "10.0.0.1",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada", msg.Name)
	assert.Equal(t, fixed, msg.CreatedAt)

	var stored models.ContactMessage
	require.NoError(t, db.First(&stored, "id = ?", msg.ID).Error)
	assert.Equal(t, "ada@example.com", stored.Email)
	assert.Equal(t, "shipping", stored.Fields["subject"])
	assert.Equal(t, "10.0.0.1", stored.RemoteAddr)
}

func TestSubmitValidation(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewService(NewRepository(db), nil)
	require.NoError(t, err)

	cases := []struct {
		name  string
		sub   Submission
		field string
	}{
		{"missing name", Submission{Email: "a@b.co", Message: "hi"}, "name"},
		{"bad email", Submission{Name: "A", Email: "nope", Message: "hi"}, "email"},
		{"blank message", Submission{Name: "A", Email: "a@b.co", Message: "   "}, "message"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Submit(context.Background(), tc.sub)
			require.Error(t, err)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
			details, ok := typed.Details().(map[string]string)
			require.True(t, ok)
			assert.Contains(t, details, tc.field)
		})
	}

	var count int64
	require.NoError(t, db.Model(&models.ContactMessage{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRecentNewestFirst(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewService(NewRepository(db), nil)
	require.NoError(t, err)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, name := range []string{"first", "second", "third"} {
		at := base.Add(time.Duration(i) * time.Minute)
		svc.(*service).now = func() time.Time { return at }
		_, err := svc.Submit(context.Background(), Submission{Name: name, Email: "x@y.io", Message: "m"})
		require.NoError(t, err)
	}

	rows, err := svc.Recent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "third", rows[0].Name)
	assert.Equal(t, "second", rows[1].Name)
}

type failingRepo struct{ Repository }

func (failingRepo) Create(context.Context, *models.ContactMessage) error {
	return errors.New("disk full")
}

func TestSubmitRepositoryFailureIsDependency(t *testing.T) {
	svc, err := NewService(failingRepo{}, nil)
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), Submission{Name: "A", Email: "a@b.co", Message: "hi"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestNewServiceRequiresRepo(t *testing.T) {
	_, err := NewService(nil, nil)
	assert.Error(t, err)
}

func TestSubmitRetriesOnIDCollision(t *testing.T) {
	conn := newTestDB(t)
	svc, err := NewService(NewRepository(conn), nil)
	require.NoError(t, err)

	taken := uuid.New()
	fresh := uuid.New()
	ids := []uuid.UUID{taken, taken, fresh}
	svc.(*service).newID = func() uuid.UUID {
		id := ids[0]
		ids = ids[1:]
		return id
	}

	sub := Submission{Name: "A", Email: "a@b.co", Message: "hi"}
	first, err := svc.Submit(context.Background(), sub)
	require.NoError(t, err)
	assert.Equal(t, taken, first.ID)

	second, err := svc.Submit(context.Background(), sub)
	require.NoError(t, err)
	assert.Equal(t, fresh, second.ID)
}
