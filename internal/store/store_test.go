package store

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/scalpel-locator/api/schemas"
	"github.com/xkilldash9x/scalpel-locator/internal/geometry"
)

// flexibleSQLMatcher creates a regex that is insensitive to whitespace for more robust SQL mock testing.
func flexibleSQLMatcher(sql string) string {
	trimmed := strings.TrimSpace(sql)
	return regexp.MustCompile(`\s+`).ReplaceAllString(regexp.QuoteMeta(trimmed), `\s+`)
}

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func sampleSelector() schemas.DateSelector {
	return schemas.DateSelector{
		PanelsBase: []schemas.SelectorNode{{
			Name: "div", Type: schemas.SelectorNodeTypeWeb,
			Attributes: []schemas.SelectorAttribute{{Name: "class", Value: "picker-panel", Operator: schemas.OperatorEqual, Required: true}},
		}},
		Nodes: schemas.FeatureSelector{{
			Name:             "yearMonth",
			Type:             schemas.FeatureNodeSingle,
			Bounding:         geometry.Rect{X: 90, Y: 5, Width: 100, Height: 30},
			VisualAttributes: []schemas.VisualAttribute{schemas.VisualCenter, schemas.VisualTop},
			Fuzzy:            schemas.DefaultFuzzy,
		}},
	}
}

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)

	mockPool.ExpectPing()
	s, err := New(context.Background(), mockPool, zap.NewNop())
	require.NoError(t, err)
	s.now = func() time.Time { return fixedNow }
	return s, mockPool
}

func TestNewStore(t *testing.T) {
	t.Run("should return error if ping fails", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		pingErr := errors.New("database unavailable")
		mockPool.ExpectPing().WillReturnError(pingErr)

		_, err = New(context.Background(), mockPool, zap.NewNop())
		require.Error(t, err)
		assert.ErrorIs(t, err, pingErr, "Error from ping should be propagated")
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestStore_Migrate(t *testing.T) {
	s, mockPool := newMockStore(t)
	mockPool.ExpectExec(flexibleSQLMatcher(sqlCreateTable)).WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestStore_Save(t *testing.T) {
	ctx := context.Background()

	t.Run("should upsert the encoded selector", func(t *testing.T) {
		s, mockPool := newMockStore(t)
		mockPool.ExpectExec(flexibleSQLMatcher(sqlUpsert)).
			WithArgs("checkin", pgxmock.AnyArg(), fixedNow, fixedNow).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		sel := &SavedSelector{Name: "checkin", Selector: sampleSelector()}
		require.NoError(t, s.Save(ctx, sel))
		assert.Equal(t, fixedNow, sel.CreatedAt)
		assert.Equal(t, fixedNow, sel.UpdatedAt)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("should reject names that are not file safe", func(t *testing.T) {
		s, mockPool := newMockStore(t)
		err := s.Save(ctx, &SavedSelector{Name: "../etc", Selector: sampleSelector()})
		assert.ErrorContains(t, err, "invalid selector name")
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("should wrap database errors", func(t *testing.T) {
		s, mockPool := newMockStore(t)
		dbErr := errors.New("connection reset")
		mockPool.ExpectExec(flexibleSQLMatcher(sqlUpsert)).
			WithArgs("checkin", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(dbErr)

		err := s.Save(ctx, &SavedSelector{Name: "checkin", Selector: sampleSelector()})
		assert.ErrorIs(t, err, dbErr)
		assert.ErrorContains(t, err, `failed to save selector "checkin"`)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestStore_Load(t *testing.T) {
	ctx := context.Background()
	data, err := schemas.Encode(sampleSelector())
	require.NoError(t, err)

	t.Run("should decode the stored document", func(t *testing.T) {
		s, mockPool := newMockStore(t)
		created := fixedNow.Add(-time.Hour)
		mockPool.ExpectQuery(flexibleSQLMatcher(sqlLoad)).WithArgs("checkin").
			WillReturnRows(pgxmock.NewRows([]string{"data", "created_at", "updated_at"}).AddRow(data, created, fixedNow))

		got, err := s.Load(ctx, "checkin")
		require.NoError(t, err)
		if diff := cmp.Diff(sampleSelector(), got.Selector); diff != "" {
			t.Errorf("selector mismatch (-want +got):\n%s", diff)
		}
		assert.Equal(t, created, got.CreatedAt)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("should report missing rows as not found", func(t *testing.T) {
		s, mockPool := newMockStore(t)
		mockPool.ExpectQuery(flexibleSQLMatcher(sqlLoad)).WithArgs("missing").WillReturnError(pgx.ErrNoRows)

		_, err := s.Load(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStore_List(t *testing.T) {
	s, mockPool := newMockStore(t)
	core, logs := observer.New(zapcore.WarnLevel)
	s.log = zap.New(core)

	data, err := schemas.Encode(sampleSelector())
	require.NoError(t, err)
	mockPool.ExpectQuery(flexibleSQLMatcher(sqlList)).
		WillReturnRows(pgxmock.NewRows([]string{"name", "data", "created_at", "updated_at"}).
			AddRow("a", data, fixedNow, fixedNow).
			AddRow("broken", []byte(`{"nodes":[]}`), fixedNow, fixedNow).
			AddRow("c", data, fixedNow, fixedNow))

	got, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Name)
	assert.Equal(t, "c", got[1].Name)
	assert.Equal(t, 1, logs.FilterField(zap.String("name", "broken")).Len())
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	s, mockPool := newMockStore(t)
	mockPool.ExpectExec(flexibleSQLMatcher(sqlDelete)).WithArgs("a").WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mockPool.ExpectExec(flexibleSQLMatcher(sqlDelete)).WithArgs("b").WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, s.Delete(ctx, "a"))
	assert.ErrorIs(t, s.Delete(ctx, "b"), ErrNotFound)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}
