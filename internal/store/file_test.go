package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newFileStore(t *testing.T) *FileStore {
	t.Helper()
	f, err := NewFileStore(filepath.Join(t.TempDir(), "selectors"), zaptest.NewLogger(t))
	require.NoError(t, err)
	return f
}

func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFileStore(t)
	f.now = func() time.Time { return fixedNow }

	require.NoError(t, f.Save(ctx, &SavedSelector{Name: "checkin", Selector: sampleSelector()}))
	assert.FileExists(t, filepath.Join(f.Dir(), "checkin.json"))

	got, err := f.Load(ctx, "checkin")
	require.NoError(t, err)
	if diff := cmp.Diff(sampleSelector(), got.Selector); diff != "" {
		t.Errorf("selector mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, fixedNow.Equal(got.CreatedAt))

	// Overwriting keeps the creation time.
	later := fixedNow.Add(time.Hour)
	f.now = func() time.Time { return later }
	require.NoError(t, f.Save(ctx, &SavedSelector{Name: "checkin", Selector: sampleSelector()}))
	got, err = f.Load(ctx, "checkin")
	require.NoError(t, err)
	assert.True(t, fixedNow.Equal(got.CreatedAt))
	assert.True(t, later.Equal(got.UpdatedAt))
}

func TestFileStore_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	f := newFileStore(t)

	for _, name := range []string{"zeta", "alpha"} {
		require.NoError(t, f.Save(ctx, &SavedSelector{Name: name, Selector: sampleSelector()}))
	}
	require.NoError(t, os.WriteFile(filepath.Join(f.Dir(), "broken.json"), []byte("{"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(f.Dir(), "notes.txt"), []byte("x"), 0o644))

	list, err := f.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "alpha", list[0].Name)
	assert.Equal(t, "zeta", list[1].Name)

	require.NoError(t, f.Delete(ctx, "alpha"))
	assert.ErrorIs(t, f.Delete(ctx, "alpha"), ErrNotFound)
	_, err = f.Load(ctx, "alpha")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore_RejectsUnsafeNames(t *testing.T) {
	f := newFileStore(t)
	_, err := f.Load(context.Background(), "../secret")
	assert.Error(t, err)
	assert.Error(t, f.Delete(context.Background(), ""))
}
