package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/quality-measures/accelerator/internal/ums"
)

func newTestMeasureStore(t *testing.T) *MeasureStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "measures.db")
	s, err := NewMeasureStore(path, zap.NewNop().Sugar())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleMeasureDoc(id string) *ums.Measure {
	return &ums.Measure{
		Metadata: ums.Metadata{
			MeasureID: id,
			Title:     "Diabetes A1c Control",
			Version:   "1.0.0",
			Program:   ums.ProgramHEDIS,
		},
	}
}

func TestMeasureStore_PutThenGetRoundTrips(t *testing.T) {
	s := newTestMeasureStore(t)
	m := sampleMeasureDoc("m1")

	id, err := s.Put(m)
	require.NoError(t, err)
	assert.Equal(t, "m1", id)

	got, err := s.Get("m1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Diabetes A1c Control", got.Metadata.Title)
}

func TestMeasureStore_GetMissingReturnsNilNotError(t *testing.T) {
	s := newTestMeasureStore(t)
	got, err := s.Get("does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMeasureStore_PutIsIdempotentOnConflict(t *testing.T) {
	s := newTestMeasureStore(t)
	m := sampleMeasureDoc("m1")
	_, err := s.Put(m)
	require.NoError(t, err)

	m.Metadata.Title = "Updated Title"
	_, err = s.Put(m)
	require.NoError(t, err)

	got, err := s.Get("m1")
	require.NoError(t, err)
	assert.Equal(t, "Updated Title", got.Metadata.Title)
}

func TestMeasureStore_ListFiltersByProgram(t *testing.T) {
	s := newTestMeasureStore(t)
	hedis := sampleMeasureDoc("m1")
	hedis.Metadata.Program = ums.ProgramHEDIS
	mips := sampleMeasureDoc("m2")
	mips.Metadata.Program = ums.ProgramMIPS

	_, err := s.Put(hedis)
	require.NoError(t, err)
	_, err = s.Put(mips)
	require.NoError(t, err)

	all, err := s.List("")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := s.List(string(ums.ProgramMIPS))
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "m2", filtered[0].MeasureID)
}
