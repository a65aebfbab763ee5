package history

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maastricht-university/vocal-indicators/indicators"
	"github.com/maastricht-university/vocal-indicators/microtask"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func stores(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": newTestSQLiteStore(t),
	}
}

func TestStoreUnknownPatientHasEmptyProfile(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			p, err := s.Profile(context.Background(), "nobody")
			require.NoError(t, err)
			assert.NotNil(t, p.RiskFlags)
			assert.Empty(t, p.RiskFlags)
			assert.NotNil(t, p.History)
			assert.Empty(t, p.History)
		})
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.SetRiskFlags(ctx, "p1", map[indicators.Condition]bool{
				indicators.Parkinson: true,
				indicators.FTD:       true,
			}))
			require.NoError(t, s.SetRiskFlags(ctx, "p1", map[indicators.Condition]bool{
				indicators.FTD: false,
			}))
			require.NoError(t, s.RecordCompletion(ctx, "p1", microtask.SustainedVowel, 3))
			require.NoError(t, s.RecordCompletion(ctx, "p1", microtask.DDK, 3))
			require.NoError(t, s.RecordCompletion(ctx, "p1", microtask.SustainedVowel, 4))
			require.NoError(t, s.RecordCompletion(ctx, "p2", microtask.DepressionScreen, 1))

			p, err := s.Profile(ctx, "p1")
			require.NoError(t, err)
			assert.Equal(t, map[indicators.Condition]bool{
				indicators.Parkinson: true,
				indicators.FTD:       false,
			}, p.RiskFlags)
			assert.Equal(t, []microtask.Completion{
				{TaskID: microtask.SustainedVowel, Period: 3},
				{TaskID: microtask.DDK, Period: 3},
				{TaskID: microtask.SustainedVowel, Period: 4},
			}, p.History)

			got := microtask.Select(p, 4, nil)
			require.Len(t, got, 2)
			assert.Equal(t, microtask.DDK, got[0].ID)
			assert.Equal(t, microtask.CategoryFluency, got[1].ID)
		})
	}
}

func TestStoreRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, s.RecordCompletion(ctx, "p1", microtask.DDK, 0), ErrInvalidPeriod)
			assert.ErrorIs(t, s.RecordCompletion(ctx, "p1", microtask.DDK, -3), ErrInvalidPeriod)
			assert.ErrorIs(t, s.RecordCompletion(ctx, "p1", "knitting", 2), ErrUnknownTask)
			assert.ErrorIs(t, s.RecordCompletion(ctx, " ", microtask.DDK, 2), ErrInvalidPatient)
			assert.ErrorIs(t, s.SetRiskFlags(ctx, "p1", map[indicators.Condition]bool{"flu": true}), ErrUnknownCondition)
			_, err := s.Profile(ctx, "")
			assert.ErrorIs(t, err, ErrInvalidPatient)

			p, err := s.Profile(ctx, "p1")
			require.NoError(t, err)
			assert.Empty(t, p.History)
			assert.Empty(t, p.RiskFlags)
		})
	}
}

func TestProfileIsACopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.RecordCompletion(ctx, "p1", microtask.DDK, 2))
	require.NoError(t, s.SetRiskFlags(ctx, "p1", map[indicators.Condition]bool{indicators.LBD: true}))

	p, err := s.Profile(ctx, "p1")
	require.NoError(t, err)
	p.History[0].Period = 99
	p.RiskFlags[indicators.LBD] = false

	again, err := s.Profile(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, again.History[0].Period)
	assert.True(t, again.RiskFlags[indicators.LBD])
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "reopen.db")

	s1, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s1.SetRiskFlags(ctx, "p1", map[indicators.Condition]bool{indicators.Alzheimer: true}))
	require.NoError(t, s1.RecordCompletion(ctx, "p1", microtask.CategoryFluency, 7))
	require.NoError(t, s1.Close())

	s2, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer s2.Close()

	p, err := s2.Profile(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, p.RiskFlags[indicators.Alzheimer])
	assert.Equal(t, []microtask.Completion{{TaskID: microtask.CategoryFluency, Period: 7}}, p.History)
}

func TestSQLiteStoreCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "nested", "history.db")
	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.RecordCompletion(context.Background(), "p1", microtask.DDK, 1))
	assert.FileExists(t, path)
}

func TestMemoryStoreConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(period int) {
			defer wg.Done()
			_ = s.RecordCompletion(ctx, "p1", microtask.DepressionScreen, period)
		}(i)
	}
	wg.Wait()

	p, err := s.Profile(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, p.History, 50)
}
