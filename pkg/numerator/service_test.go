package numerator

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

// mockQuerier simulates sys_sequences: every call bumps the stored value
// by the increment argument (1 for strict, range size for cached).
type mockQuerier struct {
	mu           sync.Mutex
	currentValue int64
	calls        int
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()

	var increment int64 = 1
	if len(args) == 2 {
		if val, ok := args[1].(int64); ok {
			increment = val
		}
	}

	m.currentValue += increment
	m.calls++

	return &mockRow{val: m.currentValue}
}

func TestGetNextNumber_Strict(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := DefaultConfig("ING")
	year := time.Now().Format("2006")

	num, err := svc.GetNextNumber(ctx, cfg, nil, time.Now())
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("ING-%s-00001", year), num)

	num, err = svc.GetNextNumber(ctx, cfg, nil, time.Now())
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("ING-%s-00002", year), num)

	assert.Equal(t, 2, q.calls, "strict mode hits the DB every time")
}

func TestGetNextNumber_Cached(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := DefaultConfig("CMB")
	year := time.Now().Format("2006")

	opts := &Options{
		Strategy:  StrategyCached,
		RangeSize: 10,
	}

	// First call reserves the range 1..10 in one DB round trip.
	num, err := svc.GetNextNumber(ctx, cfg, opts, time.Now())
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("CMB-%s-00001", year), num)
	assert.Equal(t, int64(10), q.currentValue)

	// Second call is served from memory.
	num, err = svc.GetNextNumber(ctx, cfg, opts, time.Now())
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("CMB-%s-00002", year), num)
	assert.Equal(t, int64(10), q.currentValue)

	// Exhaust the range; the next call reserves 11..20.
	for i := 0; i < 8; i++ {
		_, err = svc.GetNextNumber(ctx, cfg, opts, time.Now())
		require.NoError(t, err)
	}

	num, err = svc.GetNextNumber(ctx, cfg, opts, time.Now())
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("CMB-%s-00011", year), num)
	assert.Equal(t, int64(20), q.currentValue)
}

func TestGetNextNumber_ResetPeriods(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)

	jan := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	cfg := DefaultConfig("PI")
	cfg.ResetPeriod = "never"
	cfg.IncludeYear = false

	num, err := svc.GetNextNumber(context.Background(), cfg, nil, jan)
	require.NoError(t, err)
	assert.Equal(t, "PI-00001", num)
}

func TestParseNumber(t *testing.T) {
	assert.Equal(t, int64(42), ParseNumber("ING-2026-00042"))
	assert.Equal(t, int64(7), ParseNumber("PI-00007"))
	assert.Equal(t, int64(-1), ParseNumber("garbage"))
}
