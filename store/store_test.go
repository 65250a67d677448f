package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/papertrader/sim"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleState() sim.AccountState {
	opened := time.Date(2024, 1, 2, 15, 0, 0, 123456789, time.UTC)
	s := sim.NewAccount("EUR_USD", d("10000"))
	s.Cash = d("9489.5")
	s.Equity = d("10512.25")
	s.Commissions = d("10.5")
	s.LastDecisionAt = opened.Add(time.Hour)
	s.Position = &sim.Position{
		ID: "01HNZ", Symbol: "EUR_USD", Side: sim.Long,
		EntryPrice: d("1.0845"), Quantity: d("9220.839096357768557"), Leverage: 10,
		Margin: d("1000"), EntryCommission: d("10"), OpenedAt: opened,
	}
	s.History = []sim.Trade{{
		ID: "01HNY", Symbol: "EUR_USD", Side: sim.Long,
		EntryPrice: d("100"), ExitPrice: d("105"), Quantity: d("100"), Leverage: 1,
		Margin: d("10000"), Commission: d("10.5"), RealizedPL: d("489.5"),
		OpenedAt: opened.Add(-2 * time.Hour), ClosedAt: opened.Add(-time.Hour),
		CloseReason: sim.ReasonSignal,
	}}
	return s
}

func assertSameState(t *testing.T, want, got sim.AccountState) {
	t.Helper()

	decs := func(s sim.AccountState) []decimal.Decimal {
		return []decimal.Decimal{s.InitialBalance, s.Cash, s.Equity, s.Commissions}
	}
	for i, w := range decs(want) {
		assert.True(t, w.Equal(decs(got)[i]), "field %d: want %s got %s", i, w, decs(got)[i])
	}
	assert.Equal(t, want.Symbol, got.Symbol)
	assert.True(t, want.LastDecisionAt.Equal(got.LastDecisionAt))

	if want.Position == nil {
		assert.Nil(t, got.Position)
	} else {
		require.NotNil(t, got.Position)
		wp, gp := want.Position, got.Position
		assert.Equal(t, wp.ID, gp.ID)
		assert.Equal(t, wp.Side, gp.Side)
		assert.Equal(t, wp.Leverage, gp.Leverage)
		assert.True(t, wp.EntryPrice.Equal(gp.EntryPrice))
		assert.True(t, wp.Quantity.Equal(gp.Quantity))
		assert.True(t, wp.Margin.Equal(gp.Margin))
		assert.True(t, wp.EntryCommission.Equal(gp.EntryCommission))
		assert.True(t, wp.OpenedAt.Equal(gp.OpenedAt))
	}

	require.Len(t, got.History, len(want.History))
	for i, w := range want.History {
		g := got.History[i]
		assert.Equal(t, w.ID, g.ID)
		assert.Equal(t, w.Symbol, g.Symbol)
		assert.Equal(t, w.Side, g.Side)
		assert.Equal(t, w.Leverage, g.Leverage)
		assert.Equal(t, w.CloseReason, g.CloseReason)
		assert.True(t, w.EntryPrice.Equal(g.EntryPrice))
		assert.True(t, w.ExitPrice.Equal(g.ExitPrice))
		assert.True(t, w.Quantity.Equal(g.Quantity))
		assert.True(t, w.Margin.Equal(g.Margin))
		assert.True(t, w.Commission.Equal(g.Commission))
		assert.True(t, w.RealizedPL.Equal(g.RealizedPL))
		assert.True(t, w.OpenedAt.Equal(g.OpenedAt))
		assert.True(t, w.ClosedAt.Equal(g.ClosedAt))
	}
}

func stores(t *testing.T) map[string]Store {
	t.Helper()

	fs, err := NewFileStore(filepath.Join(t.TempDir(), "accounts"))
	require.NoError(t, err)
	sq, err := NewSQLiteStore(filepath.Join(t.TempDir(), "accounts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sq.Close() })

	return map[string]Store{"file": fs, "sqlite": sq}
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := st.Load(ctx, "EUR_USD")
			assert.ErrorIs(t, err, ErrNotFound)

			want := sampleState()
			require.NoError(t, st.Save(ctx, want))

			got, err := st.Load(ctx, "EUR_USD")
			require.NoError(t, err)
			assertSameState(t, want, got)

			// a second save replaces the first
			want.Position = nil
			want.Cash = d("10489.5")
			require.NoError(t, st.Save(ctx, want))
			got, err = st.Load(ctx, "EUR_USD")
			require.NoError(t, err)
			assertSameState(t, want, got)

			require.NoError(t, st.Delete(ctx, "EUR_USD"))
			_, err = st.Load(ctx, "EUR_USD")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestRoundTripKeepsTimes(t *testing.T) {
	t.Parallel()

	est := time.FixedZone("EST", -5*60*60)
	openAt := time.Date(2024, 1, 2, 10, 0, 0, 987654321, est)

	e := sim.NewEngine(sim.DefaultParams())
	want, _, err := e.Apply(sim.NewAccount("EUR_USD", d("10000")), sim.Order{
		Action: sim.Buy, Price: d("100"), Time: openAt, Fraction: 0.1, Leverage: 2,
	})
	require.NoError(t, err)
	want, _, err = e.Apply(want, sim.Order{Action: sim.Sell, Price: d("102"), Time: openAt.Add(time.Hour)})
	require.NoError(t, err)
	want, _, err = e.Apply(want, sim.Order{
		Action: sim.Buy, Price: d("101"), Time: openAt.Add(2 * time.Hour), Fraction: 0.1, Leverage: 2,
	})
	require.NoError(t, err)

	ctx := context.Background()
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, st.Save(ctx, want))
			got, err := st.Load(ctx, "EUR_USD")
			require.NoError(t, err)

			assertSameState(t, want, got)
			assert.Equal(t, want.LastDecisionAt, got.LastDecisionAt)
			require.NotNil(t, got.Position)
			assert.Equal(t, want.Position.OpenedAt, got.Position.OpenedAt)
			require.Len(t, got.History, 1)
			assert.Equal(t, want.History[0].OpenedAt, got.History[0].OpenedAt)
			assert.Equal(t, want.History[0].ClosedAt, got.History[0].ClosedAt)
		})
	}
}

func TestFreshAccountRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			want := sim.NewAccount("BTC/USD", d("500"))
			require.NoError(t, st.Save(ctx, want))
			got, err := st.Load(ctx, "BTC/USD")
			require.NoError(t, err)
			assertSameState(t, want, got)
			assert.NotNil(t, got.History)
		})
	}
}

func TestFileStoreCorruptSnapshot(t *testing.T) {
	t.Parallel()

	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(fs.Path("EUR_USD"), []byte("{not json"), 0o644))

	_, err = fs.Load(context.Background(), "EUR_USD")
	assert.ErrorIs(t, err, ErrPersistence)
}

func TestFileStoreFailedSaveKeepsPrevious(t *testing.T) {
	t.Parallel()

	if os.Geteuid() == 0 {
		t.Skip("directory permissions are not enforced for root")
	}

	ctx := context.Background()
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	require.NoError(t, err)

	want := sampleState()
	require.NoError(t, fs.Save(ctx, want))

	require.NoError(t, os.Chmod(dir, 0o555))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	next := want
	next.Cash = d("1")
	err = fs.Save(ctx, next)
	assert.ErrorIs(t, err, ErrPersistence)

	got, err := fs.Load(ctx, "EUR_USD")
	require.NoError(t, err)
	assertSameState(t, want, got)
}

func TestFileStoreLeavesNoTempFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, fs.Save(context.Background(), sampleState()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "EUR_USD.json", entries[0].Name())
}

func TestLoadOrCreate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	fresh := sim.NewAccount("EUR_USD", d("10000"))
	got, created, err := LoadOrCreate(ctx, fs, "EUR_USD", fresh)
	require.NoError(t, err)
	assert.True(t, created)
	assertSameState(t, fresh, got)

	require.NoError(t, fs.Save(ctx, sampleState()))
	got, created, err = LoadOrCreate(ctx, fs, "EUR_USD", fresh)
	require.NoError(t, err)
	assert.False(t, created)
	assert.NotNil(t, got.Position)
}

func TestOpenKinds(t *testing.T) {
	t.Parallel()

	st, err := Open("file", t.TempDir())
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, st)

	st, err = Open("sqlite", filepath.Join(t.TempDir(), "x.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, st)
	assert.NoError(t, st.Close())

	_, err = Open("redis", "")
	assert.Error(t, err)
}
