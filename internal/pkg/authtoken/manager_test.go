package authtoken

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/otpkeeper/internal/pkg/clock"
)

type memStore struct {
	mu     sync.Mutex
	rows   []Token
	failOn string
	err    error
}

func (s *memStore) fail(op string) error {
	if s.failOn == op {
		return s.err
	}
	return nil
}

func (s *memStore) Insert(_ context.Context, t Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("insert"); err != nil {
		return err
	}
	for _, r := range s.rows {
		if r.Value == t.Value || r.ID == t.ID {
			return ErrDuplicate
		}
	}
	s.rows = append(s.rows, t)
	return nil
}

func (s *memStore) RecentIDs(_ context.Context, userID int64, limit int) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("recent"); err != nil {
		return nil, err
	}
	var mine []Token
	for _, r := range s.rows {
		if r.UserID == userID {
			mine = append(mine, r)
		}
	}
	sort.Slice(mine, func(i, j int) bool {
		if !mine[i].CreatedAt.Equal(mine[j].CreatedAt) {
			return mine[i].CreatedAt.After(mine[j].CreatedAt)
		}
		return mine[i].ID > mine[j].ID
	})
	ids := make([]int64, 0, limit)
	for i := 0; i < len(mine) && i < limit; i++ {
		ids = append(ids, mine[i].ID)
	}
	return ids, nil
}

func (s *memStore) DeleteStale(_ context.Context, userID int64, keepIDs []int64, exclude string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("delete_stale"); err != nil {
		return 0, err
	}
	var n int64
	s.rows = slices.DeleteFunc(s.rows, func(r Token) bool {
		stale := r.UserID == userID && !r.Keep && r.Value != exclude && !slices.Contains(keepIDs, r.ID)
		if stale {
			n++
		}
		return stale
	})
	return n, nil
}

func (s *memStore) Delete(_ context.Context, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("delete"); err != nil {
		return err
	}
	s.rows = slices.DeleteFunc(s.rows, func(r Token) bool { return r.Value == value })
	return nil
}

func (s *memStore) Find(_ context.Context, value string) (Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("find"); err != nil {
		return Token{}, err
	}
	for _, r := range s.rows {
		if r.Value == value {
			return r, nil
		}
	}
	return Token{}, ErrNotFound
}

func (s *memStore) tokens(userID int64) []Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Token
	for _, r := range s.rows {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out
}

type seqIDs struct{ n atomic.Int64 }

func (s *seqIDs) Generate() int64 { return s.n.Add(1) }

type scriptedValues struct {
	mu     sync.Mutex
	values []string
	err    error
}

func (s *scriptedValues) Next() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	v := s.values[0]
	s.values = s.values[1:]
	return v, nil
}

var t0 = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func newTestManager(store Store, opts Options) *Manager {
	if opts.Clock == nil {
		opts.Clock = clock.Fixed(t0)
	}
	if opts.IDs == nil {
		opts.IDs = &seqIDs{}
	}
	return New(store, opts)
}

func unpinned(ts []Token) int {
	n := 0
	for _, t := range ts {
		if !t.Keep {
			n++
		}
	}
	return n
}

func TestIssue_DefaultTTL(t *testing.T) {
	store := &memStore{}
	m := newTestManager(store, Options{})

	got, err := m.Issue(context.Background(), 7, DefaultTTL())
	require.NoError(t, err)

	assert.Regexp(t, `^[0-9a-f]{32}$`, got.Token)
	assert.Equal(t, t0, got.CreatedAt)
	assert.Equal(t, t0.AddDate(0, 0, 365), got.ExpiresAt)

	rows := store.tokens(7)
	require.Len(t, rows, 1)
	assert.Equal(t, got.Token, rows[0].Value)
	assert.False(t, rows[0].Keep)
}

func TestIssue_TTL(t *testing.T) {
	tests := []struct {
		name string
		ttl  TTL
		want time.Time
	}{
		{"explicit", TTLOf(30), t0.AddDate(0, 0, 30)},
		{"zero", TTLOf(0), t0.AddDate(0, 0, 1)},
		{"negative", TTLOf(-5), t0.AddDate(0, 0, 1)},
		{"parsed", ParseTTL("14"), t0.AddDate(0, 0, 14)},
		{"unparsable", ParseTTL("soon"), t0.AddDate(0, 0, 1)},
		{"blank text", ParseTTL("  "), t0.AddDate(0, 0, 365)},
		{"huge", TTLOf(200000), t0.AddDate(0, 0, 200000)},
		{"beyond cap", TTLOf(1 << 40), t0.AddDate(0, 0, MaxTTLDays)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestManager(&memStore{}, Options{})
			got, err := m.Issue(context.Background(), 1, tt.ttl)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.ExpiresAt)
			assert.True(t, got.ExpiresAt.After(got.CreatedAt))

			_, ok, err := m.Resolve(context.Background(), got.Token, got.CreatedAt)
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestIssue_ConfiguredDefaultTTL(t *testing.T) {
	m := newTestManager(&memStore{}, Options{DefaultTTLDays: 10})
	got, err := m.Issue(context.Background(), 1, DefaultTTL())
	require.NoError(t, err)
	assert.Equal(t, t0.AddDate(0, 0, 10), got.ExpiresAt)
}

func TestIssue_RetentionKeepsPinned(t *testing.T) {
	store := &memStore{}
	ids := &seqIDs{}
	now := t0
	m := newTestManager(store, Options{IDs: ids, Clock: clock.Func(func() time.Time { return now })})

	// a pinned token older than everything else
	store.rows = append(store.rows, Token{ID: ids.Generate(), UserID: 1, Value: "pinned", Keep: true, CreatedAt: t0.Add(-time.Hour)})
	// another user's tokens are never touched
	store.rows = append(store.rows, Token{ID: ids.Generate(), UserID: 2, Value: "other", CreatedAt: t0.Add(-time.Hour)})

	var last Issued
	for i := range 6 {
		now = t0.Add(time.Duration(i) * time.Minute)
		var err error
		last, err = m.Issue(context.Background(), 1, DefaultTTL())
		require.NoError(t, err)
	}

	rows := store.tokens(1)
	assert.Equal(t, 3, unpinned(rows))
	assert.Len(t, rows, 4)
	assert.True(t, slices.ContainsFunc(rows, func(r Token) bool { return r.Value == "pinned" }))
	assert.True(t, slices.ContainsFunc(rows, func(r Token) bool { return r.Value == last.Token }))
	assert.Len(t, store.tokens(2), 1)
}

func TestIssue_SameInstantTiesBrokenByInsertion(t *testing.T) {
	store := &memStore{}
	m := newTestManager(store, Options{})

	var issued []string
	for range 5 {
		got, err := m.Issue(context.Background(), 1, DefaultTTL())
		require.NoError(t, err)
		issued = append(issued, got.Token)
	}

	var left []string
	for _, r := range store.tokens(1) {
		left = append(left, r.Value)
	}
	assert.ElementsMatch(t, issued[2:], left)
}

func TestIssue_MintedTokenSurvivesClockSkew(t *testing.T) {
	store := &memStore{}
	m := newTestManager(store, Options{})

	// three tokens that look newer than anything the manager will mint
	for i := range 3 {
		store.rows = append(store.rows, Token{ID: int64(1000 + i), UserID: 1, Value: string(rune('a' + i)), CreatedAt: t0.Add(time.Hour)})
	}

	got, err := m.Issue(context.Background(), 1, DefaultTTL())
	require.NoError(t, err)

	rows := store.tokens(1)
	assert.Len(t, rows, 3)
	assert.True(t, slices.ContainsFunc(rows, func(r Token) bool { return r.Value == got.Token }))
}

func TestIssue_ConcurrentConverges(t *testing.T) {
	store := &memStore{}
	m := New(store, Options{IDs: &seqIDs{}})
	store.rows = append(store.rows, Token{ID: -1, UserID: 9, Value: "pinned", Keep: true})

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Issue(context.Background(), 9, DefaultTTL())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	rows := store.tokens(9)
	assert.LessOrEqual(t, unpinned(rows), 3)
	assert.True(t, slices.ContainsFunc(rows, func(r Token) bool { return r.Value == "pinned" }))
}

func TestIssue_RetriesDuplicate(t *testing.T) {
	store := &memStore{rows: []Token{{ID: 100, UserID: 5, Value: "taken"}}}
	values := &scriptedValues{values: []string{"taken", "taken", "fresh"}}
	m := newTestManager(store, Options{Values: values})

	got, err := m.Issue(context.Background(), 1, DefaultTTL())
	require.NoError(t, err)
	assert.Equal(t, "fresh", got.Token)
	assert.Len(t, store.tokens(5), 1)
}

func TestIssue_RetriesIDCollision(t *testing.T) {
	store := &memStore{rows: []Token{{ID: 1, UserID: 5, Value: "other"}}}
	m := newTestManager(store, Options{})

	got, err := m.Issue(context.Background(), 1, DefaultTTL())
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.ID)
	assert.Len(t, store.tokens(1), 1)
}

func TestIssue_GivesUpAfterMaxAttempts(t *testing.T) {
	store := &memStore{rows: []Token{{ID: 100, UserID: 5, Value: "taken"}}}
	values := &scriptedValues{values: []string{"taken", "taken", "taken", "fresh"}}
	m := newTestManager(store, Options{Values: values, MaxAttempts: 2})

	_, err := m.Issue(context.Background(), 1, DefaultTTL())
	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.Empty(t, store.tokens(1))
}

func TestIssue_StorageFailures(t *testing.T) {
	boom := errors.New("connection refused")
	for _, op := range []string{"insert", "recent", "delete_stale"} {
		t.Run(op, func(t *testing.T) {
			m := newTestManager(&memStore{failOn: op, err: boom}, Options{})
			_, err := m.Issue(context.Background(), 1, DefaultTTL())
			assert.ErrorIs(t, err, ErrStorage)
			assert.ErrorIs(t, err, boom)
		})
	}
}

func TestRevoke(t *testing.T) {
	store := &memStore{}
	m := newTestManager(store, Options{})

	got, err := m.Issue(context.Background(), 1, DefaultTTL())
	require.NoError(t, err)

	require.NoError(t, m.Revoke(context.Background(), got.Token))
	assert.Empty(t, store.tokens(1))

	require.NoError(t, m.Revoke(context.Background(), got.Token))
	require.NoError(t, m.Revoke(context.Background(), "never-issued"))
	require.NoError(t, m.Revoke(context.Background(), ""))
}

func TestRevoke_UnknownLeavesStoreAlone(t *testing.T) {
	store := &memStore{rows: []Token{{ID: 1, UserID: 1, Value: "keep-me"}}}
	m := newTestManager(store, Options{})

	require.NoError(t, m.Revoke(context.Background(), "unknown"))
	assert.Len(t, store.tokens(1), 1)
}

func TestRevoke_StorageFailure(t *testing.T) {
	boom := errors.New("timeout")
	m := newTestManager(&memStore{failOn: "delete", err: boom}, Options{})
	err := m.Revoke(context.Background(), "abc")
	assert.ErrorIs(t, err, ErrStorage)
}

func TestResolve(t *testing.T) {
	past := t0.Add(-time.Second)
	future := t0.Add(time.Hour)
	store := &memStore{rows: []Token{
		{ID: 1, UserID: 11, Value: "expired", ExpiresAt: &past},
		{ID: 2, UserID: 12, Value: "forever", Keep: true},
		{ID: 3, UserID: 13, Value: "future", ExpiresAt: &future},
		{ID: 4, UserID: 14, Value: "edge", ExpiresAt: &t0},
	}}
	m := newTestManager(store, Options{})

	tests := []struct {
		token  string
		at     time.Time
		wantID int64
		wantOK bool
	}{
		{"expired", t0, 0, false},
		{"forever", t0.AddDate(100, 0, 0), 12, true},
		{"future", t0, 13, true},
		{"future", future, 0, false},
		{"edge", t0, 0, false},
		{"missing", t0, 0, false},
		{"", t0, 0, false},
	}
	for _, tt := range tests {
		id, ok, err := m.Resolve(context.Background(), tt.token, tt.at)
		require.NoError(t, err)
		assert.Equal(t, tt.wantOK, ok, tt.token)
		assert.Equal(t, tt.wantID, id, tt.token)
	}
}

func TestResolve_StorageFailure(t *testing.T) {
	boom := errors.New("down")
	m := newTestManager(&memStore{failOn: "find", err: boom}, Options{})
	_, ok, err := m.Resolve(context.Background(), "abc", t0)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, boom)
}
