package db

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/otpkeeper/internal/identity/entity"
	"github.com/shandysiswandi/otpkeeper/internal/migration"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/authtoken"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/clock"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/hash"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/instrument"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/uid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

func newPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("needs docker")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("otpkeeper"),
		tcpostgres.WithUsername("otpkeeper"),
		tcpostgres.WithPassword("otpkeeper"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, migration.Run(dsn, migration.DirectionUp))

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestTokenStore_Lifecycle(t *testing.T) {
	pool := newPool(t)
	ctx := context.Background()
	ins := instrument.NewNoop()

	snow, err := uid.NewSnowflake()
	require.NoError(t, err)

	users := NewDB(pool, ins)
	userID := snow.Generate()
	require.NoError(t, users.CreateUser(ctx, entity.NewUser{
		ID: userID, Name: "Ann", Email: "ann@example.com", Password: "x", Role: entity.RoleMember,
	}))

	store := NewTokenStore(pool, hash.NewHMACSHA256("pepper"), ins)

	pinnedExp := time.Date(2099, 12, 31, 23, 59, 59, 0, time.UTC)
	require.NoError(t, store.Insert(ctx, authtoken.Token{
		ID: snow.Generate(), UserID: userID, Value: "pinned", Keep: true,
		CreatedAt: time.Now().Add(-time.Hour), ExpiresAt: &pinnedExp,
	}))

	err = store.Insert(ctx, authtoken.Token{ID: snow.Generate(), UserID: userID, Value: "pinned", CreatedAt: time.Now()})
	assert.ErrorIs(t, err, authtoken.ErrDuplicate)

	mgr := authtoken.New(store, authtoken.Options{Clock: clock.New(), IDs: snow})

	var issued []authtoken.Issued
	for range 5 {
		iss, err := mgr.Issue(ctx, userID, authtoken.DefaultTTL())
		require.NoError(t, err)
		issued = append(issued, iss)
	}

	var count int
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM auth_tokens WHERE user_id = $1`, userID).Scan(&count))
	assert.Equal(t, 4, count, "three most recent plus the pinned one")

	for i, iss := range issued {
		got, ok, err := mgr.Resolve(ctx, iss.Token, time.Now())
		require.NoError(t, err)
		if i < 2 {
			assert.False(t, ok, "token %d should be pruned", i)
			continue
		}
		assert.True(t, ok)
		assert.Equal(t, userID, got)
	}

	_, ok, err := mgr.Resolve(ctx, "pinned", time.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	var stored string
	require.NoError(t, pool.QueryRow(ctx, `SELECT token_hash FROM auth_tokens WHERE id = $1`, issued[4].ID).Scan(&stored))
	assert.NotEqual(t, issued[4].Token, stored)

	require.NoError(t, mgr.Revoke(ctx, issued[4].Token))
	require.NoError(t, mgr.Revoke(ctx, issued[4].Token))
	_, err = store.Find(ctx, issued[4].Token)
	assert.ErrorIs(t, err, authtoken.ErrNotFound)

	n, err := users.DeleteUserByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM auth_tokens WHERE user_id = $1`, userID).Scan(&count))
	assert.Zero(t, count)
}
