package migration

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Validation(t *testing.T) {
	assert.ErrorIs(t, Run("", DirectionUp), ErrEmptyDSN)

	for _, dir := range []string{"", "UP", "sideways"} {
		assert.ErrorIs(t, Run("postgres://localhost/otpkeeper", dir), ErrInvalidDirection, dir)
	}
}

func TestDriverURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@db:5432/otp?sslmode=disable", driverURL("postgres://u:p@db:5432/otp?sslmode=disable"))
	assert.Equal(t, "pgx5://db/otp", driverURL("postgresql://db/otp"))
	assert.Equal(t, "pgx5://db/otp", driverURL("pgx5://db/otp"))
}

func TestFiles_Paired(t *testing.T) {
	entries, err := fs.ReadDir(Files(), ".")
	require.NoError(t, err)

	ups, downs := map[string]bool{}, map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		}
	}

	require.Len(t, ups, 4)
	assert.Equal(t, ups, downs)
}
