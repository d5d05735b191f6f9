package repository_test

import (
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/rentalhub/pricing-api/internal/testutil"
)

func newTestDB(t *testing.T) *sqlx.DB {
	return testutil.NewTestDB(t)
}
