package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hipaa-compliance/internal/models"
	"hipaa-compliance/internal/reqcache"
)

func TestCached_OneQueryPerRequest(t *testing.T) {
	s, mock := newMockStore(t)
	c := NewCached(s)
	ctx, _ := reqcache.WithScope(context.Background())

	mock.ExpectQuery(q(`SELECT * FROM "organizations" WHERE owner_id = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "name"}).AddRow(3, 7, "Sunrise Dental"))

	for i := 0; i < 3; i++ {
		org, err := c.OrganizationByOwner(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, uint(3), org.ID)
	}
}

func TestCached_NoScopeHitsStoreEveryTime(t *testing.T) {
	s, mock := newMockStore(t)
	c := NewCached(s)

	for i := 0; i < 2; i++ {
		mock.ExpectQuery(q(`SELECT * FROM "risk_assessments"`)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id"}).AddRow(11, 3))
	}
	for i := 0; i < 2; i++ {
		_, err := c.Assessment(context.Background(), 3)
		require.NoError(t, err)
	}
}

func TestCached_WritesInvalidate(t *testing.T) {
	s, mock := newMockStore(t)
	c := NewCached(s)
	ctx, scope := reqcache.WithScope(context.Background())

	mock.ExpectQuery(q(`SELECT * FROM "risk_assessments"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id", "risk_level"}).AddRow(11, 3, "low"))
	a, err := c.Assessment(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, scope.Len())

	mock.ExpectExec(q(`UPDATE "risk_assessments" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	a.RiskLevel = "high"
	require.NoError(t, c.SaveAssessment(ctx, a))
	assert.Equal(t, 0, scope.Len())

	mock.ExpectQuery(q(`SELECT * FROM "risk_assessments"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id", "risk_level"}).AddRow(11, 3, "high"))
	a, err = c.Assessment(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "high", a.RiskLevel)
}

func TestCached_NotFoundIsNotCached(t *testing.T) {
	s, mock := newMockStore(t)
	c := NewCached(s)
	ctx, _ := reqcache.WithScope(context.Background())

	mock.ExpectQuery(q(`SELECT * FROM "organizations"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	_, err := c.OrganizationByOwner(ctx, 7)
	require.ErrorIs(t, err, ErrNotFound)

	mock.ExpectQuery(q(`INSERT INTO "organizations"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	require.NoError(t, c.CreateOrganization(ctx, &models.Organization{OwnerID: 7, Name: "Sunrise"}))

	mock.ExpectQuery(q(`SELECT * FROM "organizations"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id"}).AddRow(3, 7))
	org, err := c.OrganizationByOwner(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, uint(3), org.ID)
}
