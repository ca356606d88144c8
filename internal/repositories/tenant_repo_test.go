package repositories

import (
	"context"
	"testing"
	"time"

	"textport/internal/models"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

var tenantColumns = []string{"id", "name", "subdomain", "zip_code", "status", "created_at", "updated_at"}

type TenantRepoTestSuite struct {
	suite.Suite
	mock pgxmock.PgxPoolIface
	repo TenantRepository
	ctx  context.Context
}

func (suite *TenantRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock
	suite.repo = NewTenantRepo(mock)
	suite.ctx = context.Background()
}

func (suite *TenantRepoTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestTenantRepoTestSuite(t *testing.T) {
	suite.Run(t, new(TenantRepoTestSuite))
}

func (suite *TenantRepoTestSuite) TestCreate() {
	tenant := &models.Tenant{
		ID:        uuid.New(),
		Name:      "Peachtree Dental",
		Subdomain: "peachtree-dental",
		ZipCode:   "30309",
		Status:    models.TenantStatusActive,
	}

	suite.mock.ExpectExec(`INSERT INTO tenants`).
		WithArgs(tenant.ID, tenant.Name, tenant.Subdomain, tenant.ZipCode, tenant.Status).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	assert.NoError(suite.T(), suite.repo.Create(suite.ctx, tenant))
}

func (suite *TenantRepoTestSuite) TestGetByID() {
	id := uuid.New()
	now := time.Now()

	rows := pgxmock.NewRows(tenantColumns).
		AddRow(id, "Peachtree Dental", "peachtree-dental", "30309", models.TenantStatusActive, now, now)
	suite.mock.ExpectQuery(`WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(rows)

	tenant, err := suite.repo.GetByID(suite.ctx, id)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "peachtree-dental", tenant.Subdomain)
	assert.Equal(suite.T(), models.TenantStatusActive, tenant.Status)
}

func (suite *TenantRepoTestSuite) TestGetByID_NotFound() {
	id := uuid.New()

	suite.mock.ExpectQuery(`WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(tenantColumns))

	_, err := suite.repo.GetByID(suite.ctx, id)
	assert.ErrorIs(suite.T(), err, ErrTenantNotFound)
}

func (suite *TenantRepoTestSuite) TestGetBySubdomain() {
	id := uuid.New()
	now := time.Now()

	rows := pgxmock.NewRows(tenantColumns).
		AddRow(id, "Music Row Salon", "music-row", "37201", models.TenantStatusActive, now, now)
	suite.mock.ExpectQuery(`WHERE subdomain = \$1`).
		WithArgs("music-row").
		WillReturnRows(rows)

	tenant, err := suite.repo.GetBySubdomain(suite.ctx, "music-row")
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), id, tenant.ID)
	assert.Equal(suite.T(), "37201", tenant.ZipCode)
}

func (suite *TenantRepoTestSuite) TestDeactivate() {
	id := uuid.New()

	suite.mock.ExpectExec(`UPDATE tenants`).
		WithArgs(models.TenantStatusDeactivated, id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	assert.NoError(suite.T(), suite.repo.Deactivate(suite.ctx, id))
}

func (suite *TenantRepoTestSuite) TestDeactivate_NotFound() {
	id := uuid.New()

	suite.mock.ExpectExec(`UPDATE tenants`).
		WithArgs(models.TenantStatusDeactivated, id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	assert.ErrorIs(suite.T(), suite.repo.Deactivate(suite.ctx, id), ErrTenantNotFound)
}

func (suite *TenantRepoTestSuite) TestList() {
	now := time.Now()

	rows := pgxmock.NewRows(tenantColumns).
		AddRow(uuid.New(), "Peachtree Dental", "peachtree-dental", "30309", models.TenantStatusActive, now, now).
		AddRow(uuid.New(), "Music Row Salon", "music-row", "37201", models.TenantStatusDeactivated, now, now)
	suite.mock.ExpectQuery(`ORDER BY created_at DESC`).
		WithArgs(20, 0).
		WillReturnRows(rows)

	tenants, err := suite.repo.List(suite.ctx, 20, 0)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), tenants, 2)
	assert.Equal(suite.T(), models.TenantStatusDeactivated, tenants[1].Status)
}
