package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"textport/internal/models"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

var numberColumns = []string{
	"id", "phone_number", "area_code", "status", "current_tenant_id", "previous_tenant_id",
	"carrier_number_id", "cooldown_until", "assigned_at", "released_at", "purchased_at",
	"monthly_price", "source", "created_at",
}

func uuidPtr(id uuid.UUID) *uuid.UUID { return &id }
func timePtr(t time.Time) *time.Time  { return &t }
func strPtr(s string) *string         { return &s }
func floatPtr(f float64) *float64     { return &f }

type PhoneNumberRepoTestSuite struct {
	suite.Suite
	mock     pgxmock.PgxPoolIface
	repo     PhoneNumberRepository
	tenantID uuid.UUID
	numberID uuid.UUID
	ctx      context.Context
}

func (suite *PhoneNumberRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewPhoneNumberRepo(mock)
	suite.tenantID = uuid.New()
	suite.numberID = uuid.New()
	suite.ctx = context.Background()
}

func (suite *PhoneNumberRepoTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestPhoneNumberRepoTestSuite(t *testing.T) {
	suite.Run(t, new(PhoneNumberRepoTestSuite))
}

func (suite *PhoneNumberRepoTestSuite) availableRow() *pgxmock.Rows {
	return pgxmock.NewRows(numberColumns).
		AddRow(suite.numberID, "+14045550000", "404", models.NumberStatusAvailable,
			(*uuid.UUID)(nil), (*uuid.UUID)(nil), strPtr("CN-123"), (*time.Time)(nil),
			(*time.Time)(nil), (*time.Time)(nil), timePtr(time.Now().Add(-24*time.Hour)),
			floatPtr(1.5), models.NumberSourceManual, time.Now().Add(-24*time.Hour))
}

func (suite *PhoneNumberRepoTestSuite) TestFindAvailable_Success() {
	suite.mock.ExpectQuery(`WHERE area_code = \$1 AND status = 'available'`).
		WithArgs("404").
		WillReturnRows(suite.availableRow())

	number, err := suite.repo.FindAvailable(suite.ctx, "404")
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "+14045550000", number.PhoneNumber)
	assert.Equal(suite.T(), models.NumberStatusAvailable, number.Status)
	assert.Nil(suite.T(), number.CurrentTenantID)
}

func (suite *PhoneNumberRepoTestSuite) TestFindAvailable_Empty() {
	suite.mock.ExpectQuery(`WHERE area_code = \$1 AND status = 'available'`).
		WithArgs("404").
		WillReturnRows(pgxmock.NewRows(numberColumns))

	number, err := suite.repo.FindAvailable(suite.ctx, "404")
	assert.ErrorIs(suite.T(), err, ErrNumberNotFound)
	assert.Nil(suite.T(), number)
}

func (suite *PhoneNumberRepoTestSuite) TestReactivateExpiredCooldown_Success() {
	released := time.Now().Add(-31 * 24 * time.Hour)
	rows := pgxmock.NewRows(numberColumns).
		AddRow(suite.numberID, "+14045550002", "404", models.NumberStatusAvailable,
			(*uuid.UUID)(nil), uuidPtr(suite.tenantID), strPtr("CN-456"), (*time.Time)(nil),
			(*time.Time)(nil), timePtr(released), timePtr(released.Add(-90*24*time.Hour)),
			(*float64)(nil), models.NumberSourceVendorSync, released.Add(-90*24*time.Hour))

	suite.mock.ExpectQuery(`SET status = 'available', cooldown_until = NULL`).
		WithArgs("404", pgxmock.AnyArg()).
		WillReturnRows(rows)

	number, err := suite.repo.ReactivateExpiredCooldown(suite.ctx, "404", time.Now())
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.NumberStatusAvailable, number.Status)
	assert.Nil(suite.T(), number.CooldownUntil)
	// Provenance survives reactivation; it is cleared on the next assign.
	assert.Equal(suite.T(), suite.tenantID, *number.PreviousTenantID)
}

func (suite *PhoneNumberRepoTestSuite) TestReactivateExpiredCooldown_NoneExpired() {
	suite.mock.ExpectQuery(`SET status = 'available', cooldown_until = NULL`).
		WithArgs("404", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(numberColumns))

	_, err := suite.repo.ReactivateExpiredCooldown(suite.ctx, "404", time.Now())
	assert.ErrorIs(suite.T(), err, ErrNumberNotFound)
}

func (suite *PhoneNumberRepoTestSuite) TestAssign_Success() {
	now := time.Now()
	rows := pgxmock.NewRows(numberColumns).
		AddRow(suite.numberID, "+14045550000", "404", models.NumberStatusAssigned,
			uuidPtr(suite.tenantID), (*uuid.UUID)(nil), strPtr("CN-123"), (*time.Time)(nil),
			timePtr(now), (*time.Time)(nil), timePtr(now.Add(-24*time.Hour)),
			floatPtr(1.5), models.NumberSourceManual, now.Add(-24*time.Hour))

	suite.mock.ExpectQuery(`WHERE id = \$1 AND status = 'available'`).
		WithArgs(suite.numberID, suite.tenantID).
		WillReturnRows(rows)

	number, err := suite.repo.Assign(suite.ctx, suite.numberID, suite.tenantID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.NumberStatusAssigned, number.Status)
	assert.Equal(suite.T(), suite.tenantID, *number.CurrentTenantID)
	assert.Nil(suite.T(), number.CooldownUntil)
}

func (suite *PhoneNumberRepoTestSuite) TestAssign_LostRace() {
	// The conditional update matches nothing when another caller already
	// flipped the status.
	suite.mock.ExpectQuery(`WHERE id = \$1 AND status = 'available'`).
		WithArgs(suite.numberID, suite.tenantID).
		WillReturnRows(pgxmock.NewRows(numberColumns))

	number, err := suite.repo.Assign(suite.ctx, suite.numberID, suite.tenantID)
	assert.ErrorIs(suite.T(), err, ErrAlreadyAssigned)
	assert.Nil(suite.T(), number)
}

func (suite *PhoneNumberRepoTestSuite) TestRelease_Success() {
	now := time.Now()
	cooldownUntil := now.Add(30 * 24 * time.Hour)
	rows := pgxmock.NewRows(numberColumns).
		AddRow(suite.numberID, "+14045550001", "404", models.NumberStatusCooldown,
			(*uuid.UUID)(nil), uuidPtr(suite.tenantID), strPtr("CN-123"), timePtr(cooldownUntil),
			timePtr(now.Add(-60*24*time.Hour)), timePtr(now), timePtr(now.Add(-90*24*time.Hour)),
			(*float64)(nil), models.NumberSourceManual, now.Add(-90*24*time.Hour))

	suite.mock.ExpectQuery(`SET status = 'cooldown'`).
		WithArgs("+14045550001", 30*24*time.Hour).
		WillReturnRows(rows)

	number, err := suite.repo.Release(suite.ctx, "+14045550001", 30*24*time.Hour)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.NumberStatusCooldown, number.Status)
	assert.Nil(suite.T(), number.CurrentTenantID)
	assert.Equal(suite.T(), suite.tenantID, *number.PreviousTenantID)
	assert.WithinDuration(suite.T(), cooldownUntil, *number.CooldownUntil, time.Second)
}

func (suite *PhoneNumberRepoTestSuite) TestRelease_UnknownNumber() {
	suite.mock.ExpectQuery(`SET status = 'cooldown'`).
		WithArgs("+19995550000", 30*24*time.Hour).
		WillReturnRows(pgxmock.NewRows(numberColumns))
	suite.mock.ExpectQuery(`WHERE phone_number = \$1`).
		WithArgs("+19995550000").
		WillReturnRows(pgxmock.NewRows(numberColumns))

	_, err := suite.repo.Release(suite.ctx, "+19995550000", 30*24*time.Hour)
	assert.ErrorIs(suite.T(), err, ErrNumberNotFound)
}

func (suite *PhoneNumberRepoTestSuite) TestRelease_NotAssigned() {
	suite.mock.ExpectQuery(`SET status = 'cooldown'`).
		WithArgs("+14045550000", 30*24*time.Hour).
		WillReturnRows(pgxmock.NewRows(numberColumns))
	suite.mock.ExpectQuery(`WHERE phone_number = \$1`).
		WithArgs("+14045550000").
		WillReturnRows(suite.availableRow())

	_, err := suite.repo.Release(suite.ctx, "+14045550000", 30*24*time.Hour)
	assert.ErrorIs(suite.T(), err, ErrNotAssigned)
}

func (suite *PhoneNumberRepoTestSuite) TestUpsert_NewNumber() {
	record := &models.PhoneNumber{
		ID:          suite.numberID,
		PhoneNumber: "+14045550003",
		AreaCode:    "404",
		Source:      models.NumberSourceManual,
	}
	now := time.Now()
	rows := pgxmock.NewRows(append(numberColumns, "inserted")).
		AddRow(suite.numberID, "+14045550003", "404", models.NumberStatusAvailable,
			(*uuid.UUID)(nil), (*uuid.UUID)(nil), (*string)(nil), (*time.Time)(nil),
			(*time.Time)(nil), (*time.Time)(nil), timePtr(now),
			(*float64)(nil), models.NumberSourceManual, now, true)

	suite.mock.ExpectQuery(`ON CONFLICT \(phone_number\) DO UPDATE`).
		WithArgs(record.ID, record.PhoneNumber, record.AreaCode, record.CarrierNumberID, record.MonthlyPrice, record.Source).
		WillReturnRows(rows)

	number, created, err := suite.repo.Upsert(suite.ctx, record)
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), created)
	assert.Equal(suite.T(), models.NumberStatusAvailable, number.Status)
}

func (suite *PhoneNumberRepoTestSuite) TestUpsert_ExistingAssignedKeepsStatus() {
	record := &models.PhoneNumber{
		ID:              uuid.New(),
		PhoneNumber:     "+14045550000",
		AreaCode:        "404",
		CarrierNumberID: strPtr("CN-999"),
		Source:          models.NumberSourceVendorSync,
	}
	now := time.Now()
	// The conflict branch only refreshes carrier metadata; the assigned
	// record keeps its status and tenant binding.
	rows := pgxmock.NewRows(append(numberColumns, "inserted")).
		AddRow(suite.numberID, "+14045550000", "404", models.NumberStatusAssigned,
			uuidPtr(suite.tenantID), (*uuid.UUID)(nil), strPtr("CN-999"), (*time.Time)(nil),
			timePtr(now.Add(-time.Hour)), (*time.Time)(nil), timePtr(now.Add(-24*time.Hour)),
			(*float64)(nil), models.NumberSourceManual, now.Add(-24*time.Hour), false)

	suite.mock.ExpectQuery(`ON CONFLICT \(phone_number\) DO UPDATE`).
		WithArgs(record.ID, record.PhoneNumber, record.AreaCode, record.CarrierNumberID, record.MonthlyPrice, record.Source).
		WillReturnRows(rows)

	number, created, err := suite.repo.Upsert(suite.ctx, record)
	assert.NoError(suite.T(), err)
	assert.False(suite.T(), created)
	assert.Equal(suite.T(), models.NumberStatusAssigned, number.Status)
	assert.Equal(suite.T(), suite.tenantID, *number.CurrentTenantID)
}

func (suite *PhoneNumberRepoTestSuite) TestSetCarrierNumberID_NotFound() {
	suite.mock.ExpectQuery(`SET carrier_number_id = \$2`).
		WithArgs("+19995550000", strPtr("CN-1")).
		WillReturnRows(pgxmock.NewRows(numberColumns))

	_, err := suite.repo.SetCarrierNumberID(suite.ctx, "+19995550000", strPtr("CN-1"))
	assert.ErrorIs(suite.T(), err, ErrNumberNotFound)
}

func (suite *PhoneNumberRepoTestSuite) TestGetByCurrentTenant_NotFound() {
	suite.mock.ExpectQuery(`WHERE current_tenant_id = \$1`).
		WithArgs(suite.tenantID).
		WillReturnRows(pgxmock.NewRows(numberColumns))

	_, err := suite.repo.GetByCurrentTenant(suite.ctx, suite.tenantID)
	assert.ErrorIs(suite.T(), err, ErrNumberNotFound)
}

func (suite *PhoneNumberRepoTestSuite) TestStats_AggregatesAcrossAreaCodes() {
	rows := pgxmock.NewRows([]string{"area_code", "total", "available", "assigned", "cooldown", "reserved"}).
		AddRow("404", 10, 4, 5, 1, 0).
		AddRow("615", 6, 1, 3, 1, 1)

	suite.mock.ExpectQuery(`GROUP BY area_code`).
		WillReturnRows(rows)

	snapshot, err := suite.repo.Stats(suite.ctx)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 16, snapshot.Total)
	assert.Equal(suite.T(), 5, snapshot.Available)
	assert.Equal(suite.T(), 8, snapshot.Assigned)
	assert.Equal(suite.T(), 2, snapshot.Cooldown)
	assert.Equal(suite.T(), 1, snapshot.Reserved)
	assert.Len(suite.T(), snapshot.ByAreaCode, 2)
	assert.Equal(suite.T(), "404", snapshot.ByAreaCode[0].AreaCode)
}

func (suite *PhoneNumberRepoTestSuite) TestSearch_BuildsFilterArgs() {
	prevTenant := suite.tenantID
	filter := &models.NumberSearchFilter{
		AreaCode:         "404",
		Status:           models.NumberStatusCooldown,
		PreviousTenantID: &prevTenant,
		Query:            "5550",
		Limit:            10,
		Offset:           20,
	}

	suite.mock.ExpectQuery(`FROM phone_numbers`).
		WithArgs("404", models.NumberStatusCooldown, prevTenant, "%5550%", 10, 20).
		WillReturnRows(suite.availableRow())

	numbers, err := suite.repo.Search(suite.ctx, filter)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), numbers, 1)
}

func (suite *PhoneNumberRepoTestSuite) TestSearch_QueryError() {
	suite.mock.ExpectQuery(`FROM phone_numbers`).
		WithArgs(50).
		WillReturnError(errors.New("connection refused"))

	_, err := suite.repo.Search(suite.ctx, &models.NumberSearchFilter{})
	assert.Error(suite.T(), err)
}
