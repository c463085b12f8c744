package serviceRequestController

import (
	"context"
	"fmt"
	"testing"

	"opsflow/config"
	"opsflow/internal/database"
	. "opsflow/internal/models"
	"opsflow/internal/repositories"
	"opsflow/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func newController(t *testing.T) (ServiceRequestControllerInterface, *Profile) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))

	dbWrapper := database.DB{SQL: db}
	repos := repositories.New(dbWrapper)
	svc := services.Service{Transaction: services.NewTransactionService(dbWrapper)}

	client := &Profile{BaseUUIDModel: BaseUUIDModel{ID: uuid.New()}, FullName: "Camille Client"}
	require.NoError(t, repos.Profile.Create(context.Background(), db, client))

	return New(repos, svc, config.Config{}, dbWrapper), client
}

func TestServiceRequestController_CreateValidates(t *testing.T) {
	controller, client := newController(t)
	ctx := context.Background()

	_, err := controller.Create(ctx, client, &CreateServiceRequestRequest{ServiceType: "maintenance"})
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)

	_, err = controller.Create(ctx, client, &CreateServiceRequestRequest{
		Title:       "Leak",
		ServiceType: "repair",
		Priority:    "whenever",
	})
	assert.ErrorAs(t, err, &verrs)

	request, err := controller.Create(ctx, client, &CreateServiceRequestRequest{
		Title:       "Leak",
		ServiceType: "repair",
	})
	require.NoError(t, err)
	assert.Equal(t, ServiceRequestStatusPending, request.Status)
	assert.Equal(t, PriorityNormal, request.Priority)
	assert.Equal(t, client.ID, request.ClientID)
}

func TestServiceRequestController_UpdateStatusFollowsTransitions(t *testing.T) {
	controller, client := newController(t)
	ctx := context.Background()

	request, err := controller.Create(ctx, client, &CreateServiceRequestRequest{Title: "Leak", ServiceType: "repair"})
	require.NoError(t, err)

	_, err = controller.UpdateStatus(ctx, request.ID, &UpdateStatusRequest{Status: ServiceRequestStatusCompleted})
	assert.ErrorIs(t, err, services.ErrInvalidTransition)

	updated, err := controller.UpdateStatus(ctx, request.ID, &UpdateStatusRequest{Status: ServiceRequestStatusInProgress})
	require.NoError(t, err)
	assert.Equal(t, ServiceRequestStatusInProgress, updated.Status)

	updated, err = controller.UpdateStatus(ctx, request.ID, &UpdateStatusRequest{Status: ServiceRequestStatusCompleted})
	require.NoError(t, err)
	assert.Equal(t, ServiceRequestStatusCompleted, updated.Status)
	assert.NotNil(t, updated.CompletedDate)

	_, err = controller.UpdateStatus(ctx, request.ID, &UpdateStatusRequest{Status: ServiceRequestStatusCancelled})
	assert.ErrorIs(t, err, services.ErrInvalidTransition)

	_, err = controller.UpdateStatus(ctx, uuid.New(), &UpdateStatusRequest{Status: ServiceRequestStatusInProgress})
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestServiceRequestController_GetChecksOwnership(t *testing.T) {
	controller, client := newController(t)
	ctx := context.Background()

	request, err := controller.Create(ctx, client, &CreateServiceRequestRequest{Title: "Leak", ServiceType: "repair"})
	require.NoError(t, err)

	got, err := controller.Get(ctx, client, request.ID)
	require.NoError(t, err)
	assert.Equal(t, request.ID, got.ID)

	stranger := &Profile{BaseUUIDModel: BaseUUIDModel{ID: uuid.New()}, Role: RoleClient}
	_, err = controller.Get(ctx, stranger, request.ID)
	assert.ErrorIs(t, err, services.ErrForbidden)

	admin := &Profile{BaseUUIDModel: BaseUUIDModel{ID: uuid.New()}, Role: RoleAdmin}
	_, err = controller.Get(ctx, admin, request.ID)
	assert.NoError(t, err)
}
