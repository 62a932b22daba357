package appointment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/agendly/agenda-api/internal/access"
	"github.com/agendly/agenda-api/internal/model"
	svc "github.com/agendly/agenda-api/internal/service/appointment"
)

type fakeService struct {
	listCalled    bool
	listFilters   *model.AppointmentFilters
	listEstCalled bool
	listEstActor  uuid.UUID
	listEstID     uuid.UUID
	listEstErr    error
}

func (f *fakeService) CreateAppointment(_ context.Context, _ uuid.UUID, _ *model.CreateAppointmentRequest) (*model.Appointment, error) {
	return nil, nil
}

func (f *fakeService) GetAppointment(_ context.Context, _, _ uuid.UUID) (*model.Appointment, error) {
	return nil, svc.ErrNotFound
}

func (f *fakeService) CancelAppointment(_ context.Context, _, _ uuid.UUID, _ string) error {
	return nil
}

func (f *fakeService) UpdateAppointment(_ context.Context, _, _ uuid.UUID, _ *model.UpdateAppointmentRequest) (*model.Appointment, error) {
	return nil, nil
}

func (f *fakeService) ListAppointments(_ context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	f.listCalled = true
	f.listFilters = filters
	return nil, nil
}

func (f *fakeService) ListEstablishmentAppointments(_ context.Context, actorID, establishmentID uuid.UUID, _ *model.AppointmentFilters) ([]*model.Appointment, error) {
	f.listEstCalled = true
	f.listEstActor = actorID
	f.listEstID = establishmentID
	return nil, f.listEstErr
}

func newListRouter(fake *fakeService, sess *access.Session) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("session", sess)
	})
	NewHandler(fake).RegisterRoutes(&r.RouterGroup)
	return r
}

func sessionFor(role model.Role) *access.Session {
	return &access.Session{AccountID: uuid.New(), Role: role}
}

func TestListAppointmentsEstablishmentRoleRequiresEstablishmentID(t *testing.T) {
	fake := &fakeService{}
	r := newListRouter(fake, sessionFor(model.RoleEstablishment))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/appointments", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, fake.listCalled)
	assert.False(t, fake.listEstCalled)
}

func TestListAppointmentsEstablishmentRoleScopedToOwnedEstablishment(t *testing.T) {
	fake := &fakeService{listEstErr: svc.ErrForbidden}
	sess := sessionFor(model.RoleEstablishment)
	r := newListRouter(fake, sess)
	otherEst := uuid.New()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/appointments?establishment_id="+otherEst.String(), nil))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.True(t, fake.listEstCalled)
	assert.Equal(t, sess.AccountID, fake.listEstActor)
	assert.Equal(t, otherEst, fake.listEstID)
	assert.False(t, fake.listCalled)
}

func TestListAppointmentsClientAlwaysSelfScoped(t *testing.T) {
	fake := &fakeService{}
	sess := sessionFor(model.RoleClient)
	r := newListRouter(fake, sess)

	w := httptest.NewRecorder()
	// A client naming another establishment still only sees its own bookings.
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/appointments?establishment_id="+uuid.NewString(), nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, fake.listCalled)
	assert.Equal(t, sess.AccountID, fake.listFilters.ClientID)
	assert.Equal(t, uuid.Nil, fake.listFilters.EstablishmentID)
}

func TestListAppointmentsAdministratorMayQueryGlobally(t *testing.T) {
	fake := &fakeService{}
	r := newListRouter(fake, sessionFor(model.RoleAdministrator))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/appointments", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, fake.listCalled)
	assert.Equal(t, uuid.Nil, fake.listFilters.EstablishmentID)
	assert.Equal(t, uuid.Nil, fake.listFilters.ClientID)
}
