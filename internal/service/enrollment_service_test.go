package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/axis-edu/axis-api/internal/models"
	appErrors "github.com/axis-edu/axis-api/pkg/errors"
)

type mockEnrollmentWriter struct {
	active      map[int64]*models.Enrollment // keyed by sectionID
	created     []*models.Enrollment
	disenrolled []int64
	nextID      int64
}

func (m *mockEnrollmentWriter) ListActiveByStudent(ctx context.Context, studentID int64) ([]models.Enrollment, error) {
	return nil, nil
}

func (m *mockEnrollmentWriter) FindActive(ctx context.Context, studentID, sectionID int64) (*models.Enrollment, error) {
	if m.active == nil {
		return nil, nil
	}
	return m.active[sectionID], nil
}

func (m *mockEnrollmentWriter) Create(ctx context.Context, enrollment *models.Enrollment) error {
	m.nextID++
	enrollment.ID = m.nextID
	m.created = append(m.created, enrollment)
	if m.active == nil {
		m.active = make(map[int64]*models.Enrollment)
	}
	m.active[enrollment.SectionID] = enrollment
	return nil
}

func (m *mockEnrollmentWriter) Disenroll(ctx context.Context, id int64, at time.Time) error {
	m.disenrolled = append(m.disenrolled, id)
	return nil
}

type mockCodeResolver struct {
	sections map[string]*models.Section
	lookups  []string
}

func (m *mockCodeResolver) FindByEnrollCode(ctx context.Context, code string) (*models.Section, error) {
	m.lookups = append(m.lookups, code)
	return m.sections[code], nil
}

type mockUserFinder struct {
	users map[int64]*models.User
}

func (m *mockUserFinder) FindByID(ctx context.Context, id int64) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

type mockProvisioner struct {
	calls [][2]int64
}

func (m *mockProvisioner) ProvisionStudent(sectionID, studentID int64) {
	m.calls = append(m.calls, [2]int64{sectionID, studentID})
}

func enrollmentFixture(repo *mockEnrollmentWriter, resolver *mockCodeResolver, provisioner *mockProvisioner) *EnrollmentService {
	users := &mockUserFinder{users: map[int64]*models.User{
		4: {ID: 4, UserTypeID: models.RoleStudent},
		9: {ID: 9, UserTypeID: models.RoleTeacher},
	}}
	return NewEnrollmentService(repo, resolver, users, provisioner, nil, nil, zap.NewNop())
}

func TestEnrollByCode(t *testing.T) {
	repo := &mockEnrollmentWriter{}
	resolver := &mockCodeResolver{sections: map[string]*models.Section{
		"XKCD1234": {ID: 7, CourseID: 3, SemesterID: 1, EnrollCode: "XKCD1234"},
	}}
	provisioner := &mockProvisioner{}
	svc := enrollmentFixture(repo, resolver, provisioner)

	result, err := svc.EnrollByCode(context.Background(), 4, EnrollByCodeRequest{Code: "xkcd1234"})

	require.NoError(t, err)
	assert.Equal(t, models.EnrollOutcomeEnrolled, result.Outcome)
	require.NotNil(t, result.Enrollment)
	assert.Equal(t, int64(7), result.Enrollment.SectionID)
	assert.Equal(t, int64(4), result.Enrollment.StudentID)
	// Codes are matched case-insensitively.
	assert.Equal(t, []string{"XKCD1234"}, resolver.lookups)
	// Enrollment kicks off async point provisioning.
	require.Len(t, provisioner.calls, 1)
	assert.Equal(t, [2]int64{7, 4}, provisioner.calls[0])
}

func TestEnrollByCodeDuplicate(t *testing.T) {
	existing := &models.Enrollment{ID: 11, SectionID: 7, StudentID: 4, DateEnrolled: time.Now().UTC()}
	repo := &mockEnrollmentWriter{active: map[int64]*models.Enrollment{7: existing}}
	resolver := &mockCodeResolver{sections: map[string]*models.Section{
		"XKCD1234": {ID: 7, EnrollCode: "XKCD1234"},
	}}
	provisioner := &mockProvisioner{}
	svc := enrollmentFixture(repo, resolver, provisioner)

	result, err := svc.EnrollByCode(context.Background(), 4, EnrollByCodeRequest{Code: "XKCD1234"})

	require.NoError(t, err)
	assert.Equal(t, models.EnrollOutcomeDuplicate, result.Outcome)
	assert.Equal(t, existing, result.Enrollment)
	// No second row, no provisioning.
	assert.Empty(t, repo.created)
	assert.Empty(t, provisioner.calls)
}

func TestEnrollByCodeNotFound(t *testing.T) {
	svc := enrollmentFixture(&mockEnrollmentWriter{}, &mockCodeResolver{}, &mockProvisioner{})

	_, err := svc.EnrollByCode(context.Background(), 4, EnrollByCodeRequest{Code: "NOPE0000"})

	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidEnrollCode.Code, appErr.Code)
	assert.Equal(t, appErrors.ErrInvalidEnrollCode.Status, appErr.Status)
}

func TestEnrollByCodeTeacherForbidden(t *testing.T) {
	svc := enrollmentFixture(&mockEnrollmentWriter{}, &mockCodeResolver{}, &mockProvisioner{})

	_, err := svc.EnrollByCode(context.Background(), 9, EnrollByCodeRequest{Code: "XKCD1234"})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestDisenroll(t *testing.T) {
	existing := &models.Enrollment{ID: 11, SectionID: 7, StudentID: 4}
	repo := &mockEnrollmentWriter{active: map[int64]*models.Enrollment{7: existing}}
	svc := enrollmentFixture(repo, &mockCodeResolver{}, nil)

	err := svc.Disenroll(context.Background(), 4, 7)

	require.NoError(t, err)
	assert.Equal(t, []int64{11}, repo.disenrolled)
}

func TestDisenrollWithoutActiveEnrollment(t *testing.T) {
	svc := enrollmentFixture(&mockEnrollmentWriter{}, &mockCodeResolver{}, nil)

	err := svc.Disenroll(context.Background(), 4, 7)

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
