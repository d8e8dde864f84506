package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/axis-edu/axis-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestEnrollmentRepositoryListActiveByStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	rows := sqlmock.NewRows([]string{"enrollment_id", "section_id", "student_id", "date_enrolled", "date_disenrolled"}).
		AddRow(11, 7, 4, time.Now(), nil)
	mock.ExpectQuery(regexp.QuoteMeta("student_id = $1 AND date_disenrolled IS NULL")).
		WithArgs(int64(4)).
		WillReturnRows(rows)

	enrollments, err := repo.ListActiveByStudent(context.Background(), 4)
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	require.True(t, enrollments[0].Active())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryFindActiveNoRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("student_id = $1 AND section_id = $2 AND date_disenrolled IS NULL")).
		WithArgs(int64(4), int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"enrollment_id"}))

	enrollment, err := repo.FindActive(context.Background(), 4, 7)
	require.NoError(t, err)
	require.Nil(t, enrollment)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO enrollments (section_id, student_id, date_enrolled)")).
		WithArgs(int64(7), int64(4), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"enrollment_id"}).AddRow(11))

	enrollment := &models.Enrollment{SectionID: 7, StudentID: 4}
	err := repo.Create(context.Background(), enrollment)
	require.NoError(t, err)
	require.Equal(t, int64(11), enrollment.ID)
	require.False(t, enrollment.DateEnrolled.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryDisenrollOnlyTouchesActiveRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	at := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("SET date_disenrolled = $2 WHERE enrollment_id = $1 AND date_disenrolled IS NULL")).
		WithArgs(int64(11), at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Disenroll(context.Background(), 11, at)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
