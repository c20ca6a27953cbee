package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-diary-api/internal/dto"
	"github.com/noah-isme/school-diary-api/internal/models"
	appErrors "github.com/noah-isme/school-diary-api/pkg/errors"
)

type gradebookFixture struct {
	svc        *GradebookService
	grades     *fakeGrades
	attendance *fakeAttendance
	homework   *fakeHomework
}

// Class 1 (9А) is taught by the plain teacher; class 2 (10Б) is not.
func newGradebookFixture() *gradebookFixture {
	date, _ := models.ParseDate("2025-05-01")
	f := &gradebookFixture{
		grades: newFakeGrades(
			models.Grade{ID: 1, StudentID: 20, SubjectID: 3, Grade: 4, Date: date},
			models.Grade{ID: 2, StudentID: 21, SubjectID: 3, Grade: 5, Date: date},
		),
		attendance: newFakeAttendance(
			models.Attendance{ID: 1, StudentID: 20, Date: date, Status: models.AttendancePresent},
			models.Attendance{ID: 2, StudentID: 21, Date: date, Status: models.AttendanceAbsent},
		),
		homework: &fakeHomework{},
	}
	students := &fakeStudents{records: []models.StudentRecord{
		{User: models.User{ID: 20, FirstName: "Пётр", LastName: "Петров"}, StudentID: 5, ClassID: int64Ptr(1)},
		{User: models.User{ID: 21, FirstName: "Мария", LastName: "Сидорова"}, StudentID: 6, ClassID: int64Ptr(2)},
		{User: models.User{ID: 22, FirstName: "Олег", LastName: "Новиков"}, StudentID: 7},
	}}
	f.svc = NewGradebookService(GradebookDeps{
		Grades:     f.grades,
		Attendance: f.attendance,
		Homework:   f.homework,
		Students:   students,
		Classes:    newFakeClasses(models.Class{ID: 1, Name: "9А"}, models.Class{ID: 2, Name: "10Б"}),
		Subjects:   newFakeSubjects(models.Subject{ID: 3, Name: "Алгебра"}),
		Schedules:  &fakeSchedules{rows: []models.ScheduleRecord{{Schedule: models.Schedule{ID: 1, ClassID: 1, SubjectID: 3, TeacherID: 2}}}},
	}, nil, nil)
	return f
}

func assertStatus(t *testing.T, err error, status int) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, status, appErrors.FromError(err).Status, err.Error())
}

func TestGradebookAuthorizeClass(t *testing.T) {
	f := newGradebookFixture()
	ctx := context.Background()

	assert.NoError(t, f.svc.AuthorizeClass(ctx, plainTeacher(), 1))
	assertStatus(t, f.svc.AuthorizeClass(ctx, plainTeacher(), 2), http.StatusForbidden)
	assert.NoError(t, f.svc.AuthorizeClass(ctx, headTeacher(), 2))
	assertStatus(t, f.svc.AuthorizeClass(ctx, studentPrincipal(1), 1), http.StatusForbidden)
}

func TestGradebookClassGrades(t *testing.T) {
	f := newGradebookFixture()

	grades, err := f.svc.ClassGrades(context.Background(), plainTeacher(), 1)
	require.NoError(t, err)
	assert.NotEmpty(t, grades)
	require.NotNil(t, f.grades.filters[0].ClassID)
	assert.Equal(t, int64(1), *f.grades.filters[0].ClassID)

	_, err = f.svc.ClassGrades(context.Background(), headTeacher(), 99)
	assertStatus(t, err, http.StatusNotFound)
}

func TestGradebookClassStudents(t *testing.T) {
	f := newGradebookFixture()

	students, err := f.svc.ClassStudents(context.Background(), plainTeacher(), 1)

	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, int64(20), students[0].ID)
}

func TestGradebookCreateGrade(t *testing.T) {
	f := newGradebookFixture()

	grade, err := f.svc.CreateGrade(context.Background(), plainTeacher(), dto.CreateGradeRequest{StudentID: 20, SubjectID: 3, Grade: 5, Date: "2025-05-18"})

	require.NoError(t, err)
	assert.Equal(t, int64(20), grade.StudentID)
	assert.Equal(t, "Алгебра", grade.SubjectName)
	assert.Equal(t, "Пётр Петров", grade.StudentName)
	assert.Equal(t, "2025-05-18", grade.Date.String())
	assert.Contains(t, f.grades.items, grade.ID)
}

func TestGradebookCreateGradeRejections(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name   string
		caller *models.Principal
		req    dto.CreateGradeRequest
		status int
	}{
		{"grade above five", plainTeacher(), dto.CreateGradeRequest{StudentID: 20, SubjectID: 3, Grade: 6, Date: "2025-05-18"}, http.StatusBadRequest},
		{"grade below two", plainTeacher(), dto.CreateGradeRequest{StudentID: 20, SubjectID: 3, Grade: 1, Date: "2025-05-18"}, http.StatusBadRequest},
		{"bad date", plainTeacher(), dto.CreateGradeRequest{StudentID: 20, SubjectID: 3, Grade: 4, Date: "18.05.2025"}, http.StatusBadRequest},
		{"unknown student", plainTeacher(), dto.CreateGradeRequest{StudentID: 99, SubjectID: 3, Grade: 4, Date: "2025-05-18"}, http.StatusNotFound},
		{"unknown subject", plainTeacher(), dto.CreateGradeRequest{StudentID: 20, SubjectID: 99, Grade: 4, Date: "2025-05-18"}, http.StatusNotFound},
		{"class not taught", plainTeacher(), dto.CreateGradeRequest{StudentID: 21, SubjectID: 3, Grade: 4, Date: "2025-05-18"}, http.StatusForbidden},
		{"student without class", plainTeacher(), dto.CreateGradeRequest{StudentID: 22, SubjectID: 3, Grade: 4, Date: "2025-05-18"}, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newGradebookFixture()
			before := len(f.grades.items)

			_, err := f.svc.CreateGrade(ctx, tc.caller, tc.req)

			assertStatus(t, err, tc.status)
			assert.Len(t, f.grades.items, before)
		})
	}
}

func TestGradebookHeadTeacherGradesAnyClass(t *testing.T) {
	f := newGradebookFixture()

	_, err := f.svc.CreateGrade(context.Background(), headTeacher(), dto.CreateGradeRequest{StudentID: 21, SubjectID: 3, Grade: 3, Date: "2025-05-18"})
	require.NoError(t, err)

	_, err = f.svc.CreateGrade(context.Background(), headTeacher(), dto.CreateGradeRequest{StudentID: 22, SubjectID: 3, Grade: 3, Date: "2025-05-18"})
	require.NoError(t, err)
}

func TestGradebookUpdateGrade(t *testing.T) {
	f := newGradebookFixture()
	ctx := context.Background()

	result, err := f.svc.UpdateGrade(ctx, plainTeacher(), 1, dto.UpdateGradeRequest{Grade: intPtr(3)})
	require.NoError(t, err)
	assert.Equal(t, []string{"grade"}, result.UpdatedFields)
	assert.Equal(t, 3, f.grades.updates[1]["grade"])

	_, err = f.svc.UpdateGrade(ctx, plainTeacher(), 1, dto.UpdateGradeRequest{})
	assert.True(t, appErrors.Is(err, appErrors.ErrNoFieldsToUpdate))

	_, err = f.svc.UpdateGrade(ctx, plainTeacher(), 404, dto.UpdateGradeRequest{Grade: intPtr(3)})
	assertStatus(t, err, http.StatusNotFound)

	_, err = f.svc.UpdateGrade(ctx, plainTeacher(), 2, dto.UpdateGradeRequest{Grade: intPtr(3)})
	assertStatus(t, err, http.StatusForbidden)
	assert.NotContains(t, f.grades.updates, int64(2))
}

func TestGradebookDeleteGrade(t *testing.T) {
	f := newGradebookFixture()

	assertStatus(t, f.svc.DeleteGrade(context.Background(), plainTeacher(), 2), http.StatusForbidden)
	require.NoError(t, f.svc.DeleteGrade(context.Background(), plainTeacher(), 1))
	assert.Equal(t, []int64{1}, f.grades.deleted)
}

func TestGradebookHomework(t *testing.T) {
	f := newGradebookFixture()
	ctx := context.Background()

	item, err := f.svc.CreateHomework(ctx, plainTeacher(), dto.CreateHomeworkRequest{ClassID: 1, SubjectID: 3, Task: "  §12, упр. 3 ", DueDate: "2025-05-20"})
	require.NoError(t, err)
	assert.Equal(t, "§12, упр. 3", item.Task)
	assert.Equal(t, "Алгебра", item.SubjectName)

	_, err = f.svc.CreateHomework(ctx, plainTeacher(), dto.CreateHomeworkRequest{ClassID: 2, SubjectID: 3, Task: "task", DueDate: "2025-05-20"})
	assertStatus(t, err, http.StatusForbidden)

	_, err = f.svc.CreateHomework(ctx, plainTeacher(), dto.CreateHomeworkRequest{ClassID: 1, SubjectID: 3, Task: "   ", DueDate: "2025-05-20"})
	assertStatus(t, err, http.StatusBadRequest)

	items, err := f.svc.ClassHomework(ctx, plainTeacher(), 1)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestGradebookAttendance(t *testing.T) {
	f := newGradebookFixture()
	ctx := context.Background()

	record, err := f.svc.CreateAttendance(ctx, plainTeacher(), dto.CreateAttendanceRequest{StudentID: 20, Date: "2025-05-19", Status: models.AttendanceAbsent})
	require.NoError(t, err)
	assert.Equal(t, "Пётр Петров", record.StudentName)

	_, err = f.svc.CreateAttendance(ctx, plainTeacher(), dto.CreateAttendanceRequest{StudentID: 20, Date: "2025-05-19", Status: "болел"})
	assertStatus(t, err, http.StatusBadRequest)

	result, err := f.svc.UpdateAttendance(ctx, plainTeacher(), 1, dto.UpdateAttendanceRequest{Status: strPtr(models.AttendanceAbsent), Date: strPtr("2025-05-02")})
	require.NoError(t, err)
	assert.Equal(t, []string{"date", "status"}, result.UpdatedFields)

	_, err = f.svc.UpdateAttendance(ctx, plainTeacher(), 2, dto.UpdateAttendanceRequest{Status: strPtr(models.AttendancePresent)})
	assertStatus(t, err, http.StatusForbidden)
}

func TestGradebookSubjectReport(t *testing.T) {
	f := newGradebookFixture()

	class, subject, progress, err := f.svc.SubjectReport(context.Background(), plainTeacher(), 1, 3)

	require.NoError(t, err)
	assert.Equal(t, "9А", class.Name)
	assert.Equal(t, "Алгебра", subject.Name)
	require.Len(t, progress, 1)
	assert.Len(t, progress[0].Grades, 1)
	assert.Len(t, progress[0].Attendance, 1)
}

func intPtr(v int) *int { return &v }
