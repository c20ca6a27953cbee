package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-diary-api/internal/dto"
	"github.com/noah-isme/school-diary-api/internal/models"
)

type fakeFreeTeachers struct {
	free  []models.TeacherRecord
	known map[int64]bool
}

func (f *fakeFreeTeachers) ListFree(ctx context.Context) ([]models.TeacherRecord, error) {
	return f.free, nil
}

func (f *fakeFreeTeachers) Exists(ctx context.Context, teacherID int64) (bool, error) {
	return f.known[teacherID], nil
}

type classFixture struct {
	svc       *ClassService
	classes   *fakeClasses
	subjects  *fakeSubjects
	schedules *fakeSchedules
}

func newClassFixture() *classFixture {
	date, _ := models.ParseDate("2025-05-05")
	f := &classFixture{
		classes: newFakeClasses(
			models.Class{ID: 1, Name: "9А", TeacherID: int64Ptr(2)},
			models.Class{ID: 2, Name: "10Б"},
			models.Class{ID: 3, Name: "11В"},
		),
		subjects: newFakeSubjects(models.Subject{ID: 3, Name: "Алгебра"}),
		schedules: &fakeSchedules{rows: []models.ScheduleRecord{
			{Schedule: models.Schedule{ID: 2, ClassID: 1, TeacherID: 2, DayOfWeek: "Среда", StartTime: "09:00"}},
			{Schedule: models.Schedule{ID: 1, ClassID: 1, TeacherID: 2, DayOfWeek: "Понедельник", StartTime: "10:00"}},
			{Schedule: models.Schedule{ID: 3, ClassID: 1, TeacherID: 2, DayOfWeek: "Понедельник", StartTime: "08:30"}},
		}},
	}
	f.classes.scheduled[1] = true
	f.subjects.forClass = []models.Subject{{ID: 3, Name: "Алгебра"}}

	f.svc = NewClassService(ClassDeps{
		Classes: f.classes,
		Students: &fakeStudents{records: []models.StudentRecord{
			{User: models.User{ID: 20, FirstName: "Пётр", LastName: "Петров"}, StudentID: 5, ClassID: int64Ptr(1)},
			{User: models.User{ID: 21, FirstName: "Мария", LastName: "Сидорова"}, StudentID: 6, ClassID: int64Ptr(2)},
		}},
		Teachers:  &fakeFreeTeachers{free: []models.TeacherRecord{{TeacherID: 9}}, known: map[int64]bool{9: true}},
		Subjects:  f.subjects,
		Schedules: f.schedules,
		Grades:    newFakeGrades(models.Grade{ID: 1, StudentID: 20, SubjectID: 3, Grade: 5, Date: date}),
		Attendance: newFakeAttendance(
			models.Attendance{ID: 1, StudentID: 20, Date: date, Status: models.AttendancePresent},
			models.Attendance{ID: 2, StudentID: 21, Date: date, Status: models.AttendanceAbsent},
		),
	}, nil, nil)
	return f
}

func TestClassServiceListForTeacher(t *testing.T) {
	f := newClassFixture()

	all, err := f.svc.ListForTeacher(context.Background(), headTeacher())
	require.NoError(t, err)
	assert.Len(t, all, 3)

	own, err := f.svc.ListForTeacher(context.Background(), plainTeacher())
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "9А", own[0].Name)
}

func TestClassServiceCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("head teacher only", func(t *testing.T) {
		f := newClassFixture()
		_, err := f.svc.Create(ctx, plainTeacher(), dto.CreateClassRequest{ClassName: "5А"})
		assertStatus(t, err, http.StatusForbidden)
	})

	t.Run("duplicate name", func(t *testing.T) {
		f := newClassFixture()
		_, err := f.svc.Create(ctx, headTeacher(), dto.CreateClassRequest{ClassName: " 9а "})
		assertStatus(t, err, http.StatusBadRequest)
	})

	t.Run("unknown teacher", func(t *testing.T) {
		f := newClassFixture()
		_, err := f.svc.Create(ctx, headTeacher(), dto.CreateClassRequest{ClassName: "5А", TeacherID: int64Ptr(77)})
		assertStatus(t, err, http.StatusBadRequest)
	})

	t.Run("created", func(t *testing.T) {
		f := newClassFixture()
		class, err := f.svc.Create(ctx, headTeacher(), dto.CreateClassRequest{ClassName: "5А", TeacherID: int64Ptr(9)})
		require.NoError(t, err)
		assert.Equal(t, "5А", class.Name)
		assert.Contains(t, f.classes.items, class.ID)
	})
}

func TestClassServiceDelete(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name    string
		caller  *models.Principal
		classID int64
		status  int
	}{
		{"not head teacher", plainTeacher(), 3, http.StatusForbidden},
		{"missing class", headTeacher(), 99, http.StatusNotFound},
		{"enrolled students", headTeacher(), 2, http.StatusBadRequest},
		{"scheduled lessons", headTeacher(), 1, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newClassFixture()
			if tc.classID == 1 {
				// students moved out, lessons remain
				f.svc.students = &fakeStudents{}
			}

			assertStatus(t, f.svc.Delete(ctx, tc.caller, tc.classID), tc.status)
			assert.Empty(t, f.classes.deleted)
		})
	}

	f := newClassFixture()
	require.NoError(t, f.svc.Delete(ctx, headTeacher(), 3))
	assert.Equal(t, []int64{3}, f.classes.deleted)
}

func TestClassServiceFreeTeachers(t *testing.T) {
	f := newClassFixture()

	_, err := f.svc.FreeTeachers(context.Background(), plainTeacher())
	assertStatus(t, err, http.StatusForbidden)

	teachers, err := f.svc.FreeTeachers(context.Background(), headTeacher())
	require.NoError(t, err)
	assert.Len(t, teachers, 1)
}

func TestClassServiceSubjectsForClass(t *testing.T) {
	f := newClassFixture()

	_, err := f.svc.SubjectsForClass(context.Background(), headTeacher(), 1)
	require.NoError(t, err)
	assert.Nil(t, f.subjects.teacherArg)

	subjects, err := f.svc.SubjectsForClass(context.Background(), plainTeacher(), 1)
	require.NoError(t, err)
	assert.Len(t, subjects, 1)
	require.NotNil(t, f.subjects.teacherArg)
	assert.Equal(t, int64(2), *f.subjects.teacherArg)

	_, err = f.svc.SubjectsForClass(context.Background(), plainTeacher(), 99)
	assertStatus(t, err, http.StatusNotFound)
}

func TestClassServiceMyClass(t *testing.T) {
	f := newClassFixture()

	view, err := f.svc.MyClass(context.Background(), plainTeacher())
	require.NoError(t, err)
	assert.Equal(t, "9А", view.Class.Name)
	require.Len(t, view.Students, 1)
	assert.Len(t, view.Students[0].Grades, 1)
	assert.Len(t, view.Students[0].Attendance, 1)
	require.Len(t, view.Schedule, 3)
	assert.Equal(t, []int64{3, 1, 2}, []int64{view.Schedule[0].ID, view.Schedule[1].ID, view.Schedule[2].ID})

	_, err = f.svc.MyClass(context.Background(), headTeacher())
	assertStatus(t, err, http.StatusNotFound)
}

func TestClassServiceTeacherSchedule(t *testing.T) {
	f := newClassFixture()

	schedule, err := f.svc.TeacherSchedule(context.Background(), plainTeacher())

	require.NoError(t, err)
	require.Len(t, schedule, 3)
	assert.Equal(t, "08:30", schedule[0].StartTime)
	assert.Equal(t, "Среда", schedule[2].DayOfWeek)
	require.NotNil(t, f.schedules.filters[0].TeacherID)
	assert.Equal(t, int64(2), *f.schedules.filters[0].TeacherID)
}
