package service

import (
	"context"
	"database/sql"
	"net/http"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-diary-api/internal/dto"
	"github.com/noah-isme/school-diary-api/internal/models"
	appErrors "github.com/noah-isme/school-diary-api/pkg/errors"
)

type teacherCreateCall struct {
	positionID int64
	subjectIDs []int64
	classID    *int64
}

// memoryTeachers keeps teacher records by teacher id and answers user uniqueness checks.
type memoryTeachers struct {
	records     map[int64]*models.TeacherRecord
	assignments map[int64][]models.AssignedSubject
	scheduled   map[int64]bool
	created     *teacherCreateCall
	updates     []models.TeacherUpdate
	deleted     []models.Teacher
}

func newMemoryTeachers(records ...models.TeacherRecord) *memoryTeachers {
	m := &memoryTeachers{
		records:     map[int64]*models.TeacherRecord{},
		assignments: map[int64][]models.AssignedSubject{},
		scheduled:   map[int64]bool{},
	}
	for i := range records {
		r := records[i]
		m.records[r.TeacherID] = &r
	}
	return m
}

func (m *memoryTeachers) List(ctx context.Context, search string) ([]models.TeacherRecord, error) {
	out := []models.TeacherRecord{}
	for _, r := range m.records {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TeacherID < out[j].TeacherID })
	return out, nil
}

func (m *memoryTeachers) FindByTeacherID(ctx context.Context, teacherID int64) (*models.TeacherRecord, error) {
	r, ok := m.records[teacherID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *r
	return &copied, nil
}

func (m *memoryTeachers) Assignments(ctx context.Context, teacherID int64) ([]models.AssignedSubject, error) {
	return m.assignments[teacherID], nil
}

func (m *memoryTeachers) HasSchedules(ctx context.Context, teacherID int64) (bool, error) {
	return m.scheduled[teacherID], nil
}

func (m *memoryTeachers) Create(ctx context.Context, user *models.User, teacher *models.Teacher, positionID int64, subjectIDs []int64, classID *int64) error {
	user.ID = 200
	teacher.UserID, teacher.TeacherID = user.ID, 20
	m.records[teacher.TeacherID] = &models.TeacherRecord{User: *user, TeacherID: teacher.TeacherID}
	m.created = &teacherCreateCall{positionID: positionID, subjectIDs: subjectIDs, classID: classID}
	return nil
}

func (m *memoryTeachers) Update(ctx context.Context, teacher models.Teacher, change models.TeacherUpdate) error {
	r, ok := m.records[teacher.TeacherID]
	if !ok {
		return sql.ErrNoRows
	}
	applyUserColumns(&r.User, change.User)
	m.updates = append(m.updates, change)
	return nil
}

func (m *memoryTeachers) Delete(ctx context.Context, teacher models.Teacher) error {
	m.deleted = append(m.deleted, teacher)
	delete(m.records, teacher.TeacherID)
	return nil
}

func (m *memoryTeachers) ExistsByUsername(ctx context.Context, username string, excludeID int64) (bool, error) {
	for _, r := range m.records {
		if r.ID != excludeID && r.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryTeachers) ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error) {
	for _, r := range m.records {
		if r.ID != excludeID && r.Email != nil && *r.Email == email {
			return true, nil
		}
	}
	return false, nil
}

type fakePositions map[int64]string

func (f fakePositions) List(ctx context.Context) ([]models.Position, error) {
	out := []models.Position{}
	for id, name := range f {
		out = append(out, models.Position{ID: id, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f fakePositions) FindByID(ctx context.Context, id int64) (*models.Position, error) {
	name, ok := f[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.Position{ID: id, Name: name}, nil
}

// fakeSubjectCounter counts how many of the requested ids exist.
type fakeSubjectCounter map[int64]bool

func (f fakeSubjectCounter) CountExisting(ctx context.Context, ids []int64) (int, error) {
	var n int
	for _, id := range ids {
		if f[id] {
			n++
		}
	}
	return n, nil
}

type teacherFixture struct {
	svc       *TeacherService
	repo      *memoryTeachers
	classes   *fakeClasses
	schedules *fakeSchedules
	pictures  *pictureSpy
}

func newTeacherFixture() *teacherFixture {
	repo := newMemoryTeachers(
		models.TeacherRecord{User: models.User{ID: 3, Username: "ivanova", FirstName: "Анна", LastName: "Иванова", Email: strPtr("ivanova@school.ru")}, TeacherID: 3},
		models.TeacherRecord{User: models.User{ID: 4, Username: "petrov", FirstName: "Иван", LastName: "Петров", Email: strPtr("petrov@school.ru"), ProfilePicture: strPtr("petrov.png")}, TeacherID: 4},
		models.TeacherRecord{User: models.User{ID: 5, Username: "smirnov", FirstName: "Олег", LastName: "Смирнов"}, TeacherID: 5},
	)
	repo.assignments[3] = []models.AssignedSubject{
		{AssignmentID: 1, PositionID: 1, PositionName: "Учитель", SubjectID: int64Ptr(1), SubjectName: strPtr("Алгебра")},
		{AssignmentID: 1, PositionID: 1, PositionName: "Учитель", SubjectID: int64Ptr(2), SubjectName: strPtr("Геометрия")},
		{AssignmentID: 2, PositionID: 2, PositionName: "Завуч"},
	}
	repo.scheduled[4] = true

	classes := newFakeClasses(
		models.Class{ID: 1, Name: "9А", TeacherID: int64Ptr(3)},
		models.Class{ID: 2, Name: "10Б"},
	)
	schedules := &fakeSchedules{rows: []models.ScheduleRecord{
		{Schedule: models.Schedule{ID: 11, ClassID: 2, TeacherID: 4, DayOfWeek: "Среда", StartTime: "09:00"}},
		{Schedule: models.Schedule{ID: 12, ClassID: 2, TeacherID: 4, DayOfWeek: "Понедельник", StartTime: "10:00"}},
		{Schedule: models.Schedule{ID: 13, ClassID: 1, TeacherID: 3, DayOfWeek: "Вторник", StartTime: "08:00"}},
	}}
	positions := fakePositions{1: "Учитель", 2: "Завуч"}
	subjects := fakeSubjectCounter{1: true, 2: true, 3: true, 4: true}
	pictures := &pictureSpy{}

	svc := NewTeacherService(repo, repo, classes, positions, subjects, schedules, pictures, nil, nil)
	return &teacherFixture{svc: svc, repo: repo, classes: classes, schedules: schedules, pictures: pictures}
}

func validTeacherRequest() dto.CreateTeacherRequest {
	return dto.CreateTeacherRequest{
		Username:    "kozlova",
		Password:    "secret1",
		FirstName:   "Елена",
		LastName:    "Козлова",
		Email:       "kozlova@school.ru",
		PhoneNumber: "+79001112233",
		PositionID:  1,
		SubjectIDs:  []int64{3, 4, 3},
		ClassID:     int64Ptr(2),
	}
}

func TestTeacherServiceListGroupsPositions(t *testing.T) {
	f := newTeacherFixture()

	teachers, err := f.svc.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, teachers, 3)

	ivanova := teachers[0]
	assert.Equal(t, int64(3), ivanova.TeacherID)
	require.Len(t, ivanova.Classes, 1)
	assert.Equal(t, "9А", ivanova.Classes[0].Name)
	assert.Equal(t, []dto.PositionSubjects{
		{PositionID: 1, PositionName: "Учитель", Subjects: []models.Subject{{ID: 1, Name: "Алгебра"}, {ID: 2, Name: "Геометрия"}}},
		{PositionID: 2, PositionName: "Завуч", Subjects: []models.Subject{}},
	}, ivanova.Positions)

	assert.Empty(t, teachers[1].Classes)
	assert.Empty(t, teachers[1].Positions)
}

func TestTeacherServiceGet(t *testing.T) {
	f := newTeacherFixture()

	detail, err := f.svc.Get(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, "petrov", detail.Username)
	assert.Equal(t, strPtr("petrov.png"), detail.ProfilePicture)
	require.Len(t, detail.Schedules, 2)
	assert.Equal(t, int64(12), detail.Schedules[0].ID)
	assert.Equal(t, int64(11), detail.Schedules[1].ID)

	_, err = f.svc.Get(context.Background(), 99)
	assertStatus(t, err, http.StatusNotFound)
}

func TestTeacherServiceCreate(t *testing.T) {
	f := newTeacherFixture()

	created, err := f.svc.Create(context.Background(), validTeacherRequest())
	require.NoError(t, err)
	assert.Equal(t, int64(20), created.TeacherID)
	assert.Equal(t, "kozlova", created.Username)
	assert.Equal(t, int64Ptr(2), created.ClassID)
	require.NotNil(t, created.APIKey)
	assert.Len(t, *created.APIKey, 64)

	require.NotNil(t, f.repo.created)
	assert.Equal(t, int64(1), f.repo.created.positionID)
	assert.Equal(t, []int64{3, 4}, f.repo.created.subjectIDs)
}

func TestTeacherServiceCreateWithoutHomeroom(t *testing.T) {
	f := newTeacherFixture()
	req := validTeacherRequest()
	req.ClassID = int64Ptr(0)

	created, err := f.svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Nil(t, created.ClassID)
}

func TestTeacherServiceCreateRejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *dto.CreateTeacherRequest)
		message string
	}{
		{name: "username taken", mutate: func(r *dto.CreateTeacherRequest) { r.Username = "ivanova" }, message: "username already exists"},
		{name: "email taken", mutate: func(r *dto.CreateTeacherRequest) { r.Email = "petrov@school.ru" }, message: "email already exists"},
		{name: "unknown position", mutate: func(r *dto.CreateTeacherRequest) { r.PositionID = 9 }, message: "position not found"},
		{name: "unknown subject", mutate: func(r *dto.CreateTeacherRequest) { r.SubjectIDs = []int64{1, 42} }, message: "one or more subjects not found"},
		{name: "unknown class", mutate: func(r *dto.CreateTeacherRequest) { r.ClassID = int64Ptr(9) }, message: "class not found"},
		{name: "missing position", mutate: func(r *dto.CreateTeacherRequest) { r.PositionID = 0 }},
		{name: "negative class", mutate: func(r *dto.CreateTeacherRequest) { r.ClassID = int64Ptr(-1) }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newTeacherFixture()
			req := validTeacherRequest()
			tc.mutate(&req)

			_, err := f.svc.Create(context.Background(), req)
			assertStatus(t, err, http.StatusBadRequest)
			if tc.message != "" {
				assert.Equal(t, tc.message, appErrors.FromError(err).Message)
			}
			assert.Nil(t, f.repo.created)
		})
	}
}

func TestTeacherServicePatchClearsHomeroom(t *testing.T) {
	f := newTeacherFixture()

	result, err := f.svc.Patch(context.Background(), 3, dto.PatchTeacherRequest{ClassID: int64Ptr(0)})
	require.NoError(t, err)
	assert.Equal(t, []string{"class_id"}, result.UpdatedFields)
	require.Len(t, f.repo.updates, 1)
	assert.Equal(t, int64Ptr(0), f.repo.updates[0].ClassID)
	assert.Nil(t, f.repo.updates[0].PositionID)
	assert.Nil(t, f.repo.updates[0].SubjectIDs)
	assert.Empty(t, f.repo.updates[0].User)
}

func TestTeacherServicePatchReplacesPosition(t *testing.T) {
	f := newTeacherFixture()

	result, err := f.svc.Patch(context.Background(), 3, dto.PatchTeacherRequest{
		UserPatch:  dto.UserPatch{LastName: strPtr(" Иванова-Петрова ")},
		PositionID: int64Ptr(2),
		SubjectIDs: []int64{4, 4, 1},
	})
	require.NoError(t, err)
	assert.Equal(t, "teacher updated", result.Message)
	assert.Equal(t, []string{"last_name", "position_id", "subject_ids"}, result.UpdatedFields)

	require.Len(t, f.repo.updates, 1)
	change := f.repo.updates[0]
	assert.Equal(t, int64Ptr(2), change.PositionID)
	assert.Equal(t, []int64{4, 1}, change.SubjectIDs)
	assert.Nil(t, change.ClassID)
	assert.Equal(t, "Иванова-Петрова", f.repo.records[3].LastName)
}

func TestTeacherServicePatchRejections(t *testing.T) {
	f := newTeacherFixture()
	ctx := context.Background()

	_, err := f.svc.Patch(ctx, 3, dto.PatchTeacherRequest{})
	assert.True(t, appErrors.Is(err, appErrors.ErrNoFieldsToUpdate))

	_, err = f.svc.Patch(ctx, 99, dto.PatchTeacherRequest{PositionID: int64Ptr(1)})
	assertStatus(t, err, http.StatusNotFound)

	_, err = f.svc.Patch(ctx, 3, dto.PatchTeacherRequest{PositionID: int64Ptr(9)})
	assertStatus(t, err, http.StatusBadRequest)
	assert.Equal(t, "position not found", appErrors.FromError(err).Message)

	_, err = f.svc.Patch(ctx, 3, dto.PatchTeacherRequest{ClassID: int64Ptr(9)})
	assertStatus(t, err, http.StatusBadRequest)
	assert.Equal(t, "class not found", appErrors.FromError(err).Message)

	_, err = f.svc.Patch(ctx, 3, dto.PatchTeacherRequest{UserPatch: dto.UserPatch{Email: strPtr("petrov@school.ru")}})
	assertStatus(t, err, http.StatusBadRequest)
	assert.Equal(t, "email already exists", appErrors.FromError(err).Message)

	assert.Empty(t, f.repo.updates)
}

func TestTeacherServicePatchReplacesPicture(t *testing.T) {
	f := newTeacherFixture()

	_, err := f.svc.Patch(context.Background(), 4, dto.PatchTeacherRequest{UserPatch: dto.UserPatch{ProfilePicture: strPtr("petrov-2025.png")}})
	require.NoError(t, err)
	assert.Equal(t, []string{"petrov.png"}, f.pictures.deleted)
	assert.Equal(t, strPtr("petrov-2025.png"), f.repo.records[4].ProfilePicture)
}

func TestTeacherServiceDelete(t *testing.T) {
	f := newTeacherFixture()
	ctx := context.Background()

	err := f.svc.Delete(ctx, 3)
	assertStatus(t, err, http.StatusBadRequest)
	assert.Equal(t, "teacher is assigned to class 9А", appErrors.FromError(err).Message)

	err = f.svc.Delete(ctx, 4)
	assertStatus(t, err, http.StatusBadRequest)
	assert.Equal(t, "teacher has scheduled lessons", appErrors.FromError(err).Message)
	assert.Empty(t, f.repo.deleted)

	require.NoError(t, f.svc.Delete(ctx, 5))
	assert.Equal(t, []models.Teacher{{UserID: 5, TeacherID: 5}}, f.repo.deleted)

	assertStatus(t, f.svc.Delete(ctx, 5), http.StatusNotFound)
}

func TestTeacherServiceReferenceLists(t *testing.T) {
	f := newTeacherFixture()

	positions, err := f.svc.ListPositions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.Position{{ID: 1, Name: "Учитель"}, {ID: 2, Name: "Завуч"}}, positions)

	classes, err := f.svc.ListClasses(context.Background())
	require.NoError(t, err)
	assert.Len(t, classes, 2)
}
