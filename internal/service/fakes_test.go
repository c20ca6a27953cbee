package service

import (
	"context"
	"database/sql"
	"strings"

	"github.com/noah-isme/school-diary-api/internal/models"
)

func int64Ptr(v int64) *int64 { return &v }

func strPtr(v string) *string { return &v }

func headTeacher() *models.Principal {
	return &models.Principal{UserID: 1, Username: "zavuch", Role: models.RoleTeacher, RoleID: 1, Position: models.PositionHeadTeacher}
}

func plainTeacher() *models.Principal {
	return &models.Principal{UserID: 2, Username: "ivanova", Role: models.RoleTeacher, RoleID: 2, Position: "Учитель"}
}

func studentPrincipal(classID int64) *models.Principal {
	return &models.Principal{UserID: 20, Username: "petrov", Role: models.RoleStudent, RoleID: 5, ClassID: int64Ptr(classID)}
}

type fakeGrades struct {
	items   map[int64]*models.Grade
	nextID  int64
	filters []models.GradeFilter
	updates map[int64]map[string]interface{}
	deleted []int64
}

func newFakeGrades(items ...models.Grade) *fakeGrades {
	f := &fakeGrades{items: map[int64]*models.Grade{}, nextID: 100, updates: map[int64]map[string]interface{}{}}
	for i := range items {
		g := items[i]
		f.items[g.ID] = &g
	}
	return f
}

func (f *fakeGrades) List(ctx context.Context, filter models.GradeFilter) ([]models.Grade, error) {
	f.filters = append(f.filters, filter)
	out := []models.Grade{}
	for _, g := range f.items {
		if filter.SubjectID != nil && g.SubjectID != *filter.SubjectID {
			continue
		}
		if len(filter.StudentIDs) > 0 && !containsID(filter.StudentIDs, g.StudentID) {
			continue
		}
		out = append(out, *g)
	}
	return out, nil
}

func (f *fakeGrades) FindByID(ctx context.Context, id int64) (*models.Grade, error) {
	g, ok := f.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return g, nil
}

func (f *fakeGrades) Create(ctx context.Context, grade *models.Grade) error {
	f.nextID++
	grade.ID = f.nextID
	copied := *grade
	f.items[grade.ID] = &copied
	return nil
}

func (f *fakeGrades) Update(ctx context.Context, id int64, fields map[string]interface{}) error {
	f.updates[id] = fields
	return nil
}

func (f *fakeGrades) Delete(ctx context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	delete(f.items, id)
	return nil
}

type fakeAttendance struct {
	items   map[int64]*models.Attendance
	nextID  int64
	updates map[int64]map[string]interface{}
}

func newFakeAttendance(items ...models.Attendance) *fakeAttendance {
	f := &fakeAttendance{items: map[int64]*models.Attendance{}, nextID: 200, updates: map[int64]map[string]interface{}{}}
	for i := range items {
		a := items[i]
		f.items[a.ID] = &a
	}
	return f
}

func (f *fakeAttendance) ListByStudents(ctx context.Context, studentIDs []int64) ([]models.Attendance, error) {
	out := []models.Attendance{}
	for _, a := range f.items {
		if containsID(studentIDs, a.StudentID) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAttendance) ListByClass(ctx context.Context, classID int64) ([]models.Attendance, error) {
	out := []models.Attendance{}
	for _, a := range f.items {
		out = append(out, *a)
	}
	return out, nil
}

func (f *fakeAttendance) FindByID(ctx context.Context, id int64) (*models.Attendance, error) {
	a, ok := f.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return a, nil
}

func (f *fakeAttendance) Create(ctx context.Context, record *models.Attendance) error {
	f.nextID++
	record.ID = f.nextID
	copied := *record
	f.items[record.ID] = &copied
	return nil
}

func (f *fakeAttendance) Update(ctx context.Context, id int64, fields map[string]interface{}) error {
	f.updates[id] = fields
	return nil
}

type fakeHomework struct {
	items []models.Homework
}

func (f *fakeHomework) ListByClass(ctx context.Context, classID int64) ([]models.Homework, error) {
	out := []models.Homework{}
	for _, h := range f.items {
		if h.ClassID == classID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *fakeHomework) Create(ctx context.Context, item *models.Homework) error {
	item.ID = int64(len(f.items) + 1)
	f.items = append(f.items, *item)
	return nil
}

type fakeStudents struct {
	records []models.StudentRecord
}

func (f *fakeStudents) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentRecord, error) {
	out := []models.StudentRecord{}
	for _, st := range f.records {
		if filter.ClassID != nil && (st.ClassID == nil || *st.ClassID != *filter.ClassID) {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(st.FullName()), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, st)
	}
	return out, nil
}

func (f *fakeStudents) FindByUserID(ctx context.Context, userID int64) (*models.StudentRecord, error) {
	for i := range f.records {
		if f.records[i].ID == userID {
			return &f.records[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeStudents) CountByClass(ctx context.Context, classID int64) (int, error) {
	students, _ := f.List(ctx, models.StudentFilter{ClassID: &classID})
	return len(students), nil
}

type fakeClasses struct {
	items     map[int64]*models.Class
	scheduled map[int64]bool
	deleted   []int64
}

func newFakeClasses(items ...models.Class) *fakeClasses {
	f := &fakeClasses{items: map[int64]*models.Class{}, scheduled: map[int64]bool{}}
	for i := range items {
		c := items[i]
		f.items[c.ID] = &c
	}
	return f
}

func (f *fakeClasses) List(ctx context.Context) ([]models.Class, error) {
	out := []models.Class{}
	for _, c := range f.items {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeClasses) FindByID(ctx context.Context, id int64) (*models.Class, error) {
	c, ok := f.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return c, nil
}

func (f *fakeClasses) ExistsByName(ctx context.Context, name string) (bool, error) {
	for _, c := range f.items {
		if strings.EqualFold(c.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeClasses) ListByHomeroomTeacher(ctx context.Context, teacherID int64) ([]models.Class, error) {
	out := []models.Class{}
	for _, c := range f.items {
		if c.TeacherID != nil && *c.TeacherID == teacherID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeClasses) ListScheduledForTeacher(ctx context.Context, teacherID int64) ([]models.Class, error) {
	out := []models.Class{}
	for id, scheduled := range f.scheduled {
		if scheduled {
			out = append(out, *f.items[id])
		}
	}
	return out, nil
}

func (f *fakeClasses) HasSchedules(ctx context.Context, classID int64) (bool, error) {
	return f.scheduled[classID], nil
}

func (f *fakeClasses) Create(ctx context.Context, class *models.Class) error {
	class.ID = int64(len(f.items) + 1)
	copied := *class
	f.items[class.ID] = &copied
	return nil
}

func (f *fakeClasses) Delete(ctx context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	delete(f.items, id)
	return nil
}

type fakeSubjects struct {
	items      map[int64]*models.Subject
	forClass   []models.Subject
	teacherArg *int64
}

func newFakeSubjects(items ...models.Subject) *fakeSubjects {
	f := &fakeSubjects{items: map[int64]*models.Subject{}}
	for i := range items {
		s := items[i]
		f.items[s.ID] = &s
	}
	return f
}

func (f *fakeSubjects) FindByID(ctx context.Context, id int64) (*models.Subject, error) {
	s, ok := f.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return s, nil
}

func (f *fakeSubjects) ListForClass(ctx context.Context, classID int64, teacherID *int64) ([]models.Subject, error) {
	f.teacherArg = teacherID
	return f.forClass, nil
}

// fakeSchedules answers teacher/class membership from its rows.
type fakeSchedules struct {
	rows    []models.ScheduleRecord
	filters []models.ScheduleFilter
}

func (f *fakeSchedules) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleRecord, error) {
	f.filters = append(f.filters, filter)
	out := []models.ScheduleRecord{}
	for _, r := range f.rows {
		if filter.ClassID != nil && r.ClassID != *filter.ClassID {
			continue
		}
		if filter.TeacherID != nil && r.TeacherID != *filter.TeacherID {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeSchedules) ExistsForTeacherClass(ctx context.Context, teacherID, classID int64) (bool, error) {
	for _, r := range f.rows {
		if r.TeacherID == teacherID && r.ClassID == classID {
			return true, nil
		}
	}
	return false, nil
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
