package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-diary-api/internal/middleware"
	"github.com/noah-isme/school-diary-api/internal/models"
	"github.com/noah-isme/school-diary-api/internal/service"
)

type exportServiceMock struct {
	lastSearch string
	lastFormat string
	lastFilter models.ScheduleFilter
	called     bool
}

func (m *exportServiceMock) file(name, format string) *service.ExportFile {
	m.called = true
	m.lastFormat = format
	return &service.ExportFile{Filename: name + "." + format, ContentType: "text/csv; charset=utf-8", Payload: []byte("a,b\n")}
}

func (m *exportServiceMock) Students(ctx context.Context, search, format string) (*service.ExportFile, error) {
	m.lastSearch = search
	return m.file("students", format), nil
}

func (m *exportServiceMock) Teachers(ctx context.Context, search, format string) (*service.ExportFile, error) {
	return m.file("teachers", format), nil
}

func (m *exportServiceMock) Schedules(ctx context.Context, filter models.ScheduleFilter, format string) (*service.ExportFile, error) {
	m.lastFilter = filter
	return m.file("schedules", format), nil
}

func (m *exportServiceMock) Subjects(ctx context.Context, search, format string) (*service.ExportFile, error) {
	return m.file("subjects", format), nil
}

func (m *exportServiceMock) SubjectReport(ctx context.Context, p *models.Principal, classID, subjectID int64, format string) (*service.ExportFile, error) {
	return m.file("report", format), nil
}

func (m *exportServiceMock) TeacherSchedule(ctx context.Context, p *models.Principal, format string) (*service.ExportFile, error) {
	return m.file("teacher_schedule_"+p.Username, format), nil
}

func (m *exportServiceMock) MyClassReport(ctx context.Context, p *models.Principal) (*service.ExportFile, error) {
	return m.file("my_class", service.FormatXLSX), nil
}

func TestExportHandlerStudentsAttachment(t *testing.T) {
	mockSvc := &exportServiceMock{}
	handler := NewExportHandler(mockSvc)

	c, w := newTestContext(http.MethodGet, "/admin/students/excel?search=9A&format=csv", nil)
	handler.Students(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "9A", mockSvc.lastSearch)
	assert.Equal(t, service.FormatCSV, mockSvc.lastFormat)
	assert.Equal(t, `attachment; filename="students.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "a,b\n", w.Body.String())
}

func TestExportHandlerDefaultsToXLSX(t *testing.T) {
	mockSvc := &exportServiceMock{}
	handler := NewExportHandler(mockSvc)

	c, w := newTestContext(http.MethodGet, "/admin/subjects/excel", nil)
	handler.Subjects(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.FormatXLSX, mockSvc.lastFormat)
}

func TestExportHandlerRejectsUnknownFormat(t *testing.T) {
	mockSvc := &exportServiceMock{}
	handler := NewExportHandler(mockSvc)

	c, w := newTestContext(http.MethodGet, "/admin/teachers/excel?format=docx", nil)
	handler.Teachers(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, mockSvc.called)
}

func TestExportHandlerSchedulesPassesFilter(t *testing.T) {
	mockSvc := &exportServiceMock{}
	handler := NewExportHandler(mockSvc)

	c, w := newTestContext(http.MethodGet, "/admin/schedules/excel?teacher=Иванова&day=Понедельник", nil)
	handler.Schedules(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Иванова", mockSvc.lastFilter.Teacher)
	assert.Equal(t, "Понедельник", mockSvc.lastFilter.Day)
}

func TestExportHandlerSubjectReport(t *testing.T) {
	mockSvc := &exportServiceMock{}
	handler := NewExportHandler(mockSvc)

	c, w := newTestContext(http.MethodGet, "/teacher/classes/2/subjects/3/report", nil)
	c.Params = gin.Params{{Key: "class_id", Value: "2"}, {Key: "subject_id", Value: "3"}}
	c.Set(middleware.ContextPrincipalKey, teacherPrincipal())
	handler.SubjectReport(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockSvc.called)
}

func TestExportHandlerTeacherScheduleNeedsPrincipal(t *testing.T) {
	mockSvc := &exportServiceMock{}
	handler := NewExportHandler(mockSvc)

	c, w := newTestContext(http.MethodGet, "/teacher/my_schedule/export", nil)
	handler.TeacherSchedule(c)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, mockSvc.called)
}
