package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-diary-api/internal/dto"
	"github.com/noah-isme/school-diary-api/internal/middleware"
	"github.com/noah-isme/school-diary-api/internal/models"
	appErrors "github.com/noah-isme/school-diary-api/pkg/errors"
)

type gradebookServiceMock struct {
	grades       []models.Grade
	gradesErr    error
	createResp   *models.Grade
	createErr    error
	updateResp   *dto.UpdateResult
	lastClassID  int64
	lastGradeID  int64
	lastCreate   dto.CreateGradeRequest
	lastCaller   *models.Principal
	createCalled bool
}

func (m *gradebookServiceMock) ClassGrades(ctx context.Context, p *models.Principal, classID int64) ([]models.Grade, error) {
	m.lastCaller = p
	m.lastClassID = classID
	return m.grades, m.gradesErr
}

func (m *gradebookServiceMock) CreateGrade(ctx context.Context, p *models.Principal, req dto.CreateGradeRequest) (*models.Grade, error) {
	m.createCalled = true
	m.lastCreate = req
	return m.createResp, m.createErr
}

func (m *gradebookServiceMock) UpdateGrade(ctx context.Context, p *models.Principal, gradeID int64, req dto.UpdateGradeRequest) (*dto.UpdateResult, error) {
	m.lastGradeID = gradeID
	return m.updateResp, nil
}

func (m *gradebookServiceMock) DeleteGrade(ctx context.Context, p *models.Principal, gradeID int64) error {
	m.lastGradeID = gradeID
	return nil
}

func (m *gradebookServiceMock) ClassHomework(ctx context.Context, p *models.Principal, classID int64) ([]models.Homework, error) {
	return nil, nil
}

func (m *gradebookServiceMock) CreateHomework(ctx context.Context, p *models.Principal, req dto.CreateHomeworkRequest) (*models.Homework, error) {
	return &models.Homework{}, nil
}

func (m *gradebookServiceMock) ClassAttendance(ctx context.Context, p *models.Principal, classID int64) ([]models.Attendance, error) {
	return nil, nil
}

func (m *gradebookServiceMock) CreateAttendance(ctx context.Context, p *models.Principal, req dto.CreateAttendanceRequest) (*models.Attendance, error) {
	return &models.Attendance{}, nil
}

func (m *gradebookServiceMock) UpdateAttendance(ctx context.Context, p *models.Principal, id int64, req dto.UpdateAttendanceRequest) (*dto.UpdateResult, error) {
	return &dto.UpdateResult{ID: id}, nil
}

func teacherPrincipal() *models.Principal {
	return &models.Principal{UserID: 7, Username: "ivanova", Role: models.RoleTeacher, RoleID: 3, Position: "Учитель"}
}

func newTestContext(method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, target, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.Request = req
	return c, w
}

func TestGradebookHandlerListGrades(t *testing.T) {
	mockSvc := &gradebookServiceMock{grades: []models.Grade{{ID: 1, Grade: 5}}}
	handler := NewGradebookHandler(mockSvc)

	c, w := newTestContext(http.MethodGet, "/teacher/grades/4", nil)
	c.Params = gin.Params{{Key: "class_id", Value: "4"}}
	c.Set(middleware.ContextPrincipalKey, teacherPrincipal())

	handler.ListGrades(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(4), mockSvc.lastClassID)
	assert.Equal(t, int64(7), mockSvc.lastCaller.UserID)
}

func TestGradebookHandlerListGradesForbidden(t *testing.T) {
	mockSvc := &gradebookServiceMock{gradesErr: appErrors.Clone(appErrors.ErrForbidden, "no access to class")}
	handler := NewGradebookHandler(mockSvc)

	c, w := newTestContext(http.MethodGet, "/teacher/grades/4", nil)
	c.Params = gin.Params{{Key: "class_id", Value: "4"}}
	c.Set(middleware.ContextPrincipalKey, teacherPrincipal())

	handler.ListGrades(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestGradebookHandlerRequiresPrincipal(t *testing.T) {
	handler := NewGradebookHandler(&gradebookServiceMock{})

	c, w := newTestContext(http.MethodGet, "/teacher/grades/4", nil)
	c.Params = gin.Params{{Key: "class_id", Value: "4"}}

	handler.ListGrades(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGradebookHandlerInvalidClassID(t *testing.T) {
	handler := NewGradebookHandler(&gradebookServiceMock{})

	c, w := newTestContext(http.MethodGet, "/teacher/grades/abc", nil)
	c.Params = gin.Params{{Key: "class_id", Value: "abc"}}
	c.Set(middleware.ContextPrincipalKey, teacherPrincipal())

	handler.ListGrades(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGradebookHandlerCreateGrade(t *testing.T) {
	mockSvc := &gradebookServiceMock{createResp: &models.Grade{ID: 10, Grade: 4}}
	handler := NewGradebookHandler(mockSvc)

	payload, _ := json.Marshal(dto.CreateGradeRequest{StudentID: 2, SubjectID: 3, Grade: 4, Date: "2024-09-02"})
	c, w := newTestContext(http.MethodPost, "/teacher/grades", payload)
	c.Set(middleware.ContextPrincipalKey, teacherPrincipal())

	handler.CreateGrade(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, mockSvc.createCalled)
	assert.Equal(t, 4, mockSvc.lastCreate.Grade)
}

func TestGradebookHandlerCreateGradeUnsupportedMedia(t *testing.T) {
	mockSvc := &gradebookServiceMock{}
	handler := NewGradebookHandler(mockSvc)

	c, w := newTestContext(http.MethodPost, "/teacher/grades", []byte("grade=4"))
	c.Request.Header.Set("Content-Type", "text/plain")
	c.Set(middleware.ContextPrincipalKey, teacherPrincipal())

	handler.CreateGrade(c)
	require.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	assert.False(t, mockSvc.createCalled)
}

func TestGradebookHandlerUpdateGrade(t *testing.T) {
	mockSvc := &gradebookServiceMock{updateResp: &dto.UpdateResult{Message: "grade updated", ID: 9, UpdatedFields: []string{"grade"}}}
	handler := NewGradebookHandler(mockSvc)

	c, w := newTestContext(http.MethodPut, "/teacher/grades/9", []byte(`{"grade":3}`))
	c.Params = gin.Params{{Key: "grade_id", Value: "9"}}
	c.Set(middleware.ContextPrincipalKey, teacherPrincipal())

	handler.UpdateGrade(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(9), mockSvc.lastGradeID)
	assert.Contains(t, w.Body.String(), "updated_fields")
}
