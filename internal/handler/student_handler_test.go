package handler

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-diary-api/internal/dto"
	"github.com/noah-isme/school-diary-api/internal/models"
	appErrors "github.com/noah-isme/school-diary-api/pkg/errors"
	"github.com/noah-isme/school-diary-api/pkg/storage"
)

type studentServiceMock struct {
	createErr  error
	lastCreate dto.CreateStudentRequest
	lastPatch  dto.PatchStudentRequest
	deleted    int64
}

func (m *studentServiceMock) List(ctx context.Context, search string) ([]models.StudentRecord, error) {
	return nil, nil
}

func (m *studentServiceMock) Get(ctx context.Context, studentID int64) (*dto.StudentDetail, error) {
	return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
}

func (m *studentServiceMock) Create(ctx context.Context, req dto.CreateStudentRequest) (*dto.StudentCreated, error) {
	m.lastCreate = req
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &dto.StudentCreated{UserID: 1, StudentID: 1, Username: req.Username}, nil
}

func (m *studentServiceMock) Patch(ctx context.Context, studentID int64, req dto.PatchStudentRequest) (*dto.UpdateResult, error) {
	m.lastPatch = req
	return &dto.UpdateResult{ID: studentID}, nil
}

func (m *studentServiceMock) Delete(ctx context.Context, studentID int64) error {
	m.deleted = studentID
	return nil
}

type imageStoreMock struct {
	saved   string
	deleted []string
	err     error
}

func (m *imageStoreMock) SaveImage(originalName string, r io.Reader) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	_, _ = io.Copy(io.Discard, r)
	m.saved = "stored-" + originalName
	return m.saved, nil
}

func (m *imageStoreMock) Delete(filename string) error {
	m.deleted = append(m.deleted, filename)
	return nil
}

func multipartBody(t *testing.T, fields map[string]string, fileName string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	if fileName != "" {
		part, err := writer.CreateFormFile(pictureField, fileName)
		require.NoError(t, err)
		_, _ = part.Write([]byte("\x89PNG\r\n\x1a\n"))
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

var studentFields = map[string]string{
	"username":     "petrov",
	"password":     "secret",
	"first_name":   "Пётр",
	"last_name":    "Петров",
	"email":        "petrov@example.com",
	"phone_number": "+79990000000",
	"class_id":     "2",
	"birth_date":   "2010-05-01",
	"address":      "Lenina 1",
}

func TestStudentHandlerCreateMultipart(t *testing.T) {
	mockSvc := &studentServiceMock{}
	images := &imageStoreMock{}
	handler := NewStudentHandler(mockSvc, images)

	body, contentType := multipartBody(t, studentFields, "me.png")
	c, w := newTestContext(http.MethodPost, "/admin/student", nil)
	c.Request, _ = http.NewRequest(http.MethodPost, "/admin/student", body)
	c.Request.Header.Set("Content-Type", contentType)

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, int64(2), mockSvc.lastCreate.ClassID)
	require.NotNil(t, mockSvc.lastCreate.ProfilePicture)
	assert.Equal(t, "stored-me.png", *mockSvc.lastCreate.ProfilePicture)
	assert.Contains(t, w.Body.String(), `"student"`)
}

func TestStudentHandlerCreateFailureDiscardsPicture(t *testing.T) {
	mockSvc := &studentServiceMock{createErr: appErrors.Clone(appErrors.ErrValidation, "username already taken")}
	images := &imageStoreMock{}
	handler := NewStudentHandler(mockSvc, images)

	body, contentType := multipartBody(t, studentFields, "me.png")
	c, w := newTestContext(http.MethodPost, "/admin/student", nil)
	c.Request, _ = http.NewRequest(http.MethodPost, "/admin/student", body)
	c.Request.Header.Set("Content-Type", contentType)

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []string{"stored-me.png"}, images.deleted)
}

func TestStudentHandlerRejectsUnsupportedPicture(t *testing.T) {
	mockSvc := &studentServiceMock{}
	images := &imageStoreMock{err: storage.ErrUnsupportedFile}
	handler := NewStudentHandler(mockSvc, images)

	body, contentType := multipartBody(t, studentFields, "me.exe")
	c, w := newTestContext(http.MethodPost, "/admin/student", nil)
	c.Request, _ = http.NewRequest(http.MethodPost, "/admin/student", body)
	c.Request.Header.Set("Content-Type", contentType)

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, mockSvc.lastCreate.Username)
}

func TestStudentHandlerCreateUnsupportedMediaType(t *testing.T) {
	handler := NewStudentHandler(&studentServiceMock{}, nil)

	c, w := newTestContext(http.MethodPost, "/admin/student", []byte("<student/>"))
	c.Request.Header.Set("Content-Type", "application/xml")

	handler.Create(c)
	require.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestStudentHandlerPatchJSON(t *testing.T) {
	mockSvc := &studentServiceMock{}
	handler := NewStudentHandler(mockSvc, nil)

	c, w := newTestContext(http.MethodPatch, "/admin/student/5", []byte(`{"address":"Mira 3","first_name":"Иван"}`))
	c.Params = gin.Params{{Key: "id", Value: "5"}}

	handler.Patch(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, mockSvc.lastPatch.Address)
	assert.Equal(t, "Mira 3", *mockSvc.lastPatch.Address)
	require.NotNil(t, mockSvc.lastPatch.FirstName)
	assert.Nil(t, mockSvc.lastPatch.ProfilePicture)
}

func TestStudentHandlerGetNotFound(t *testing.T) {
	handler := NewStudentHandler(&studentServiceMock{}, nil)

	c, w := newTestContext(http.MethodGet, "/admin/student/99", nil)
	c.Params = gin.Params{{Key: "id", Value: "99"}}

	handler.Get(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestStudentHandlerDelete(t *testing.T) {
	mockSvc := &studentServiceMock{}
	handler := NewStudentHandler(mockSvc, nil)

	c, w := newTestContext(http.MethodDelete, "/admin/student/3", nil)
	c.Params = gin.Params{{Key: "id", Value: "3"}}

	handler.Delete(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(3), mockSvc.deleted)
}
