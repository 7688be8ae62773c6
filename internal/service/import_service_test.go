package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scolara/scolara-api/internal/models"
	appErrors "github.com/scolara/scolara-api/pkg/errors"
)

type mockStudentCreator struct {
	requests []CreateStudentRequest
	failOn   map[string]string
}

func (m *mockStudentCreator) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if msg, ok := m.failOn[req.Email]; ok {
		return nil, appErrors.Clone(appErrors.ErrConflict, msg)
	}
	m.requests = append(m.requests, req)
	return &models.Student{ID: "student-new", Email: req.Email}, nil
}

func TestImportStudents(t *testing.T) {
	csvData := strings.Join([]string{
		"full_name,email,password,cin,phone,group_id",
		"Amine Kacem,amine@example.com,secret123,AB1234,,group-1",
		"Lina Ben Salah,lina@example.com,secret456,,+21620000000,",
	}, "\n")
	creator := &mockStudentCreator{}
	svc := NewImportService(creator, nil)

	result, err := svc.ImportStudents(context.Background(), strings.NewReader(csvData))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 2, result.Created)
	assert.Empty(t, result.Errors)

	require.Len(t, creator.requests, 2)
	first := creator.requests[0]
	assert.Equal(t, "Amine Kacem", first.FullName)
	require.NotNil(t, first.CIN)
	assert.Equal(t, "AB1234", *first.CIN)
	assert.Nil(t, first.Phone)
	require.NotNil(t, first.GroupID)
	assert.Equal(t, "group-1", *first.GroupID)

	second := creator.requests[1]
	assert.Nil(t, second.CIN)
	require.NotNil(t, second.Phone)
	assert.Nil(t, second.GroupID)
}

func TestImportStudentsKeepsGoingAfterRowError(t *testing.T) {
	csvData := strings.Join([]string{
		"full_name,email,password,cin,phone,group_id",
		"Amine Kacem,amine@example.com,secret123,,,",
		"Dup Student,dup@example.com,secret123,,,",
		"Lina Ben Salah,lina@example.com,secret456,,,",
	}, "\n")
	creator := &mockStudentCreator{failOn: map[string]string{"dup@example.com": "email already in use"}}
	svc := NewImportService(creator, nil)

	result, err := svc.ImportStudents(context.Background(), strings.NewReader(csvData))
	require.NoError(t, err)
	assert.Equal(t, 3, result.Processed)
	assert.Equal(t, 2, result.Created)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 3, result.Errors[0].Line)
	assert.Equal(t, "email already in use", result.Errors[0].Message)
}

func TestImportStudentsRejectsBadHeader(t *testing.T) {
	csvData := "name,email\nAmine,amine@example.com"
	svc := NewImportService(&mockStudentCreator{}, nil)

	_, err := svc.ImportStudents(context.Background(), strings.NewReader(csvData))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestImportStudentsEmptyFile(t *testing.T) {
	svc := NewImportService(&mockStudentCreator{}, nil)

	_, err := svc.ImportStudents(context.Background(), strings.NewReader(""))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestImportStudentsHeaderCaseInsensitive(t *testing.T) {
	csvData := strings.Join([]string{
		"Full_Name,Email,Password,CIN,Phone,Group_ID",
		"Amine Kacem,amine@example.com,secret123,,,",
	}, "\n")
	creator := &mockStudentCreator{}
	svc := NewImportService(creator, nil)

	result, err := svc.ImportStudents(context.Background(), strings.NewReader(csvData))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
}
