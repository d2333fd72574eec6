package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/Domenick1991/travelbooking/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockAuthUseCase struct {
	mock.Mock
}

func (m *MockAuthUseCase) Signup(ctx context.Context, input auth.SignupInput) (*auth.Session, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Session), args.Error(1)
}

func (m *MockAuthUseCase) Login(ctx context.Context, email, password string) (*auth.Session, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Session), args.Error(1)
}

func TestAuthHandler_signup(t *testing.T) {
	service := &MockAuthUseCase{}
	input := auth.SignupInput{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Password: "correct horse"}
	service.On("Signup", mock.Anything, input).
		Return(&auth.Session{User: &domain.User{ID: 7, Email: "ada@example.com"}, Token: "jwt"}, nil).Once()
	engine := newEngine("/auth", NewAuthHandler(service).Register)

	w := perform(engine, http.MethodPost, "/auth/signup", "", input)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"token":"jwt"`)
	assert.NotContains(t, w.Body.String(), "password")

	w = perform(engine, http.MethodPost, "/auth/signup", "", auth.SignupInput{FirstName: "Ada", Email: "not-an-email", Password: "correct horse"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	service.AssertExpectations(t)
}

func TestAuthHandler_signup_EmailTaken(t *testing.T) {
	service := &MockAuthUseCase{}
	service.On("Signup", mock.Anything, mock.Anything).Return(nil, domain.ErrEmailTaken).Once()
	engine := newEngine("/auth", NewAuthHandler(service).Register)

	w := perform(engine, http.MethodPost, "/auth/signup", "", auth.SignupInput{FirstName: "Ada", Email: "ada@example.com", Password: "correct horse"})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "email already registered", errorBody(t, w))
}

func TestAuthHandler_login(t *testing.T) {
	service := &MockAuthUseCase{}
	service.On("Login", mock.Anything, "ada@example.com", "wrong").Return(nil, domain.ErrInvalidCredentials).Once()
	service.On("Login", mock.Anything, "ada@example.com", "right").Return(&auth.Session{Token: "jwt"}, nil).Once()
	engine := newEngine("/auth", NewAuthHandler(service).Register)

	w := perform(engine, http.MethodPost, "/auth/login", "", loginRequest{Email: "ada@example.com", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid credentials", errorBody(t, w))

	w = perform(engine, http.MethodPost, "/auth/login", "", loginRequest{Email: "ada@example.com", Password: "right"})
	assert.Equal(t, http.StatusOK, w.Code)
	service.AssertExpectations(t)
}
