package http

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vadimbarashkov/shortlinks/internal/entity"
	"github.com/vadimbarashkov/shortlinks/internal/usecase"
)

type MockShortener struct {
	mock.Mock
}

func (m *MockShortener) Shorten(ctx context.Context, p usecase.ShortenParams) (*entity.Link, error) {
	args := m.Called(ctx, p)
	link, _ := args.Get(0).(*entity.Link)
	return link, args.Error(1)
}

type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Resolve(ctx context.Context, code string) (string, error) {
	args := m.Called(ctx, code)
	return args.String(0), args.Error(1)
}

type MockQuery struct {
	mock.Mock
}

func (m *MockQuery) Stats(ctx context.Context, code, ownerID, baseURL string) (*entity.Link, error) {
	args := m.Called(ctx, code, ownerID, baseURL)
	link, _ := args.Get(0).(*entity.Link)
	return link, args.Error(1)
}

func (m *MockQuery) List(ctx context.Context, ownerID, baseURL string) ([]entity.Link, error) {
	args := m.Called(ctx, ownerID, baseURL)
	links, _ := args.Get(0).([]entity.Link)
	return links, args.Error(1)
}

func (m *MockQuery) Search(ctx context.Context, ownerID, query, baseURL string) ([]entity.Link, error) {
	args := m.Called(ctx, ownerID, query, baseURL)
	links, _ := args.Get(0).([]entity.Link)
	return links, args.Error(1)
}
