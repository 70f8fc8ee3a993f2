package usecase

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vadimbarashkov/shortlinks/internal/entity"
)

type MockURLRepository struct {
	mock.Mock
}

func (r *MockURLRepository) Reserve(ctx context.Context, code, longURL, ownerID string) (*entity.URL, error) {
	args := r.Called(ctx, code, longURL, ownerID)
	url, _ := args.Get(0).(*entity.URL)
	return url, args.Error(1)
}

func (r *MockURLRepository) Find(ctx context.Context, code string) (*entity.URL, error) {
	args := r.Called(ctx, code)
	url, _ := args.Get(0).(*entity.URL)
	return url, args.Error(1)
}

func (r *MockURLRepository) IncrementVisits(ctx context.Context, code string) error {
	args := r.Called(ctx, code)
	return args.Error(0)
}

func (r *MockURLRepository) ListByOwner(ctx context.Context, ownerID string) ([]entity.URL, error) {
	args := r.Called(ctx, ownerID)
	urls, _ := args.Get(0).([]entity.URL)
	return urls, args.Error(1)
}

func (r *MockURLRepository) SearchByOwner(ctx context.Context, ownerID, substr string) ([]entity.URL, error) {
	args := r.Called(ctx, ownerID, substr)
	urls, _ := args.Get(0).([]entity.URL)
	return urls, args.Error(1)
}

type MockCodeGenerator struct {
	mock.Mock
}

func (g *MockCodeGenerator) Generate() (string, error) {
	args := g.Called()
	return args.String(0), args.Error(1)
}

type fakeRecorder struct {
	results  []string
	failures int
}

func (r *fakeRecorder) ObserveShorten(result string) {
	r.results = append(r.results, result)
}

func (r *fakeRecorder) IncVisitFailure() {
	r.failures++
}
