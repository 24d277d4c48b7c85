package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/aristath/fundamentals/internal/modules/screener"
	"github.com/aristath/fundamentals/internal/modules/statements"
)

type mockFundamentals struct {
	mock.Mock
}

func (m *mockFundamentals) Reload(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockFundamentals) Screener(ctx context.Context, refresh bool) (*screener.Result, bool, error) {
	args := m.Called(ctx, refresh)
	res, _ := args.Get(0).(*screener.Result)
	return res, args.Bool(1), args.Error(2)
}

func TestReloadJob_Run(t *testing.T) {
	svc := new(mockFundamentals)
	svc.On("Reload", mock.Anything).Return(nil)
	svc.On("Screener", mock.Anything, true).Return(&screener.Result{Total: 2}, false, nil)

	job := NewReloadJob(svc, time.Minute, zerolog.Nop())
	assert.Equal(t, "statement_reload", job.Name())
	assert.NoError(t, job.Run())
	svc.AssertExpectations(t)
}

func TestReloadJob_Run_ReloadFails(t *testing.T) {
	svc := new(mockFundamentals)
	svc.On("Reload", mock.Anything).Return(errors.New("source unavailable"))

	job := NewReloadJob(svc, 0, zerolog.Nop())
	assert.EqualError(t, job.Run(), "source unavailable")
	svc.AssertNotCalled(t, "Screener", mock.Anything, mock.Anything)
}

func TestReloadJob_Run_AlreadyLoading(t *testing.T) {
	svc := new(mockFundamentals)
	svc.On("Reload", mock.Anything).Return(statements.ErrAlreadyLoading)

	job := NewReloadJob(svc, 0, zerolog.Nop())
	assert.NoError(t, job.Run())
	svc.AssertNotCalled(t, "Screener", mock.Anything, mock.Anything)
}

func TestReloadJob_Run_ScreenerFailureIsLogged(t *testing.T) {
	svc := new(mockFundamentals)
	svc.On("Reload", mock.Anything).Return(nil)
	svc.On("Screener", mock.Anything, true).Return(nil, false, errors.New("screener not configured"))

	job := NewReloadJob(svc, 0, zerolog.Nop())
	assert.NoError(t, job.Run())
	svc.AssertExpectations(t)
}
