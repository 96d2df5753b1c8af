package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Anvoria/sessionly/internal/utils/testdb"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, event *Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]Event, error) {
	args := m.Called(ctx, accountID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Event), args.Error(1)
}

func TestRecorder_Record(t *testing.T) {
	db := testdb.Setup(t, &Event{})
	repo := NewRepository(db)
	recorder := NewRecorder(repo)

	accountID := uuid.New()
	recorder.Record(context.Background(), Entry{
		AccountID:    accountID,
		SessionToken: "sid-1",
		Action:       ActionLogin,
		Origin:       "10.0.0.1",
		Metadata:     map[string]any{"revoked": 2},
	})
	recorder.Record(context.Background(), Entry{
		AccountID: accountID,
		Action:    ActionLogout,
		Origin:    "10.0.0.1",
	})

	events, err := repo.ListByAccount(context.Background(), accountID, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)

	actions := []Action{events[0].Action, events[1].Action}
	assert.ElementsMatch(t, []Action{ActionLogin, ActionLogout}, actions)

	for _, ev := range events {
		if ev.Action != ActionLogin {
			assert.Nil(t, ev.SessionToken)
			continue
		}
		require.NotNil(t, ev.SessionToken)
		assert.Equal(t, "sid-1", *ev.SessionToken)
		assert.EqualValues(t, 2, ev.Metadata["revoked"])
	}
}

func TestRecorder_CanceledContext(t *testing.T) {
	repo := new(MockRepository)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*audit.Event")).
		Run(func(args mock.Arguments) {
			ctx := args.Get(0).(context.Context)
			assert.NoError(t, ctx.Err(), "record must not inherit cancellation")
		}).
		Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	NewRecorder(repo).Record(ctx, Entry{Action: ActionLoginFailed, Origin: "local"})
	repo.AssertExpectations(t)
}

func TestRecorder_FailureIsSwallowed(t *testing.T) {
	repo := new(MockRepository)
	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))

	assert.NotPanics(t, func() {
		NewRecorder(repo).Record(context.Background(), Entry{Action: ActionRevoke})
	})
	repo.AssertExpectations(t)

	var nilRecorder *Recorder
	assert.NotPanics(t, func() {
		nilRecorder.Record(context.Background(), Entry{Action: ActionRevoke})
	})
}
