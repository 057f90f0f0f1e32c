package chat

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ChanHyuk-YOO/Plannie/internal/domain"
)

// MockModel is a testify mock for the ModelClient port.
type MockModel struct {
	mock.Mock
}

func (m *MockModel) Complete(system, user string) (string, error) {
	args := m.Called(system, user)
	return args.String(0), args.Error(1)
}

func TestPipeline_CreateTurn(t *testing.T) {
	model := new(MockModel)
	repo := new(MockRepository)
	p := NewPipeline(model, fixedNormalizer(), repo)

	reply := "수학 공부 일정을 추가했어요!\n###COMMAND###\n" +
		`{"action":"생성","date":"2025-03-10","title":"수학 공부","start_time":"14:00","end_time":"16:00"}`
	model.On("Complete", SystemPrompt, "내일 2시부터 4시까지 수학 공부").Return(reply, nil)

	created := &domain.PlannerEntry{ID: "id-1", StartDay: "2025-03-10", EndDay: "2025-03-10", Title: "수학 공부"}
	repo.On("Insert", mock.Anything).Return(created, nil)

	outcome, err := p.Handle(owner, "내일 2시부터 4시까지 수학 공부")
	require.NoError(t, err)
	assert.Equal(t, owner, outcome.Command.UserEmail)
	assert.True(t, outcome.Command.IsCalendarCommand)
	// Create is not a list result, so the reply passes through untouched.
	assert.Equal(t, "수학 공부 일정을 추가했어요!", outcome.FinalResponse)
	assert.Equal(t, created, outcome.Result.Entry)
}

func TestPipeline_ReadTurnFormatsList(t *testing.T) {
	model := new(MockModel)
	repo := new(MockRepository)
	p := NewPipeline(model, fixedNormalizer(), repo)

	reply := "오늘 일정이에요.\n###COMMAND###\n" + `{"action":"조회","date":"2025-03-10"}`
	model.On("Complete", SystemPrompt, mock.Anything).Return(reply, nil)
	repo.On("FindByOwnerAndDate", owner, "2025-03-10").Return([]domain.PlannerEntry{
		{StartTime: "09:00", EndTime: "10:00", Title: "영어 공부"},
		{StartTime: "14:00", EndTime: "16:00", Title: "수학 공부"},
	}, nil)

	outcome, err := p.Handle(owner, "오늘 일정 알려줘")
	require.NoError(t, err)
	assert.Equal(t, "오늘 일정이에요.\n1. 09:00 ~ 10:00: 영어 공부\n2. 14:00 ~ 16:00: 수학 공부", outcome.FinalResponse)
}

func TestPipeline_MissingDelimiterSkipsRepository(t *testing.T) {
	model := new(MockModel)
	repo := new(MockRepository)
	p := NewPipeline(model, fixedNormalizer(), repo)

	model.On("Complete", SystemPrompt, mock.Anything).Return("그냥 자연어 응답", nil)

	_, err := p.Handle(owner, "아무거나")

	var extErr *ExtractionError
	require.ErrorAs(t, err, &extErr)
	repo.AssertNotCalled(t, "Insert")
	repo.AssertNotCalled(t, "FindByOwnerAndDate")
}

func TestPipeline_ModelFailureWrapped(t *testing.T) {
	model := new(MockModel)
	repo := new(MockRepository)
	p := NewPipeline(model, fixedNormalizer(), repo)

	boom := errors.New("connection refused")
	model.On("Complete", SystemPrompt, mock.Anything).Return("", boom)

	_, err := p.Handle(owner, "안녕")

	var modelErr *ModelUnavailableError
	require.ErrorAs(t, err, &modelErr)
	assert.ErrorIs(t, err, boom)
}
