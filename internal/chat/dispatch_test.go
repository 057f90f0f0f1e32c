package chat

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ChanHyuk-YOO/Plannie/internal/domain"
)

// MockRepository is a testify mock for the Repository port.
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Insert(entry *domain.PlannerEntry) (*domain.PlannerEntry, error) {
	args := m.Called(entry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PlannerEntry), args.Error(1)
}

func (m *MockRepository) FindOne(id, owner string) (*domain.PlannerEntry, error) {
	args := m.Called(id, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PlannerEntry), args.Error(1)
}

func (m *MockRepository) FindByOwnerAndDate(owner, date string) ([]domain.PlannerEntry, error) {
	args := m.Called(owner, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PlannerEntry), args.Error(1)
}

func (m *MockRepository) FindByOwnerAndRange(owner string, r domain.DateRange) ([]domain.PlannerEntry, error) {
	args := m.Called(owner, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PlannerEntry), args.Error(1)
}

func (m *MockRepository) Update(entry *domain.PlannerEntry, patch domain.EntryPatch) (*domain.PlannerEntry, error) {
	args := m.Called(entry, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PlannerEntry), args.Error(1)
}

func (m *MockRepository) Destroy(entry *domain.PlannerEntry) error {
	args := m.Called(entry)
	return args.Error(0)
}

const owner = "user@plannie.app"

func TestDispatch_CreateMapsCommandToEntry(t *testing.T) {
	repo := new(MockRepository)
	d := NewDispatcher(repo)

	created := &domain.PlannerEntry{ID: "id-1", StartDay: "2025-03-10", EndDay: "2025-03-10", Title: "수학 공부"}
	repo.On("Insert", mock.MatchedBy(func(e *domain.PlannerEntry) bool {
		return e.OwnerEmail == owner &&
			e.StartDay == "2025-03-10" && e.EndDay == "2025-03-10" &&
			e.Title == "수학 공부" && e.StartTime == "14:00" && e.EndTime == "16:00"
	})).Return(created, nil)

	res, err := d.Dispatch(&domain.Command{
		Action: domain.ActionCreate, UserEmail: owner,
		Date: "2025-03-10", Title: "수학 공부", StartTime: "14:00", EndTime: "16:00",
		Notification: domain.NoneValue, Repeat: domain.NoneValue,
	})
	require.NoError(t, err)
	assert.Equal(t, created, res.Entry)
	require.Len(t, res.Events, 1)
	assert.Equal(t, TopicPlanner, res.Events[0].Topic)
	repo.AssertExpectations(t)
}

func TestDispatch_ReadEmptyDayIsNotAnError(t *testing.T) {
	repo := new(MockRepository)
	d := NewDispatcher(repo)

	repo.On("FindByOwnerAndDate", owner, "2025-03-10").Return([]domain.PlannerEntry(nil), nil)

	res, err := d.Dispatch(&domain.Command{Action: domain.ActionRead, UserEmail: owner, Date: "2025-03-10"})
	require.NoError(t, err)
	assert.NotNil(t, res.Entries)
	assert.Empty(t, res.Entries)
	assert.False(t, res.NoEntries)
}

func TestDispatch_UpdateNotFound(t *testing.T) {
	repo := new(MockRepository)
	d := NewDispatcher(repo)

	repo.On("FindOne", "missing", owner).Return(nil, domain.ErrNotFound)

	_, err := d.Dispatch(&domain.Command{
		Action: domain.ActionUpdate, UserEmail: owner, ID: "missing",
		Date: "2025-03-10", Title: "공부", StartTime: "14:00", EndTime: "16:00",
	})

	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, "missing", nfErr.ID)
	repo.AssertNotCalled(t, "Update")
}

func TestDispatch_DeleteByID(t *testing.T) {
	repo := new(MockRepository)
	d := NewDispatcher(repo)

	entry := &domain.PlannerEntry{ID: "id-1", OwnerEmail: owner, StartDay: "2025-03-10", Title: "수학 공부"}
	repo.On("FindOne", "id-1", owner).Return(entry, nil)
	repo.On("Destroy", entry).Return(nil)

	res, err := d.Dispatch(&domain.Command{Action: domain.ActionDelete, UserEmail: owner, ID: "id-1"})
	require.NoError(t, err)
	assert.Equal(t, entry, res.Entry)
	repo.AssertExpectations(t)
}

func TestDispatch_DeleteFallbackResolvesSingleMatch(t *testing.T) {
	repo := new(MockRepository)
	d := NewDispatcher(repo)

	target := domain.PlannerEntry{ID: "id-2", OwnerEmail: owner, StartDay: "2025-03-10", StartTime: "14:00", Title: "수학 공부"}
	day := []domain.PlannerEntry{
		{ID: "id-1", OwnerEmail: owner, StartTime: "09:00", Title: "영어 공부"},
		target,
	}
	repo.On("FindByOwnerAndDate", owner, "2025-03-10").Return(day, nil)
	repo.On("FindOne", "id-2", owner).Return(&target, nil)
	repo.On("Destroy", &target).Return(nil)

	res, err := d.Dispatch(&domain.Command{
		Action: domain.ActionDelete, UserEmail: owner,
		Date: "2025-03-10", Title: "수학 공부",
	})
	require.NoError(t, err)
	assert.Equal(t, "id-2", res.Entry.ID)
	repo.AssertExpectations(t)
}

func TestDispatch_DeleteFallbackTieBreaksByStartTime(t *testing.T) {
	repo := new(MockRepository)
	d := NewDispatcher(repo)

	// The repository returns the day in ascending start-time order, so
	// the earliest of the two same-titled entries wins.
	early := domain.PlannerEntry{ID: "id-early", OwnerEmail: owner, StartTime: "09:00", Title: "수학 공부"}
	late := domain.PlannerEntry{ID: "id-late", OwnerEmail: owner, StartTime: "14:00", Title: "수학 공부"}
	repo.On("FindByOwnerAndDate", owner, "2025-03-10").Return([]domain.PlannerEntry{early, late}, nil)
	repo.On("FindOne", "id-early", owner).Return(&early, nil)
	repo.On("Destroy", &early).Return(nil)

	res, err := d.Dispatch(&domain.Command{
		Action: domain.ActionDelete, UserEmail: owner,
		Date: "2025-03-10", Title: "수학 공부",
	})
	require.NoError(t, err)
	assert.Equal(t, "id-early", res.Entry.ID)
	repo.AssertExpectations(t)
}

func TestDispatch_DeleteFallbackNoMatch(t *testing.T) {
	repo := new(MockRepository)
	d := NewDispatcher(repo)

	day := []domain.PlannerEntry{{ID: "id-1", StartTime: "09:00", Title: "영어 공부"}}
	repo.On("FindByOwnerAndDate", owner, "2025-03-10").Return(day, nil)

	_, err := d.Dispatch(&domain.Command{
		Action: domain.ActionDelete, UserEmail: owner,
		Date: "2025-03-10", Title: "수학 공부",
	})

	var ambErr *AmbiguousDeleteError
	require.ErrorAs(t, err, &ambErr)
	assert.Equal(t, "수학 공부", ambErr.Title)
	assert.Equal(t, "2025-03-10", ambErr.Date)
	repo.AssertNotCalled(t, "Destroy")
}

func TestDispatch_MonthReadRangeAndOrder(t *testing.T) {
	repo := new(MockRepository)
	d := NewDispatcher(repo)

	entries := []domain.PlannerEntry{
		{ID: "a", StartDay: "2025-02-03", StartTime: "09:00"},
		{ID: "b", StartDay: "2025-02-28", StartTime: "14:00"},
	}
	repo.On("FindByOwnerAndRange", owner, domain.DateRange{From: "2025-02-01", To: "2025-02-28"}).
		Return(entries, nil)

	res, err := d.Dispatch(&domain.Command{Action: domain.ActionMonthRead, UserEmail: owner, Date: "2025-02"})
	require.NoError(t, err)
	assert.Equal(t, entries, res.Entries)
	assert.False(t, res.NoEntries)
	repo.AssertExpectations(t)
}

func TestDispatch_MonthReadEmptyMarker(t *testing.T) {
	repo := new(MockRepository)
	d := NewDispatcher(repo)

	repo.On("FindByOwnerAndRange", owner, domain.DateRange{From: "2025-03-01", To: "2025-03-31"}).
		Return([]domain.PlannerEntry{}, nil)

	res, err := d.Dispatch(&domain.Command{Action: domain.ActionMonthRead, UserEmail: owner, Date: "2025-03-15"})
	require.NoError(t, err)
	assert.True(t, res.NoEntries)
	assert.Empty(t, res.Entries)
}

func TestDispatch_StorageErrorWrapping(t *testing.T) {
	repo := new(MockRepository)
	d := NewDispatcher(repo)

	boom := errors.New("disk on fire")
	repo.On("FindByOwnerAndDate", owner, "2025-03-10").Return(nil, boom)

	_, err := d.Dispatch(&domain.Command{Action: domain.ActionRead, UserEmail: owner, Date: "2025-03-10"})

	var storErr *StorageError
	require.ErrorAs(t, err, &storErr)
	assert.ErrorIs(t, err, boom)
}

func TestMonthRange_LeapFebruary(t *testing.T) {
	r, err := monthRange("2024-02")
	require.NoError(t, err)
	assert.Equal(t, domain.DateRange{From: "2024-02-01", To: "2024-02-29"}, r)
}
