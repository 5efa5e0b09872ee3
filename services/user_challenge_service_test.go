package services

import (
	"context"
	"santaAPI/internal/category"
	"santaAPI/internal/challenge"
	"santaAPI/internal/exception"
	"santaAPI/internal/meeting"
	"santaAPI/internal/mountain"
	"santaAPI/internal/user"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, time.May, 18, 15, 42, 7, 0, time.UTC)

type userChallengeFixture struct {
	svc            *UserChallengeService
	tx             *fakeTx
	challenges     *fakeChallengeRepository
	userChallenges *fakeUserChallengeRepository
}

func newUserChallengeFixture(chs []*challenge.Challenge, existing ...*challenge.UserChallenge) *userChallengeFixture {
	hiking := category.Category{ID: 1, Name: "등산"}
	healing := category.Category{ID: 2, Name: "힐링"}

	f := &userChallengeFixture{
		tx:             &fakeTx{},
		challenges:     newFakeChallengeRepository(chs...),
		userChallenges: newFakeUserChallengeRepository(existing...),
	}
	users := newFakeUserRepository(&user.User{ID: 1, Email: "test@example.com", Nickname: "tester"})
	visits := &fakeUserMountainRepository{visits: map[int64]*mountain.UserMountain{
		1: {ID: 1, UserID: 1, MountainID: 7, ClimbDate: fixedNow, Category: hiking},
	}}
	meetings := &fakeMeetingRepository{meetings: map[int64]*meeting.Meeting{
		1: {ID: 1, Name: "주말 힐링 모임", Category: healing},
	}}

	f.svc = NewUserChallengeService(f.tx, users, visits, meetings, f.challenges, f.userChallenges)
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func hikingChallenge(id int64, clearStandard int) *challenge.Challenge {
	return &challenge.Challenge{ID: id, Name: "등산 챌린지", ClearStandard: clearStandard,
		Category: category.Category{ID: 1, Name: "등산"}}
}

func healingChallenge(id int64, clearStandard int) *challenge.Challenge {
	return &challenge.Challenge{ID: id, Name: "힐링 챌린지", ClearStandard: clearStandard,
		Category: category.Category{ID: 2, Name: "힐링"}}
}

func boolPtr(b bool) *bool { return &b }

func TestUpdateProgress_CreatesNewRecord(t *testing.T) {
	f := newUserChallengeFixture([]*challenge.Challenge{hikingChallenge(1, 10)})

	err := f.svc.UpdateProgress(context.Background(), "test@example.com", 1)

	require.NoError(t, err)
	require.Len(t, f.userChallenges.saved, 2)
	first := f.userChallenges.saved[0]
	assert.Equal(t, 1, first.Progress)
	require.NotNil(t, first.IsCompleted)
	assert.False(t, *first.IsCompleted)
	assert.Nil(t, first.CompletionDate)
	assert.Equal(t, int64(1), first.UserID)
	assert.Equal(t, int64(1), first.ChallengeID)
	assert.Equal(t, 1, f.tx.calls)
}

func TestUpdateProgress_CompletesAtClearStandard(t *testing.T) {
	existing := &challenge.UserChallenge{ID: 5, UserID: 1, ChallengeID: 1, Progress: 9, IsCompleted: boolPtr(false)}
	f := newUserChallengeFixture([]*challenge.Challenge{hikingChallenge(1, 10)}, existing)

	err := f.svc.UpdateProgress(context.Background(), "test@example.com", 1)

	require.NoError(t, err)
	require.Len(t, f.userChallenges.saved, 1)
	got := f.userChallenges.saved[0]
	assert.Equal(t, 10, got.Progress)
	require.NotNil(t, got.IsCompleted)
	assert.True(t, *got.IsCompleted)
	require.NotNil(t, got.CompletionDate)
	assert.Equal(t, time.Date(2024, time.May, 18, 0, 0, 0, 0, time.UTC), *got.CompletionDate)
}

func TestUpdateProgress_IncrementsInProgressRecord(t *testing.T) {
	existing := &challenge.UserChallenge{ID: 5, UserID: 1, ChallengeID: 1, Progress: 3, IsCompleted: boolPtr(false)}
	f := newUserChallengeFixture([]*challenge.Challenge{hikingChallenge(1, 10)}, existing)

	require.NoError(t, f.svc.UpdateProgress(context.Background(), "test@example.com", 1))

	require.Len(t, f.userChallenges.saved, 1)
	got := f.userChallenges.saved[0]
	assert.Equal(t, 4, got.Progress)
	assert.False(t, got.Completed())
	assert.Nil(t, got.CompletionDate)
}

func TestUpdateProgress_ClampsOvershoot(t *testing.T) {
	// clear standard lowered below the recorded progress
	existing := &challenge.UserChallenge{ID: 5, UserID: 1, ChallengeID: 1, Progress: 7, IsCompleted: boolPtr(false)}
	f := newUserChallengeFixture([]*challenge.Challenge{hikingChallenge(1, 5)}, existing)

	require.NoError(t, f.svc.UpdateProgress(context.Background(), "test@example.com", 1))

	require.Len(t, f.userChallenges.saved, 1)
	assert.Equal(t, 5, f.userChallenges.saved[0].Progress)
	assert.True(t, f.userChallenges.saved[0].Completed())
}

func TestUpdateProgress_NewRecordCompletesImmediately(t *testing.T) {
	f := newUserChallengeFixture([]*challenge.Challenge{hikingChallenge(1, 1)})

	require.NoError(t, f.svc.UpdateProgress(context.Background(), "test@example.com", 1))

	require.Len(t, f.userChallenges.saved, 2)
	last := f.userChallenges.saved[1]
	assert.Equal(t, 1, last.Progress)
	assert.True(t, last.Completed())
	require.NotNil(t, last.CompletionDate)
	assert.Equal(t, f.userChallenges.saved[0].ID, last.ID)
}

func TestUpdateProgress_SkipsCompletedRecord(t *testing.T) {
	done := time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC)
	existing := &challenge.UserChallenge{ID: 5, UserID: 1, ChallengeID: 1, Progress: 10,
		IsCompleted: boolPtr(true), CompletionDate: &done}
	f := newUserChallengeFixture([]*challenge.Challenge{hikingChallenge(1, 10)}, existing)

	require.NoError(t, f.svc.UpdateProgress(context.Background(), "test@example.com", 1))

	assert.Empty(t, f.userChallenges.saved)
	stored, err := f.userChallenges.FindByUserAndChallengeID(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 10, stored.Progress)
	assert.Equal(t, done, *stored.CompletionDate)
}

func TestUpdateProgress_UserNotFound(t *testing.T) {
	f := newUserChallengeFixture([]*challenge.Challenge{hikingChallenge(1, 10)})

	err := f.svc.UpdateProgress(context.Background(), "invalid@example.com", 1)

	require.Error(t, err)
	assert.Equal(t, "존재하지 않는 회원입니다.", err.Error())
	assert.Empty(t, f.userChallenges.saved)
}

func TestUpdateProgress_UserMountainNotFound(t *testing.T) {
	f := newUserChallengeFixture([]*challenge.Challenge{hikingChallenge(1, 10)})

	err := f.svc.UpdateProgress(context.Background(), "test@example.com", 999)

	require.Error(t, err)
	assert.Equal(t, "존재하지 않는 유저 등산 정보입니다.", err.Error())
	assert.ErrorIs(t, err, exception.New(exception.UserMountainNotFound))
	assert.Empty(t, f.userChallenges.saved)
}

func TestUpdateProgress_SaveFailurePropagates(t *testing.T) {
	f := newUserChallengeFixture([]*challenge.Challenge{hikingChallenge(1, 10)})
	f.userChallenges.saveErr = errStoreDown

	err := f.svc.UpdateProgress(context.Background(), "test@example.com", 1)

	assert.ErrorIs(t, err, errStoreDown)
	_, ok := exception.As(err)
	assert.False(t, ok)
}

func TestUpdateUserChallengeOnMeetingJoin_CreatesNewRecord(t *testing.T) {
	f := newUserChallengeFixture([]*challenge.Challenge{healingChallenge(1, 10)})

	err := f.svc.UpdateUserChallengeOnMeetingJoin(context.Background(), 1, 1)

	require.NoError(t, err)
	require.Len(t, f.userChallenges.saved, 2)
	first := f.userChallenges.saved[0]
	assert.Equal(t, 1, first.Progress)
	assert.Nil(t, first.IsCompleted)
	assert.Nil(t, f.userChallenges.saved[1].IsCompleted)
}

func TestUpdateUserChallengeOnMeetingJoin_Completes(t *testing.T) {
	existing := &challenge.UserChallenge{ID: 5, UserID: 1, ChallengeID: 1, Progress: 9}
	f := newUserChallengeFixture([]*challenge.Challenge{healingChallenge(1, 10)}, existing)

	require.NoError(t, f.svc.UpdateUserChallengeOnMeetingJoin(context.Background(), 1, 1))

	require.Len(t, f.userChallenges.saved, 1)
	got := f.userChallenges.saved[0]
	assert.Equal(t, 10, got.Progress)
	assert.True(t, got.Completed())
	assert.Equal(t, time.Date(2024, time.May, 18, 0, 0, 0, 0, time.UTC), *got.CompletionDate)
}

func TestUpdateUserChallengeOnMeetingJoin_UserNotFound(t *testing.T) {
	f := newUserChallengeFixture([]*challenge.Challenge{healingChallenge(1, 10)})

	err := f.svc.UpdateUserChallengeOnMeetingJoin(context.Background(), 999, 1)

	require.Error(t, err)
	assert.Equal(t, "존재하지 않는 회원입니다.", err.Error())
	assert.Empty(t, f.userChallenges.saved)
}

func TestUpdateUserChallengeOnMeetingJoin_MeetingResolvedFirst(t *testing.T) {
	f := newUserChallengeFixture([]*challenge.Challenge{healingChallenge(1, 10)})

	// both the user and the meeting are unknown; the meeting error wins
	err := f.svc.UpdateUserChallengeOnMeetingJoin(context.Background(), 999, 999)

	require.Error(t, err)
	assert.Equal(t, "모임을 찾을 수 없습니다.", err.Error())
	assert.ErrorIs(t, err, exception.New(exception.MeetingNotFound))
}

func TestUpdateUserChallengeOnMeetingJoin_FansOutAcrossCategory(t *testing.T) {
	f := newUserChallengeFixture([]*challenge.Challenge{
		healingChallenge(1, 5),
		healingChallenge(2, 10),
		hikingChallenge(3, 5),
	})

	require.NoError(t, f.svc.UpdateUserChallengeOnMeetingJoin(context.Background(), 1, 1))

	records, err := f.svc.FindUserChallenges(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, r := range records {
		assert.Equal(t, 1, r.Progress)
		assert.Nil(t, r.IsCompleted)
		assert.Contains(t, []int64{1, 2}, r.ChallengeID)
	}
	// two writes per fresh record
	assert.Len(t, f.userChallenges.saved, 4)
}

func TestUpdateUserChallengeOnMeetingJoin_NoMatchingChallenges(t *testing.T) {
	f := newUserChallengeFixture([]*challenge.Challenge{hikingChallenge(1, 5)})

	require.NoError(t, f.svc.UpdateUserChallengeOnMeetingJoin(context.Background(), 1, 1))
	assert.Empty(t, f.userChallenges.saved)
}

func TestRepeatedEventsNeverDecreaseProgress(t *testing.T) {
	f := newUserChallengeFixture([]*challenge.Challenge{hikingChallenge(1, 3)})

	for i := 0; i < 5; i++ {
		require.NoError(t, f.svc.UpdateProgress(context.Background(), "test@example.com", 1))
	}

	prev := 0
	for _, s := range f.userChallenges.saved {
		assert.GreaterOrEqual(t, s.Progress, prev)
		assert.LessOrEqual(t, s.Progress, 3)
		prev = s.Progress
	}
	stored, err := f.userChallenges.FindByUserAndChallengeID(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Progress)
	assert.True(t, stored.Completed())
}

func TestFindUserChallenges(t *testing.T) {
	f := newUserChallengeFixture(nil)

	records, err := f.svc.FindUserChallenges(context.Background(), 1)
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)

	_, err = f.svc.FindUserChallenges(context.Background(), 999)
	assert.ErrorIs(t, err, exception.New(exception.UserNotFound))
}

func TestMeetingJoin_RetriedAttemptsAreCountedOnce(t *testing.T) {
	f := newUserChallengeFixture([]*challenge.Challenge{healingChallenge(1, 1), healingChallenge(2, 10)})
	retrying := &retryingTx{rollbacks: []interface{ checkpoint() func() }{f.userChallenges}}
	f.svc.tx = retrying
	// the first insert for challenge 2 loses a race, after challenge 1 was already advanced
	f.userChallenges.insertConflicts[2] = 1

	events := progressEventsTotal.WithLabelValues(sourceMeetingJoin)
	completions := challengeCompletionsTotal.WithLabelValues(sourceMeetingJoin)
	eventsBefore := testutil.ToFloat64(events)
	completionsBefore := testutil.ToFloat64(completions)

	require.NoError(t, f.svc.UpdateUserChallengeOnMeetingJoin(context.Background(), 1, 1))

	assert.Equal(t, 2, retrying.attempts)
	assert.Equal(t, float64(2), testutil.ToFloat64(events)-eventsBefore)
	assert.Equal(t, float64(1), testutil.ToFloat64(completions)-completionsBefore)

	records, err := f.svc.FindUserChallenges(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.True(t, records[0].Completed())
	assert.Equal(t, 1, records[1].Progress)
	// rolled-back writes are discarded, two per fresh record remain
	assert.Len(t, f.userChallenges.saved, 4)
}

func TestFailedEventIsNotCounted(t *testing.T) {
	f := newUserChallengeFixture([]*challenge.Challenge{hikingChallenge(1, 10)})
	f.userChallenges.saveErr = errStoreDown

	events := progressEventsTotal.WithLabelValues(sourceMountainVisit)
	before := testutil.ToFloat64(events)

	assert.Error(t, f.svc.UpdateProgress(context.Background(), "test@example.com", 1))
	assert.Equal(t, before, testutil.ToFloat64(events))
}
