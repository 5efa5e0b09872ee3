package services

import (
	"context"
	"fmt"
	"log"
	"santaAPI/internal/challenge"
	"santaAPI/internal/exception"
	"santaAPI/internal/meeting"
	"santaAPI/internal/mountain"
	"santaAPI/internal/user"
	"time"
)

const (
	sourceMountainVisit = "mountain_visit"
	sourceMeetingJoin   = "meeting_join"
)

type UserLookup interface {
	FindByEmail(ctx context.Context, email string) (*user.User, error)
	FindByID(ctx context.Context, id int64) (*user.User, error)
}

type UserMountainLookup interface {
	FindByID(ctx context.Context, id int64) (*mountain.UserMountain, error)
}

type MeetingLookup interface {
	FindByID(ctx context.Context, id int64) (*meeting.Meeting, error)
}

type UserChallengeStore interface {
	FindByUserAndChallengeID(ctx context.Context, userID, challengeID int64) (*challenge.UserChallenge, error)
	Save(ctx context.Context, uc *challenge.UserChallenge) (*challenge.UserChallenge, error)
	FindByUserID(ctx context.Context, userID int64) ([]*challenge.UserChallenge, error)
}

// ChallengeFinder is the part of ChallengeStore progress tracking needs.
type ChallengeFinder interface {
	FindByCategoryName(ctx context.Context, name string) ([]*challenge.Challenge, error)
}

type UserChallengeService struct {
	tx             UnitOfWork
	users          UserLookup
	userMountains  UserMountainLookup
	meetings       MeetingLookup
	challenges     ChallengeFinder
	userChallenges UserChallengeStore
	now            func() time.Time
}

func NewUserChallengeService(
	tx UnitOfWork,
	users UserLookup,
	userMountains UserMountainLookup,
	meetings MeetingLookup,
	challenges ChallengeFinder,
	userChallenges UserChallengeStore,
) *UserChallengeService {
	return &UserChallengeService{
		tx:             tx,
		users:          users,
		userMountains:  userMountains,
		meetings:       meetings,
		challenges:     challenges,
		userChallenges: userChallenges,
		now:            time.Now,
	}
}

// UpdateProgress counts a logged mountain climb toward every challenge in the
// mountain's category. Records created here start with IsCompleted = false.
func (s *UserChallengeService) UpdateProgress(ctx context.Context, userEmail string, userMountainID int64) error {
	var tally progressTally
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		u, err := s.users.FindByEmail(ctx, userEmail)
		if err != nil {
			return fmt.Errorf("failed to get user: %w", err)
		}
		if u == nil {
			return exception.New(exception.UserNotFound)
		}

		um, err := s.userMountains.FindByID(ctx, userMountainID)
		if err != nil {
			return fmt.Errorf("failed to get user mountain: %w", err)
		}
		if um == nil {
			return exception.New(exception.UserMountainNotFound)
		}

		notCompleted := false
		tally, err = s.advanceCategory(ctx, u.ID, um.Category.Name, &notCompleted)
		return err
	})
	if err != nil {
		return err
	}
	tally.report(sourceMountainVisit)
	return nil
}

// UpdateUserChallengeOnMeetingJoin counts a meeting join toward every
// challenge in the meeting's category. The meeting is resolved before the
// user, and records created here leave IsCompleted nil.
func (s *UserChallengeService) UpdateUserChallengeOnMeetingJoin(ctx context.Context, userID, meetingID int64) error {
	var tally progressTally
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		m, err := s.meetings.FindByID(ctx, meetingID)
		if err != nil {
			return fmt.Errorf("failed to get meeting: %w", err)
		}
		if m == nil {
			return exception.New(exception.MeetingNotFound)
		}

		u, err := s.users.FindByID(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to get user: %w", err)
		}
		if u == nil {
			return exception.New(exception.UserNotFound)
		}

		tally, err = s.advanceCategory(ctx, u.ID, m.Category.Name, nil)
		return err
	})
	if err != nil {
		return err
	}
	tally.report(sourceMeetingJoin)
	return nil
}

// FindUserChallenges lists every progress record of a user.
func (s *UserChallengeService) FindUserChallenges(ctx context.Context, userID int64) ([]*challenge.UserChallenge, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if u == nil {
		return nil, exception.New(exception.UserNotFound)
	}

	records, err := s.userChallenges.FindByUserID(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user challenges: %w", err)
	}
	if records == nil {
		records = []*challenge.UserChallenge{}
	}
	return records, nil
}

// progressTally is what one committed event did. It is rebuilt on every
// transaction attempt and only reported once the unit commits.
type progressTally struct {
	userID    int64
	advanced  int
	completed []int64
}

func (t progressTally) report(source string) {
	progressEventsTotal.WithLabelValues(source).Add(float64(t.advanced))
	for _, challengeID := range t.completed {
		challengeCompletionsTotal.WithLabelValues(source).Inc()
		log.Printf("UserChallengeService: user %d completed challenge %d", t.userID, challengeID)
	}
}

func (s *UserChallengeService) advanceCategory(ctx context.Context, userID int64, categoryName string, initialCompleted *bool) (progressTally, error) {
	tally := progressTally{userID: userID}

	challenges, err := s.challenges.FindByCategoryName(ctx, categoryName)
	if err != nil {
		return tally, fmt.Errorf("failed to get challenges for category %q: %w", categoryName, err)
	}

	for _, ch := range challenges {
		advanced, completed, err := s.advance(ctx, userID, ch, initialCompleted)
		if err != nil {
			return tally, err
		}
		if advanced {
			tally.advanced++
		}
		if completed {
			tally.completed = append(tally.completed, ch.ID)
		}
	}
	return tally, nil
}

// advance applies one qualifying event to the (user, challenge) pair and
// reports whether the record moved and whether this event completed it.
//
// A missing record is created with progress 1 and saved, then saved again
// after the completion check. An existing record is incremented and saved
// once. Completed records are left untouched.
func (s *UserChallengeService) advance(ctx context.Context, userID int64, ch *challenge.Challenge, initialCompleted *bool) (bool, bool, error) {
	uc, err := s.userChallenges.FindByUserAndChallengeID(ctx, userID, ch.ID)
	if err != nil {
		return false, false, fmt.Errorf("failed to get user challenge: %w", err)
	}

	if uc == nil {
		uc = &challenge.UserChallenge{
			UserID:      userID,
			ChallengeID: ch.ID,
			Progress:    1,
			IsCompleted: copyBool(initialCompleted),
		}
		uc, err = s.userChallenges.Save(ctx, uc)
		if err != nil {
			return false, false, fmt.Errorf("failed to create user challenge: %w", err)
		}
	} else {
		if uc.Completed() {
			return false, false, nil
		}
		uc.Progress++
	}

	completed := false
	if uc.Progress >= ch.ClearStandard {
		today := truncateToDay(s.now())
		done := true
		uc.Progress = ch.ClearStandard
		uc.IsCompleted = &done
		uc.CompletionDate = &today
		completed = true
	}

	if _, err := s.userChallenges.Save(ctx, uc); err != nil {
		return false, false, fmt.Errorf("failed to save user challenge: %w", err)
	}
	return true, completed, nil
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func copyBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}
