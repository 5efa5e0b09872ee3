package services

import (
	"context"
	"errors"
	"santaAPI/internal/category"
	"santaAPI/internal/challenge"
	"santaAPI/internal/database"
	"santaAPI/internal/meeting"
	"santaAPI/internal/mountain"
	"santaAPI/internal/user"
	"sort"

	"github.com/stretchr/testify/mock"
)

var errStoreDown = errors.New("store unavailable")

type fakeTx struct {
	calls int
	open  bool
}

func (f *fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	f.open = true
	defer func() { f.open = false }()
	return fn(ctx)
}

// retryingTx reruns fn after a retryable failure the way database.TxManager
// does, restoring the fakes' state between attempts.
type retryingTx struct {
	attempts  int
	rollbacks []interface{ checkpoint() func() }
}

func (r *retryingTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	for i := 0; i < 3; i++ {
		r.attempts++
		restores := make([]func(), 0, len(r.rollbacks))
		for _, rb := range r.rollbacks {
			restores = append(restores, rb.checkpoint())
		}
		err = fn(ctx)
		if err == nil {
			return nil
		}
		for _, restore := range restores {
			restore()
		}
		if !errors.Is(err, database.ErrRetryable) {
			return err
		}
	}
	return err
}

type fakeCategoryRepository struct {
	categories map[string]*category.Category
}

func newFakeCategoryRepository(cats ...*category.Category) *fakeCategoryRepository {
	r := &fakeCategoryRepository{categories: make(map[string]*category.Category)}
	for _, c := range cats {
		r.categories[c.Name] = c
	}
	return r
}

func (r *fakeCategoryRepository) FindByName(ctx context.Context, name string) (*category.Category, error) {
	return r.categories[name], nil
}

type fakeChallengeRepository struct {
	challenges map[int64]*challenge.Challenge
	nextID     int64
	saveCalls  int
	deleted    []int64
	saveErr    error
	conflicts  int
}

func newFakeChallengeRepository(chs ...*challenge.Challenge) *fakeChallengeRepository {
	r := &fakeChallengeRepository{challenges: make(map[int64]*challenge.Challenge), nextID: 100}
	for _, c := range chs {
		r.challenges[c.ID] = c
	}
	return r
}

func (r *fakeChallengeRepository) Save(ctx context.Context, c *challenge.Challenge) (*challenge.Challenge, error) {
	r.saveCalls++
	if r.saveErr != nil {
		return nil, r.saveErr
	}
	if r.conflicts > 0 {
		r.conflicts--
		return nil, database.ErrRetryable
	}
	saved := *c
	if saved.ID == 0 {
		r.nextID++
		saved.ID = r.nextID
	}
	r.challenges[saved.ID] = &saved
	out := saved
	return &out, nil
}

func (r *fakeChallengeRepository) FindByID(ctx context.Context, id int64) (*challenge.Challenge, error) {
	c, ok := r.challenges[id]
	if !ok {
		return nil, nil
	}
	out := *c
	return &out, nil
}

func (r *fakeChallengeRepository) sorted() []*challenge.Challenge {
	out := make([]*challenge.Challenge, 0, len(r.challenges))
	for _, c := range r.challenges {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *fakeChallengeRepository) FindAll(ctx context.Context, page challenge.PageRequest) (*challenge.Page[*challenge.Challenge], error) {
	all := r.sorted()
	start := page.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + page.Size
	if end > len(all) {
		end = len(all)
	}
	return challenge.NewPage(all[start:end], page, int64(len(all))), nil
}

func (r *fakeChallengeRepository) DeleteByID(ctx context.Context, id int64) error {
	r.deleted = append(r.deleted, id)
	delete(r.challenges, id)
	return nil
}

func (r *fakeChallengeRepository) FindByCategoryName(ctx context.Context, name string) ([]*challenge.Challenge, error) {
	var out []*challenge.Challenge
	for _, c := range r.sorted() {
		if c.Category.Name == name {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeUserRepository struct {
	users map[int64]*user.User
}

func newFakeUserRepository(users ...*user.User) *fakeUserRepository {
	r := &fakeUserRepository{users: make(map[int64]*user.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepository) FindByID(ctx context.Context, id int64) (*user.User, error) {
	return r.users[id], nil
}

type fakeUserMountainRepository struct {
	visits map[int64]*mountain.UserMountain
}

func (r *fakeUserMountainRepository) FindByID(ctx context.Context, id int64) (*mountain.UserMountain, error) {
	return r.visits[id], nil
}

type fakeMeetingRepository struct {
	meetings map[int64]*meeting.Meeting
}

func (r *fakeMeetingRepository) FindByID(ctx context.Context, id int64) (*meeting.Meeting, error) {
	return r.meetings[id], nil
}

type userChallengeKey struct {
	userID, challengeID int64
}

// fakeUserChallengeRepository keeps a snapshot of every Save call so tests can
// inspect the record as it was at each write.
type fakeUserChallengeRepository struct {
	records map[userChallengeKey]*challenge.UserChallenge
	saved   []challenge.UserChallenge
	nextID  int64
	saveErr error
	// insertConflicts makes the next insert for a challenge id lose a race.
	insertConflicts map[int64]int
}

func newFakeUserChallengeRepository(existing ...*challenge.UserChallenge) *fakeUserChallengeRepository {
	r := &fakeUserChallengeRepository{
		records:         make(map[userChallengeKey]*challenge.UserChallenge),
		insertConflicts: make(map[int64]int),
	}
	for _, uc := range existing {
		r.records[userChallengeKey{uc.UserID, uc.ChallengeID}] = uc
		if uc.ID > r.nextID {
			r.nextID = uc.ID
		}
	}
	return r
}

func (r *fakeUserChallengeRepository) FindByUserAndChallengeID(ctx context.Context, userID, challengeID int64) (*challenge.UserChallenge, error) {
	uc, ok := r.records[userChallengeKey{userID, challengeID}]
	if !ok {
		return nil, nil
	}
	out := *uc
	return &out, nil
}

func (r *fakeUserChallengeRepository) Save(ctx context.Context, uc *challenge.UserChallenge) (*challenge.UserChallenge, error) {
	if r.saveErr != nil {
		return nil, r.saveErr
	}
	if uc.ID == 0 && r.insertConflicts[uc.ChallengeID] > 0 {
		r.insertConflicts[uc.ChallengeID]--
		return nil, database.ErrRetryable
	}
	snapshot := *uc
	if snapshot.ID == 0 {
		r.nextID++
		snapshot.ID = r.nextID
	}
	r.saved = append(r.saved, snapshot)
	stored := snapshot
	r.records[userChallengeKey{uc.UserID, uc.ChallengeID}] = &stored
	out := snapshot
	return &out, nil
}

func (r *fakeUserChallengeRepository) checkpoint() func() {
	records := make(map[userChallengeKey]*challenge.UserChallenge, len(r.records))
	for k, uc := range r.records {
		cp := *uc
		records[k] = &cp
	}
	saved := len(r.saved)
	return func() {
		r.records = records
		r.saved = r.saved[:saved]
	}
}

func (r *fakeUserChallengeRepository) FindByUserID(ctx context.Context, userID int64) ([]*challenge.UserChallenge, error) {
	var out []*challenge.UserChallenge
	for k, uc := range r.records {
		if k.userID == userID {
			cp := *uc
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type mockImageUploader struct {
	mock.Mock
}

func (m *mockImageUploader) Upload(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	args := m.Called(ctx, filename, contentType, data)
	return args.String(0), args.Error(1)
}

func (m *mockImageUploader) Delete(ctx context.Context, url string) error {
	args := m.Called(ctx, url)
	return args.Error(0)
}
