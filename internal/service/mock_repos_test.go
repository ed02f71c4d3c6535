package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"dryshift/internal/model"
	"dryshift/internal/repository"
)

var errMockStorage = errors.New("mock: connection refused")

// ── Mock UserRepository ──

type mockUserRepo struct {
	mu    sync.Mutex
	users map[int64]*model.User
	err   error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[int64]*model.User)}
}

func (m *mockUserRepo) add(id int64, username string, approved bool) {
	u := &model.User{UserID: id, IsApproved: approved}
	if username != "" {
		u.Username = &username
	}
	m.users[id] = u
}

func (m *mockUserRepo) Upsert(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if cur, ok := m.users[user.UserID]; ok {
		cur.Username = user.Username
		return nil
	}
	cp := *user
	m.users[user.UserID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) SetApproved(_ context.Context, id int64, approved bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.IsApproved = approved
	return nil
}

func (m *mockUserRepo) ListApproved(_ context.Context) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.User
	for _, u := range m.users {
		if u.IsApproved {
			result = append(result, *u)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UserID < result[j].UserID })
	return result, nil
}

func (m *mockUserRepo) ListByIDs(_ context.Context, ids []int64) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			result = append(result, *u)
		}
	}
	return result, nil
}

// ── Mock DryingRepository ──

type mockDryingRepo struct {
	mu       sync.Mutex
	sessions []model.DryingSession
	nextID   int64
	err      error
}

func newMockDryingRepo() *mockDryingRepo {
	return &mockDryingRepo{}
}

func (m *mockDryingRepo) CreateIfFree(_ context.Context, s *model.DryingSession) (*model.DryingSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.sessions {
		cur := m.sessions[i]
		if cur.DehydratorID == s.DehydratorID && cur.ActiveAt(s.StartTime) {
			return &cur, nil
		}
	}
	m.nextID++
	s.ID = m.nextID
	m.sessions = append(m.sessions, *s)
	return nil, nil
}

func (m *mockDryingRepo) GetActive(_ context.Context, unitID int, now time.Time) (*model.DryingSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.sessions {
		cur := m.sessions[i]
		if cur.DehydratorID == unitID && cur.ActiveAt(now) {
			return &cur, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDryingRepo) ListActive(_ context.Context, now time.Time) ([]model.DryingSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.DryingSession
	for _, s := range m.sessions {
		if s.ActiveAt(now) {
			result = append(result, s)
		}
	}
	return result, nil
}

func (m *mockDryingRepo) DeleteExpired(_ context.Context, now time.Time) ([]model.DryingSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var expired, kept []model.DryingSession
	for _, s := range m.sessions {
		if !s.FinishTime.After(now) {
			expired = append(expired, s)
		} else {
			kept = append(kept, s)
		}
	}
	m.sessions = kept
	return expired, nil
}

// ── Mock WorkSessionRepository ──

type mockWorkSessionRepo struct {
	mu       sync.Mutex
	sessions map[int64]*model.WorkSession
	nextID   int64
	// closeHook 在条件更新前调用，用于模拟并发结班
	closeHook func(id int64)
}

func newMockWorkSessionRepo() *mockWorkSessionRepo {
	return &mockWorkSessionRepo{sessions: make(map[int64]*model.WorkSession)}
}

func cloneSession(s *model.WorkSession) *model.WorkSession {
	cp := *s
	cp.Partners = append([]model.WorkPartner(nil), s.Partners...)
	return &cp
}

func (m *mockWorkSessionRepo) CreateOpen(_ context.Context, s *model.WorkSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cur := range m.sessions {
		if cur.UserID == s.UserID && cur.IsOpen() {
			return gorm.ErrDuplicatedKey
		}
	}
	m.nextID++
	s.ID = m.nextID
	for i := range s.Partners {
		s.Partners[i].SessionID = s.ID
	}
	m.sessions[s.ID] = cloneSession(s)
	return nil
}

func (m *mockWorkSessionRepo) GetOpenByUser(_ context.Context, userID int64) (*model.WorkSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cur := range m.sessions {
		if cur.UserID == userID && cur.IsOpen() {
			return cloneSession(cur), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockWorkSessionRepo) GetByID(_ context.Context, id int64) (*model.WorkSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return cloneSession(s), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockWorkSessionRepo) Close(_ context.Context, id int64, f repository.CloseFields) error {
	if m.closeHook != nil {
		m.closeHook(id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || !s.IsOpen() {
		return gorm.ErrRecordNotFound
	}
	end := f.EndTime
	s.EndTime = &end
	s.Results = f.Results
	s.PackagesCount = f.PackagesCount
	s.SalesAmount = f.SalesAmount
	return nil
}

// ── Mock WorkRecordRepository ──
// 班次记录直接读取 mockWorkSessionRepo，与真实实现共用同一张表

type mockWorkRecordRepo struct {
	mu       sync.Mutex
	sessions *mockWorkSessionRepo
	entries  []model.OtherWork
	nextID   int64
	err      error
}

func newMockWorkRecordRepo(sessions *mockWorkSessionRepo) *mockWorkRecordRepo {
	return &mockWorkRecordRepo{sessions: sessions}
}

func (m *mockWorkRecordRepo) CreateOtherWork(_ context.Context, w *model.OtherWork) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.nextID++
	w.ID = m.nextID
	for i := range w.Partners {
		w.Partners[i].OtherWorkID = w.ID
	}
	cp := *w
	cp.Partners = append([]model.OtherWorkPartner(nil), w.Partners...)
	m.entries = append(m.entries, cp)
	return nil
}

func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && !t.After(to)
}

func (m *mockWorkRecordRepo) ShiftsInRange(_ context.Context, from, to time.Time, userID *int64) ([]model.WorkSession, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.sessions.mu.Lock()
	defer m.sessions.mu.Unlock()
	var result []model.WorkSession
	for _, s := range m.sessions.sessions {
		if s.IsOpen() || !inRange(s.StartTime, from, to) {
			continue
		}
		if userID != nil && s.UserID != *userID && !containsID(s.PartnerIDs(), *userID) {
			continue
		}
		result = append(result, *cloneSession(s))
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].StartTime.Equal(result[j].StartTime) {
			return result[i].StartTime.Before(result[j].StartTime)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (m *mockWorkRecordRepo) OtherWorkInRange(_ context.Context, from, to time.Time, userID *int64) ([]model.OtherWork, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var result []model.OtherWork
	for _, w := range m.entries {
		if !inRange(w.WorkDate, from, to) {
			continue
		}
		if userID != nil && w.UserID != *userID && !containsID(w.PartnerIDs(), *userID) {
			continue
		}
		result = append(result, w)
	}
	return result, nil
}

func (m *mockWorkRecordRepo) MonthsWithData(_ context.Context, userID *int64) ([]model.Period, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Period
	for _, w := range m.entries {
		if userID != nil && w.UserID != *userID {
			continue
		}
		result = append(result, model.Period{Year: w.WorkDate.Year(), Month: int(w.WorkDate.Month())})
	}
	m.sessions.mu.Lock()
	for _, s := range m.sessions.sessions {
		if s.IsOpen() || (userID != nil && s.UserID != *userID) {
			continue
		}
		result = append(result, model.Period{Year: s.StartTime.Year(), Month: int(s.StartTime.Month())})
	}
	m.sessions.mu.Unlock()
	return result, nil
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// ── 测试环境 ──

type testEnv struct {
	repo     *repository.Repository
	users    *mockUserRepo
	drying   *mockDryingRepo
	sessions *mockWorkSessionRepo
	records  *mockWorkRecordRepo
}

func newTestEnv() *testEnv {
	sessions := newMockWorkSessionRepo()
	env := &testEnv{
		users:    newMockUserRepo(),
		drying:   newMockDryingRepo(),
		sessions: sessions,
		records:  newMockWorkRecordRepo(sessions),
	}
	env.repo = &repository.Repository{
		User:        env.users,
		Drying:      env.drying,
		WorkSession: env.sessions,
		WorkRecord:  env.records,
	}
	return env
}
