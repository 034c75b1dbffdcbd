package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/inspiring-reading/exam-backend/internal/model"
	"github.com/inspiring-reading/exam-backend/internal/repository"
	"github.com/rs/zerolog"
)

var testLog = zerolog.Nop()

type pairKey struct {
	student int
	exam    int64
}

// ─── Exams ─────────────────────────────────────────────────────────────────

type fakeExamStore struct {
	mu     sync.Mutex
	exams  map[int64]*model.Exam
	nextID int64
	gets   int
}

func newFakeExamStore(exams ...*model.Exam) *fakeExamStore {
	s := &fakeExamStore{exams: map[int64]*model.Exam{}, nextID: 100}
	for _, e := range exams {
		s.exams[e.ID] = e
	}
	return s
}

func (s *fakeExamStore) GetByID(_ context.Context, id int64) (*model.Exam, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	e, ok := s.exams[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (s *fakeExamStore) CreateWithQuestions(_ context.Context, e *model.Exam) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	e.ID = s.nextID
	e.CreatedAt = time.Now()
	for i := range e.Questions {
		s.nextID++
		e.Questions[i].ID = s.nextID
		e.Questions[i].ExamID = e.ID
		for j := range e.Questions[i].Choices {
			s.nextID++
			e.Questions[i].Choices[j].ID = s.nextID
			e.Questions[i].Choices[j].QuestionID = e.Questions[i].ID
		}
	}
	cp := *e
	s.exams[e.ID] = &cp
	return nil
}

func (s *fakeExamStore) Update(_ context.Context, e *model.Exam) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.exams[e.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *e
	s.exams[e.ID] = &cp
	return nil
}

func (s *fakeExamStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.exams[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.exams, id)
	return nil
}

func (s *fakeExamStore) ListSummaries(_ context.Context) ([]model.ExamSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.ExamSummary
	for _, e := range s.exams {
		sum := model.ExamSummary{
			ID:               e.ID,
			Title:            e.Title,
			TimeLimitMinutes: e.TimeLimitMinutes,
			QuestionCount:    len(e.Questions),
			TypeCounts:       map[model.QuestionType]int{},
		}
		for _, q := range e.Questions {
			sum.TypeCounts[q.Type]++
		}
		out = append(out, sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeExamCache struct {
	mu          sync.Mutex
	exams       map[int64]*model.Exam
	invalidated []int64
	failGets    bool
}

func newFakeExamCache() *fakeExamCache {
	return &fakeExamCache{exams: map[int64]*model.Exam{}}
}

func (c *fakeExamCache) Get(_ context.Context, id int64) (*model.Exam, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGets {
		return nil, errors.New("redis down")
	}
	e, ok := c.exams[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return e, nil
}

func (c *fakeExamCache) Set(_ context.Context, e *model.Exam) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exams[e.ID] = e
	return nil
}

func (c *fakeExamCache) Invalidate(_ context.Context, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.exams, id)
	c.invalidated = append(c.invalidated, id)
	return nil
}

// ─── Sessions and results ──────────────────────────────────────────────────

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[pairKey]*model.ExamSession
	byID     map[int64]*model.ExamSession
	nextID   int64
	now      Clock
}

func newFakeSessionStore(now Clock) *fakeSessionStore {
	return &fakeSessionStore{
		sessions: map[pairKey]*model.ExamSession{},
		byID:     map[int64]*model.ExamSession{},
		now:      now,
	}
}

func (s *fakeSessionStore) FindByStudentAndExam(_ context.Context, studentID int, examID int64) (*model.ExamSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[pairKey{studentID, examID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *sess
	return &cp, nil
}

func (s *fakeSessionStore) CreateIfAbsent(_ context.Context, studentID int, exam *model.Exam) (*model.ExamSession, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := pairKey{studentID, exam.ID}
	if sess, ok := s.sessions[k]; ok {
		cp := *sess
		return &cp, false, nil
	}
	s.nextID++
	snap := *exam
	sess := &model.ExamSession{
		ID:        s.nextID,
		StudentID: studentID,
		ExamID:    exam.ID,
		StartedAt: s.now(),
		IsActive:  true,
		Snapshot:  &snap,
	}
	s.sessions[k] = sess
	s.byID[sess.ID] = sess
	cp := *sess
	return &cp, true, nil
}

func (s *fakeSessionStore) Deactivate(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.byID[id]; ok {
		sess.IsActive = false
	}
	return nil
}

// put stores a session directly, e.g. one started long ago.
func (s *fakeSessionStore) put(sess *model.ExamSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	sess.ID = s.nextID
	s.sessions[pairKey{sess.StudentID, sess.ExamID}] = sess
	s.byID[sess.ID] = sess
}

func (s *fakeSessionStore) active(studentID int, examID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[pairKey{studentID, examID}]
	return ok && sess.IsActive
}

type fakeResultStore struct {
	mu       sync.Mutex
	sessions *fakeSessionStore
	results  map[pairKey]*model.Result
	nextID   int64
	// existsHook runs after Exists, outside the lock.
	existsHook func()
}

func newFakeResultStore(sessions *fakeSessionStore) *fakeResultStore {
	return &fakeResultStore{sessions: sessions, results: map[pairKey]*model.Result{}}
}

func (r *fakeResultStore) Exists(_ context.Context, studentID int, examID int64) (bool, error) {
	r.mu.Lock()
	_, ok := r.results[pairKey{studentID, examID}]
	hook := r.existsHook
	r.mu.Unlock()
	if hook != nil {
		hook()
	}
	return ok, nil
}

func (r *fakeResultStore) Finalize(_ context.Context, sessionID int64, res *model.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions.mu.Lock()
	defer r.sessions.mu.Unlock()

	sess, ok := r.sessions.byID[sessionID]
	if !ok {
		return repository.ErrNotFound
	}
	k := pairKey{res.StudentID, res.ExamID}
	if _, dup := r.results[k]; dup {
		return repository.ErrResultExists
	}
	if !sess.IsActive {
		return repository.ErrSessionClosed
	}
	r.nextID++
	res.ID = r.nextID
	res.CompletedAt = time.Now()
	cp := *res
	r.results[k] = &cp
	sess.IsActive = false
	return nil
}

func (r *fakeResultStore) GetByStudentAndExam(_ context.Context, studentID int, examID int64) (*model.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.results[pairKey{studentID, examID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return res, nil
}

func (r *fakeResultStore) ListByStudent(_ context.Context, studentID int) (map[int64]*model.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[int64]*model.Result{}
	for k, res := range r.results {
		if k.student == studentID {
			out[k.exam] = res
		}
	}
	return out, nil
}

func (r *fakeResultStore) ListByExam(_ context.Context, examID int64, page, perPage int) ([]model.ExamResultRow, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []model.ExamResultRow
	for k, res := range r.results {
		if k.exam == examID {
			all = append(all, model.ExamResultRow{
				StudentID:      res.StudentID,
				Score:          res.Score,
				TotalQuestions: res.TotalQuestions,
				Percentage:     res.Percentage,
			})
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].StudentID < all[j].StudentID })
	start := (page - 1) * perPage
	if start > len(all) {
		start = len(all)
	}
	end := start + perPage
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], len(all), nil
}

func (r *fakeResultStore) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.results)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []model.MonitorEvent
}

func (p *fakePublisher) Publish(_ context.Context, ev model.MonitorEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *fakePublisher) types() []model.MonitorEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.MonitorEventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

// ─── Users ─────────────────────────────────────────────────────────────────

type fakeUserStore struct {
	mu     sync.Mutex
	users  map[string]*model.User
	nextID int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]*model.User{}}
}

func (s *fakeUserStore) GetByID(_ context.Context, id int) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *fakeUserStore) GetByUsername(_ context.Context, username string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (s *fakeUserStore) Create(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.Username]; ok {
		return repository.ErrDuplicateUsername
	}
	s.nextID++
	u.ID = s.nextID
	s.users[u.Username] = u
	return nil
}

func (s *fakeUserStore) UpdatePassword(_ context.Context, id int, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			u.PasswordHash = passwordHash
			return nil
		}
	}
	return repository.ErrNotFound
}

// fakeAuth stores passwords with a visible prefix instead of bcrypt.
type fakeAuth struct {
	issued int
}

func (a *fakeAuth) HashPassword(password string) (string, error) { return "hashed:" + password, nil }

func (a *fakeAuth) CheckPassword(hash, password string) error {
	if hash != "hashed:"+password {
		return ErrInvalidCredentials
	}
	return nil
}

func (a *fakeAuth) IssueToken(_ context.Context, u *model.User) (string, error) {
	a.issued++
	return "token-" + u.Username, nil
}

// ─── Fixtures ──────────────────────────────────────────────────────────────

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// twoQuestionExam has Q1 with correct choice 5 and Q2 with correct choice 9.
func twoQuestionExam() *model.Exam {
	return &model.Exam{
		ID:               1,
		Title:            "Reading 1",
		PassageText:      "Once upon a time.",
		TimeLimitMinutes: 30,
		Questions: []model.Question{
			{ID: 1, ExamID: 1, Type: model.QuestionTypeSingleChoice, Text: "Q1", Choices: []model.Choice{
				{ID: 4, QuestionID: 1, Text: "wrong"},
				{ID: 5, QuestionID: 1, Text: "right", IsCorrect: true},
			}},
			{ID: 2, ExamID: 1, Type: model.QuestionTypeSingleChoice, Text: "Q2", Choices: []model.Choice{
				{ID: 7, QuestionID: 2, Text: "wrong"},
				{ID: 9, QuestionID: 2, Text: "right", IsCorrect: true},
			}},
		},
	}
}

type harness struct {
	clock      *fakeClock
	examStore  *fakeExamStore
	cache      *fakeExamCache
	sessions   *fakeSessionStore
	results    *fakeResultStore
	events     *fakePublisher
	exams      *ExamService
	session    *SessionService
	submission *SubmissionService
}

func newHarness(exams ...*model.Exam) *harness {
	h := &harness{
		clock:     newFakeClock(),
		examStore: newFakeExamStore(exams...),
		cache:     newFakeExamCache(),
		events:    &fakePublisher{},
	}
	h.sessions = newFakeSessionStore(h.clock.Now)
	h.results = newFakeResultStore(h.sessions)
	h.exams = NewExamService(h.examStore, h.cache, testLog)
	h.session = NewSessionService(h.exams, h.sessions, h.results, h.events, h.clock.Now, testLog)
	h.submission = NewSubmissionService(h.exams, h.session, h.results, testLog)
	return h
}
