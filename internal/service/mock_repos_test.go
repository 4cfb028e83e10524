package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"umuganda/backend/internal/model"
	"umuganda/backend/internal/repository"
	"umuganda/backend/pkg/certificate"
	"umuganda/backend/pkg/checkincode"
	pkgerrors "umuganda/backend/pkg/errors"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[uint]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[uint]*model.User)}
}

func (m *mockUserRepo) GetByID(_ context.Context, id uint) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByPhone(_ context.Context, phone string) (*model.User, error) {
	for _, u := range m.users {
		if u.PhoneNumber == phone {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock ProjectRepository ──

type mockProjectRepo struct {
	projects map[uint]*model.Project
	users    *mockUserRepo
	conflict bool // 模拟乐观锁冲突
}

func newMockProjectRepo(users *mockUserRepo) *mockProjectRepo {
	return &mockProjectRepo{projects: make(map[uint]*model.Project), users: users}
}

func (m *mockProjectRepo) GetByID(_ context.Context, id uint) (*model.Project, error) {
	p, ok := m.projects[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	if u, ok := m.users.users[p.AdminID]; ok {
		admin := *u
		cp.Admin = &admin
	}
	return &cp, nil
}

func (m *mockProjectRepo) UpdateStatus(_ context.Context, project *model.Project, status model.ProjectStatus) error {
	stored, ok := m.projects[project.ProjectID]
	if !ok || m.conflict || stored.Version != project.Version {
		return pkgerrors.ErrOptimisticLock
	}
	stored.Status = status
	stored.Version++
	project.Status = status
	project.Version = stored.Version
	return nil
}

// ── Mock CheckinTokenRepository ──

type mockCheckinTokenRepo struct {
	byProject map[uint]*model.CheckinToken
	nextID    uint
	missOnce  bool // 首次 GetByProject 返回未找到，模拟并发写入
}

func newMockCheckinTokenRepo() *mockCheckinTokenRepo {
	return &mockCheckinTokenRepo{byProject: make(map[uint]*model.CheckinToken)}
}

func (m *mockCheckinTokenRepo) GetByProject(_ context.Context, projectID uint) (*model.CheckinToken, error) {
	if m.missOnce {
		m.missOnce = false
		return nil, gorm.ErrRecordNotFound
	}
	if t, ok := m.byProject[projectID]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCheckinTokenRepo) GetByProjectAndCode(_ context.Context, projectID uint, code string) (*model.CheckinToken, error) {
	if t, ok := m.byProject[projectID]; ok && t.Code == code {
		cp := *t
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCheckinTokenRepo) CreateIfAbsent(_ context.Context, token *model.CheckinToken) (bool, error) {
	if _, ok := m.byProject[token.ProjectID]; ok {
		return false, nil
	}
	m.nextID++
	token.CheckinCodeID = m.nextID
	cp := *token
	m.byProject[token.ProjectID] = &cp
	return true, nil
}

func (m *mockCheckinTokenRepo) Replace(_ context.Context, oldCode string, token *model.CheckinToken) (bool, error) {
	stored, ok := m.byProject[token.ProjectID]
	if !ok || stored.Code != oldCode {
		return false, nil
	}
	token.CheckinCodeID = stored.CheckinCodeID
	cp := *token
	m.byProject[token.ProjectID] = &cp
	return true, nil
}

// ── Mock AttendanceRepository ──

type mockAttendanceRepo struct {
	records  []*model.Attendance
	users    *mockUserRepo
	nextID   uint
	hideOpen bool // FindOpen 看不到未签退记录，模拟并发签到
}

func newMockAttendanceRepo(users *mockUserRepo) *mockAttendanceRepo {
	return &mockAttendanceRepo{users: users}
}

func (m *mockAttendanceRepo) Create(_ context.Context, record *model.Attendance) error {
	if record.CheckOutTime == nil {
		for _, r := range m.records {
			if r.UserID == record.UserID && r.ProjectID == record.ProjectID && r.CheckOutTime == nil {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	m.nextID++
	record.AttendanceID = m.nextID
	cp := *record
	m.records = append(m.records, &cp)
	return nil
}

func (m *mockAttendanceRepo) latestOpen(userID, projectID uint) *model.Attendance {
	var latest *model.Attendance
	for _, r := range m.records {
		if r.UserID != userID || r.ProjectID != projectID || r.CheckOutTime != nil {
			continue
		}
		if latest == nil ||
			r.CheckInTime.After(latest.CheckInTime) ||
			(r.CheckInTime.Equal(latest.CheckInTime) && r.AttendanceID > latest.AttendanceID) {
			latest = r
		}
	}
	return latest
}

func (m *mockAttendanceRepo) FindOpen(_ context.Context, userID, projectID uint) (*model.Attendance, error) {
	if m.hideOpen {
		return nil, gorm.ErrRecordNotFound
	}
	if r := m.latestOpen(userID, projectID); r != nil {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAttendanceRepo) LockLatestOpen(_ context.Context, userID, projectID uint) (*model.Attendance, error) {
	if r := m.latestOpen(userID, projectID); r != nil {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAttendanceRepo) Close(_ context.Context, record *model.Attendance, at time.Time) error {
	for _, r := range m.records {
		if r.AttendanceID == record.AttendanceID {
			if r.CheckOutTime != nil {
				return pkgerrors.ErrNoRows
			}
			r.CheckOutTime = &at
			record.CheckOutTime = &at
			return nil
		}
	}
	return pkgerrors.ErrNoRows
}

func (m *mockAttendanceRepo) HasClosed(_ context.Context, userID, projectID uint) (bool, error) {
	for _, r := range m.records {
		if r.UserID == userID && r.ProjectID == projectID && r.CheckOutTime != nil {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockAttendanceRepo) CountClosedByUser(_ context.Context, userID uint) (int64, error) {
	var n int64
	for _, r := range m.records {
		if r.UserID == userID && r.CheckOutTime != nil {
			n++
		}
	}
	return n, nil
}

func (m *mockAttendanceRepo) ListByProject(_ context.Context, projectID uint) ([]model.Attendance, error) {
	var list []model.Attendance
	for _, r := range m.records {
		if r.ProjectID != projectID {
			continue
		}
		cp := *r
		if u, ok := m.users.users[r.UserID]; ok {
			user := *u
			cp.User = &user
		}
		list = append(list, cp)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CheckInTime.Before(list[j].CheckInTime) })
	return list, nil
}

func (m *mockAttendanceRepo) CountVolunteers(_ context.Context, projectID uint) (int64, error) {
	seen := make(map[uint]bool)
	for _, r := range m.records {
		if r.ProjectID == projectID {
			seen[r.UserID] = true
		}
	}
	return int64(len(seen)), nil
}

func (m *mockAttendanceRepo) CountCompleted(_ context.Context, projectID uint) (int64, error) {
	seen := make(map[uint]bool)
	for _, r := range m.records {
		if r.ProjectID == projectID && r.CheckOutTime != nil {
			seen[r.UserID] = true
		}
	}
	return int64(len(seen)), nil
}

// ── Mock CertificateRepository ──

type mockCertificateRepo struct {
	byID   map[uint]*model.Certificate
	nextID uint
	locks  int
}

func newMockCertificateRepo() *mockCertificateRepo {
	return &mockCertificateRepo{byID: make(map[uint]*model.Certificate)}
}

func (m *mockCertificateRepo) find(userID, projectID uint) *model.Certificate {
	for _, c := range m.byID {
		if c.UserID == userID && c.ProjectID == projectID {
			return c
		}
	}
	return nil
}

func (m *mockCertificateRepo) CreateIfAbsent(_ context.Context, cert *model.Certificate) (bool, error) {
	if m.find(cert.UserID, cert.ProjectID) != nil {
		return false, nil
	}
	m.nextID++
	cert.CertificateID = m.nextID
	cp := *cert
	m.byID[cp.CertificateID] = &cp
	return true, nil
}

func (m *mockCertificateRepo) GetByUserProject(_ context.Context, userID, projectID uint) (*model.Certificate, error) {
	if c := m.find(userID, projectID); c != nil {
		cp := *c
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCertificateRepo) GetByID(_ context.Context, id uint) (*model.Certificate, error) {
	if c, ok := m.byID[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCertificateRepo) LockByID(ctx context.Context, id uint) (*model.Certificate, error) {
	m.locks++
	return m.GetByID(ctx, id)
}

func (m *mockCertificateRepo) AttachFile(_ context.Context, cert *model.Certificate, fileURL string, at time.Time) error {
	stored, ok := m.byID[cert.CertificateID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.FileURL = fileURL
	stored.UpdatedAt = at
	cert.FileURL = fileURL
	cert.UpdatedAt = at
	return nil
}

func (m *mockCertificateRepo) ListByUser(_ context.Context, userID uint) ([]model.Certificate, error) {
	var list []model.Certificate
	for _, c := range m.byID {
		if c.UserID == userID {
			list = append(list, *c)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CertificateID < list[j].CertificateID })
	return list, nil
}

// ── Mock BadgeRepository ──

type mockBadgeRepo struct {
	catalog   []model.Badge
	owned     []model.UserBadge
	awardErr  error
	nextOwnID uint
}

func newMockBadgeRepo() *mockBadgeRepo {
	m := &mockBadgeRepo{}
	for i, ms := range model.BadgeMilestones {
		m.catalog = append(m.catalog, model.Badge{
			BadgeID:     uint(i + 1),
			Name:        ms.Name,
			Description: ms.Name + " badge",
			Threshold:   int(ms.Threshold),
		})
	}
	return m
}

func (m *mockBadgeRepo) ListCatalog(_ context.Context) ([]model.Badge, error) {
	return append([]model.Badge(nil), m.catalog...), nil
}

func (m *mockBadgeRepo) AwardIfAbsent(_ context.Context, userID, badgeID uint, at time.Time) (bool, error) {
	if m.awardErr != nil {
		return false, m.awardErr
	}
	for _, ub := range m.owned {
		if ub.UserID == userID && ub.BadgeID == badgeID {
			return false, nil
		}
	}
	m.nextOwnID++
	m.owned = append(m.owned, model.UserBadge{UserBadgeID: m.nextOwnID, UserID: userID, BadgeID: badgeID, AwardedAt: at})
	return true, nil
}

func (m *mockBadgeRepo) ListByUser(_ context.Context, userID uint) ([]model.UserBadge, error) {
	var list []model.UserBadge
	for _, ub := range m.owned {
		if ub.UserID != userID {
			continue
		}
		for i := range m.catalog {
			if m.catalog[i].BadgeID == ub.BadgeID {
				b := m.catalog[i]
				ub.Badge = &b
			}
		}
		list = append(list, ub)
	}
	return list, nil
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct {
	items  []*model.Notification
	nextID uint
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{}
}

func (m *mockNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	m.nextID++
	n.NotificationID = m.nextID
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Unix(int64(m.nextID), 0)
	}
	cp := *n
	m.items = append(m.items, &cp)
	return nil
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID uint, offset, limit int) ([]model.Notification, int64, error) {
	var mine []model.Notification
	for i := len(m.items) - 1; i >= 0; i-- {
		if m.items[i].UserID == userID {
			mine = append(mine, *m.items[i])
		}
	}
	total := int64(len(mine))
	if offset >= len(mine) {
		return []model.Notification{}, total, nil
	}
	end := offset + limit
	if end > len(mine) {
		end = len(mine)
	}
	return mine[offset:end], total, nil
}

func (m *mockNotificationRepo) CountUnread(_ context.Context, userID uint) (int64, error) {
	var n int64
	for _, it := range m.items {
		if it.UserID == userID && !it.IsRead {
			n++
		}
	}
	return n, nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, id, userID uint) error {
	for _, it := range m.items {
		if it.NotificationID == id && it.UserID == userID {
			it.IsRead = true
			return nil
		}
	}
	return pkgerrors.ErrNoRows
}

// ── 证书渲染 / 存储 替身 ──

type fakeRenderer struct {
	calls   int
	lastDoc certificate.Document
	err     error
}

func (r *fakeRenderer) Render(doc certificate.Document) ([]byte, error) {
	r.calls++
	r.lastDoc = doc
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF-fake " + doc.Number), nil
}

type fakeStore struct {
	files map[string][]byte
	err   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{files: make(map[string][]byte)}
}

func (s *fakeStore) Save(_ context.Context, name string, data []byte) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.files[name] = data
	return "/media/" + name, nil
}

// ── 可控时钟 ──

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 29, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// ═══════════════════════════════════════════════════════════
// 测试环境：全部依赖为内存替身
// ═══════════════════════════════════════════════════════════

var errInfra = errors.New("数据库不可用")

type testEnv struct {
	repo          *repository.Repository
	users         *mockUserRepo
	projects      *mockProjectRepo
	tokens        *mockCheckinTokenRepo
	attendance    *mockAttendanceRepo
	certificates  *mockCertificateRepo
	badges        *mockBadgeRepo
	notifications *mockNotificationRepo
	renderer      *fakeRenderer
	store         *fakeStore
	clock         *fakeClock

	projectSvc      ProjectService
	checkinSvc      CheckinCodeService
	attendanceSvc   AttendanceService
	completion      CompletionEvaluator
	certificateSvc  CertificateService
	badgeSvc        BadgeService
	notificationSvc NotificationService
}

const (
	testLeaderID    uint = 1
	testVolunteerID uint = 2
	testOtherID     uint = 3
	testAdminID     uint = 4
	testProjectID   uint = 10
)

func setupTestEnv() *testEnv {
	users := newMockUserRepo()
	env := &testEnv{
		users:         users,
		projects:      newMockProjectRepo(users),
		tokens:        newMockCheckinTokenRepo(),
		attendance:    newMockAttendanceRepo(users),
		certificates:  newMockCertificateRepo(),
		badges:        newMockBadgeRepo(),
		notifications: newMockNotificationRepo(),
		renderer:      &fakeRenderer{},
		store:         newFakeStore(),
		clock:         newFakeClock(),
	}
	env.repo = &repository.Repository{
		User:         env.users,
		Project:      env.projects,
		CheckinToken: env.tokens,
		Attendance:   env.attendance,
		Certificate:  env.certificates,
		Badge:        env.badges,
		Notification: env.notifications,
	}

	users.users[testLeaderID] = &model.User{UserID: testLeaderID, PhoneNumber: "+250788000001", FirstName: "Jean", LastName: "Mugabo", Role: model.RoleLeader}
	users.users[testVolunteerID] = &model.User{UserID: testVolunteerID, PhoneNumber: "+250788000002", FirstName: "Aline", LastName: "Uwase", Role: model.RoleVolunteer}
	users.users[testOtherID] = &model.User{UserID: testOtherID, PhoneNumber: "+250788000003", FirstName: "Eric", Role: model.RoleVolunteer}
	users.users[testAdminID] = &model.User{UserID: testAdminID, PhoneNumber: "+250788000004", Role: model.RoleAdmin}

	env.projects.projects[testProjectID] = &model.Project{
		ProjectID:      testProjectID,
		Title:          "Tree Planting",
		Sector:         "Kimironko",
		Location:       "Kimironko Market",
		Datetime:       time.Date(2025, 3, 29, 8, 0, 0, 0, time.UTC),
		AdminID:        testLeaderID,
		Status:         model.ProjectPlanned,
		VersionedModel: model.VersionedModel{Version: 1},
	}

	logger := zap.NewNop()
	now := env.clock.Now
	env.completion = NewCompletionEvaluator(env.repo)
	env.projectSvc = NewProjectService(env.repo, logger)
	env.checkinSvc = NewCheckinCodeService(env.repo, checkincode.NewCodec(checkincode.DefaultNamespace), 24*time.Hour, 128, nil, logger, now)
	env.certificateSvc = NewCertificateService(env.repo, env.completion, env.renderer, env.store, "UMG", nil, logger, now)
	env.badgeSvc = NewBadgeService(env.repo, nil, logger, now)
	env.attendanceSvc = NewAttendanceService(env.repo, env.certificateSvc, env.badgeSvc, nil, logger, now)
	env.notificationSvc = NewNotificationService(env.repo, logger)
	return env
}

// setProjectStatus 直接修改存储中的项目状态
func (e *testEnv) setProjectStatus(status model.ProjectStatus) {
	e.projects.projects[testProjectID].Status = status
}

// closedSession 为用户写入一条已签退记录
func (e *testEnv) closedSession(userID, projectID uint) {
	in := e.clock.Now()
	out := in.Add(time.Hour)
	e.attendance.nextID++
	e.attendance.records = append(e.attendance.records, &model.Attendance{
		AttendanceID: e.attendance.nextID,
		UserID:       userID,
		ProjectID:    projectID,
		CheckInTime:  in,
		CheckOutTime: &out,
	})
}
