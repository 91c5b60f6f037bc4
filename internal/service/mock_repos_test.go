package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"berthops/internal/model"
	"berthops/internal/repository"
	pkgerrors "berthops/pkg/errors"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) add(id, name, role string) {
	m.users[id] = &model.User{UserID: id, Name: name, Role: role, IsActive: true}
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) ListByRole(_ context.Context, role string) ([]model.User, error) {
	var result []model.User
	for _, u := range m.users {
		if u.Role == role && u.IsActive {
			result = append(result, *u)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UserID < result[j].UserID })
	return result, nil
}

// ── Mock PlanRepository ──

type mockPlanRepo struct {
	plans []*model.WorkPlan
}

func newMockPlanRepo() *mockPlanRepo {
	return &mockPlanRepo{}
}

func (m *mockPlanRepo) GetByID(_ context.Context, id string) (*model.WorkPlan, error) {
	for _, p := range m.plans {
		if p.PlanID == id {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPlanRepo) FindCovering(_ context.Context, date time.Time) (*model.WorkPlan, error) {
	var found *model.WorkPlan
	for _, p := range m.plans {
		if p.Status == "archived" || !p.Contains(date) {
			continue
		}
		if found == nil || p.StartDate.Before(found.StartDate) {
			found = p
		}
	}
	if found == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return found, nil
}

// ── Mock JobRepository ──

type mockJobRepo struct {
	jobs  []*model.Job
	plans *mockPlanRepo
	seq   int
}

func newMockJobRepo(plans *mockPlanRepo) *mockJobRepo {
	return &mockJobRepo{plans: plans}
}

func (m *mockJobRepo) Create(_ context.Context, job *model.Job) error {
	if job.JobID == "" {
		m.seq++
		job.JobID = fmt.Sprintf("job-new-%d", m.seq)
	}
	c := *job
	c.Assignments = nil
	if p, err := m.plans.GetByID(context.Background(), job.PlanID); err == nil {
		c.Plan = p
	}
	m.jobs = append(m.jobs, &c)
	return nil
}

func (m *mockJobRepo) find(id string) *model.Job {
	for _, j := range m.jobs {
		if j.JobID == id {
			return j
		}
	}
	return nil
}

func (m *mockJobRepo) GetByID(_ context.Context, id string) (*model.Job, error) {
	if j := m.find(id); j != nil {
		c := *j
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockJobRepo) List(_ context.Context, filter repository.JobFilter) ([]model.Job, error) {
	var result []model.Job
	for _, j := range m.jobs {
		if !model.DateOnly(j.ScheduledDate).Equal(model.DateOnly(filter.Date)) {
			continue
		}
		if filter.Shift != "" && j.Shift != filter.Shift {
			continue
		}
		if filter.PlanOwnerID != "" && (j.Plan == nil || j.Plan.OwnerID != filter.PlanOwnerID) {
			continue
		}
		if filter.WorkerID != "" && !j.HasWorker(filter.WorkerID) {
			continue
		}
		result = append(result, *j)
	}
	return result, nil
}

func (m *mockJobRepo) BatchCreateAssignments(_ context.Context, assignments []model.JobAssignment) error {
	for _, a := range assignments {
		j := m.find(a.JobID)
		if j == nil {
			return gorm.ErrRecordNotFound
		}
		j.Assignments = append(j.Assignments, a)
	}
	return nil
}

// ── Mock TrackingRepository ──

type mockTrackingRepo struct {
	trackings map[string]*model.JobTracking // job_id → tracking
	seq       int
	updateErr map[string]error // job_id → Update 返回的错误
}

func newMockTrackingRepo() *mockTrackingRepo {
	return &mockTrackingRepo{trackings: make(map[string]*model.JobTracking)}
}

func (m *mockTrackingRepo) Create(_ context.Context, t *model.JobTracking) error {
	if _, ok := m.trackings[t.JobID]; ok {
		return gorm.ErrDuplicatedKey
	}
	m.seq++
	if t.TrackingID == "" {
		t.TrackingID = fmt.Sprintf("trk-%d", m.seq)
	}
	if t.Version == 0 {
		t.Version = 1
	}
	c := *t
	m.trackings[t.JobID] = &c
	return nil
}

func (m *mockTrackingRepo) GetByJobID(_ context.Context, jobID string) (*model.JobTracking, error) {
	if t, ok := m.trackings[jobID]; ok {
		c := *t
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTrackingRepo) ListByJobIDs(_ context.Context, jobIDs []string) ([]model.JobTracking, error) {
	var result []model.JobTracking
	for _, id := range jobIDs {
		if t, ok := m.trackings[id]; ok {
			result = append(result, *t)
		}
	}
	return result, nil
}

func (m *mockTrackingRepo) Update(_ context.Context, t *model.JobTracking) error {
	if err := m.updateErr[t.JobID]; err != nil {
		return err
	}
	stored, ok := m.trackings[t.JobID]
	if !ok || stored.Version != t.Version {
		return pkgerrors.ErrOptimisticLock
	}
	t.Version++
	c := *t
	m.trackings[t.JobID] = &c
	return nil
}

// ── Mock JobLogRepository ──

type mockJobLogRepo struct {
	logs []model.JobLog
}

func newMockJobLogRepo() *mockJobLogRepo {
	return &mockJobLogRepo{}
}

func (m *mockJobLogRepo) Append(_ context.Context, log *model.JobLog) error {
	log.LogID = fmt.Sprintf("log-%d", len(m.logs)+1)
	m.logs = append(m.logs, *log)
	return nil
}

func (m *mockJobLogRepo) ListByJob(_ context.Context, jobID string) ([]model.JobLog, error) {
	var result []model.JobLog
	for _, l := range m.logs {
		if l.JobID == jobID {
			result = append(result, l)
		}
	}
	return result, nil
}

// ── Mock PauseRequestRepository ──

type mockPauseRequestRepo struct {
	requests []*model.PauseRequest
	jobs     *mockJobRepo
}

func newMockPauseRequestRepo(jobs *mockJobRepo) *mockPauseRequestRepo {
	return &mockPauseRequestRepo{jobs: jobs}
}

func (m *mockPauseRequestRepo) Create(_ context.Context, pr *model.PauseRequest) error {
	pr.PauseRequestID = fmt.Sprintf("pr-%d", len(m.requests)+1)
	c := *pr
	m.requests = append(m.requests, &c)
	return nil
}

func (m *mockPauseRequestRepo) find(id string) *model.PauseRequest {
	for _, p := range m.requests {
		if p.PauseRequestID == id {
			return p
		}
	}
	return nil
}

func (m *mockPauseRequestRepo) GetByID(_ context.Context, id string) (*model.PauseRequest, error) {
	p := m.find(id)
	if p == nil {
		return nil, gorm.ErrRecordNotFound
	}
	c := *p
	if j := m.jobs.find(p.JobID); j != nil {
		jc := *j
		c.Job = &jc
	}
	return &c, nil
}

func (m *mockPauseRequestRepo) List(_ context.Context, filter repository.PauseRequestFilter) ([]model.PauseRequest, error) {
	var result []model.PauseRequest
	if filter.JobIDs != nil && len(filter.JobIDs) == 0 {
		return result, nil
	}
	allowed := make(map[string]bool, len(filter.JobIDs))
	for _, id := range filter.JobIDs {
		allowed[id] = true
	}
	for _, p := range m.requests {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.JobIDs != nil && !allowed[p.JobID] {
			continue
		}
		result = append(result, *p)
	}
	return result, nil
}

func (m *mockPauseRequestRepo) RecordResume(_ context.Context, id string, resumedAt time.Time, durationMinutes float64) error {
	p := m.find(id)
	if p == nil {
		return gorm.ErrRecordNotFound
	}
	p.ResumedAt = &resumedAt
	p.DurationMinutes = &durationMinutes
	return nil
}

func (m *mockPauseRequestRepo) Review(_ context.Context, id, status, reviewerID, note string, reviewedAt time.Time) (bool, error) {
	p := m.find(id)
	if p == nil || p.Status != model.PauseStatusPending {
		return false, nil
	}
	p.Status = status
	p.ReviewedBy = &reviewerID
	p.ReviewedAt = &reviewedAt
	p.ReviewNote = note
	return true, nil
}

// ── Mock RatingRepository ──

type mockRatingRepo struct {
	ratings []*model.JobRating
}

func newMockRatingRepo() *mockRatingRepo {
	return &mockRatingRepo{}
}

func (m *mockRatingRepo) Create(_ context.Context, r *model.JobRating) error {
	for _, existing := range m.ratings {
		if existing.JobID == r.JobID && existing.WorkerID == r.WorkerID {
			return gorm.ErrDuplicatedKey
		}
	}
	r.RatingID = fmt.Sprintf("rating-%d", len(m.ratings)+1)
	if r.Version == 0 {
		r.Version = 1
	}
	c := *r
	m.ratings = append(m.ratings, &c)
	return nil
}

func (m *mockRatingRepo) GetByID(_ context.Context, id string) (*model.JobRating, error) {
	for _, r := range m.ratings {
		if r.RatingID == id {
			c := *r
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRatingRepo) GetByJobAndWorker(_ context.Context, jobID, workerID string) (*model.JobRating, error) {
	for _, r := range m.ratings {
		if r.JobID == jobID && r.WorkerID == workerID {
			c := *r
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRatingRepo) ListByReview(_ context.Context, reviewID string) ([]model.JobRating, error) {
	var result []model.JobRating
	for _, r := range m.ratings {
		if r.ReviewID == reviewID {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockRatingRepo) ListByJobIDs(_ context.Context, jobIDs []string) ([]model.JobRating, error) {
	allowed := make(map[string]bool, len(jobIDs))
	for _, id := range jobIDs {
		allowed[id] = true
	}
	var result []model.JobRating
	for _, r := range m.ratings {
		if allowed[r.JobID] {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockRatingRepo) Update(_ context.Context, r *model.JobRating) error {
	for i, existing := range m.ratings {
		if existing.RatingID != r.RatingID {
			continue
		}
		if existing.Version != r.Version {
			return pkgerrors.ErrOptimisticLock
		}
		r.Version++
		c := *r
		m.ratings[i] = &c
		return nil
	}
	return pkgerrors.ErrOptimisticLock
}

// ── Mock ScoreRepository / PointDeltaRepository ──

type mockScoreRepo struct {
	totals map[string]int
}

func newMockScoreRepo() *mockScoreRepo {
	return &mockScoreRepo{totals: make(map[string]int)}
}

func (m *mockScoreRepo) ApplyDelta(_ context.Context, workerID string, delta int) error {
	m.totals[workerID] += delta
	return nil
}

func (m *mockScoreRepo) GetByUser(_ context.Context, workerID string) (*model.WorkerScore, error) {
	total, ok := m.totals[workerID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &model.WorkerScore{UserID: workerID, TotalPoints: total}, nil
}

type mockPointDeltaRepo struct {
	deltas []*model.PointDelta
}

func newMockPointDeltaRepo() *mockPointDeltaRepo {
	return &mockPointDeltaRepo{}
}

func (m *mockPointDeltaRepo) Create(_ context.Context, d *model.PointDelta) error {
	d.DeltaID = fmt.Sprintf("delta-%d", len(m.deltas)+1)
	c := *d
	m.deltas = append(m.deltas, &c)
	return nil
}

func (m *mockPointDeltaRepo) ListPendingByReview(_ context.Context, reviewID string) ([]model.PointDelta, error) {
	var result []model.PointDelta
	for _, d := range m.deltas {
		if d.AppliedAt == nil && d.ReviewID != nil && *d.ReviewID == reviewID {
			result = append(result, *d)
		}
	}
	return result, nil
}

func (m *mockPointDeltaRepo) MarkApplied(_ context.Context, ids []string, appliedAt time.Time) error {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	for _, d := range m.deltas {
		if set[d.DeltaID] && d.AppliedAt == nil {
			at := appliedAt
			d.AppliedAt = &at
		}
	}
	return nil
}

// ── Mock DailyReviewRepository ──

type mockReviewRepo struct {
	reviews []*model.DailyReview
	// beforeLock 在加锁读取前调用，用于模拟并发事务先行提交
	beforeLock func(id string)
}

func newMockReviewRepo() *mockReviewRepo {
	return &mockReviewRepo{}
}

func (m *mockReviewRepo) GetOrCreate(_ context.Context, engineerID string, date time.Time, shift string) (*model.DailyReview, error) {
	d := model.DateOnly(date)
	for _, r := range m.reviews {
		if r.EngineerID == engineerID && r.ReviewDate.Equal(d) && r.Shift == shift {
			c := *r
			return &c, nil
		}
	}
	r := &model.DailyReview{
		ReviewID:   fmt.Sprintf("review-%d", len(m.reviews)+1),
		EngineerID: engineerID,
		ReviewDate: d,
		Shift:      shift,
		Status:     model.ReviewOpen,
	}
	r.Version = 1
	m.reviews = append(m.reviews, r)
	c := *r
	return &c, nil
}

func (m *mockReviewRepo) GetByID(_ context.Context, id string) (*model.DailyReview, error) {
	for _, r := range m.reviews {
		if r.ReviewID == id {
			c := *r
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockReviewRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.DailyReview, error) {
	if m.beforeLock != nil {
		m.beforeLock(id)
	}
	return m.GetByID(ctx, id)
}

func (m *mockReviewRepo) Update(_ context.Context, review *model.DailyReview) error {
	for i, r := range m.reviews {
		if r.ReviewID != review.ReviewID {
			continue
		}
		if r.Version != review.Version {
			return pkgerrors.ErrOptimisticLock
		}
		review.Version++
		c := *review
		m.reviews[i] = &c
		return nil
	}
	return pkgerrors.ErrOptimisticLock
}

// ── Mock CarryOverRepository ──

type mockCarryOverRepo struct {
	records []*model.CarryOver
	jobs    *mockJobRepo
}

func newMockCarryOverRepo(jobs *mockJobRepo) *mockCarryOverRepo {
	return &mockCarryOverRepo{jobs: jobs}
}

func (m *mockCarryOverRepo) Create(_ context.Context, co *model.CarryOver) error {
	for _, r := range m.records {
		if r.OriginalJobID == co.OriginalJobID {
			return gorm.ErrDuplicatedKey
		}
	}
	co.CarryOverID = fmt.Sprintf("co-%d", len(m.records)+1)
	c := *co
	m.records = append(m.records, &c)
	return nil
}

func (m *mockCarryOverRepo) GetByOriginalJob(_ context.Context, originalJobID string) (*model.CarryOver, error) {
	for _, r := range m.records {
		if r.OriginalJobID == originalJobID {
			c := *r
			if j := m.jobs.find(r.NewJobID); j != nil {
				jc := *j
				c.NewJob = &jc
			}
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCarryOverRepo) ListByOriginalJobs(_ context.Context, ids []string) ([]model.CarryOver, error) {
	allowed := make(map[string]bool, len(ids))
	for _, id := range ids {
		allowed[id] = true
	}
	var result []model.CarryOver
	for _, r := range m.records {
		if allowed[r.OriginalJobID] {
			result = append(result, *r)
		}
	}
	return result, nil
}

// ── Mock PerformanceRepository ──

type mockPerformanceRepo struct {
	records []*model.PerformanceRecord
}

func newMockPerformanceRepo() *mockPerformanceRepo {
	return &mockPerformanceRepo{}
}

func (m *mockPerformanceRepo) Upsert(_ context.Context, rec *model.PerformanceRecord) error {
	start := model.DateOnly(rec.PeriodStart)
	for i, r := range m.records {
		if r.WorkerID == rec.WorkerID && r.PeriodType == rec.PeriodType && r.PeriodStart.Equal(start) {
			rec.RecordID = r.RecordID
			c := *rec
			c.PeriodStart = start
			m.records[i] = &c
			return nil
		}
	}
	rec.RecordID = fmt.Sprintf("perf-%d", len(m.records)+1)
	c := *rec
	c.PeriodStart = start
	m.records = append(m.records, &c)
	return nil
}

func (m *mockPerformanceRepo) GetByKey(_ context.Context, workerID, periodType string, periodStart time.Time) (*model.PerformanceRecord, error) {
	start := model.DateOnly(periodStart)
	for _, r := range m.records {
		if r.WorkerID == workerID && r.PeriodType == periodType && r.PeriodStart.Equal(start) {
			c := *r
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPerformanceRepo) GetLatestDailyBefore(_ context.Context, workerID string, date time.Time) (*model.PerformanceRecord, error) {
	d := model.DateOnly(date)
	var latest *model.PerformanceRecord
	for _, r := range m.records {
		if r.WorkerID != workerID || r.PeriodType != model.PeriodDaily || !r.PeriodStart.Before(d) {
			continue
		}
		if latest == nil || r.PeriodStart.After(latest.PeriodStart) {
			latest = r
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	c := *latest
	return &c, nil
}

func (m *mockPerformanceRepo) List(_ context.Context, filter repository.PerformanceFilter) ([]model.PerformanceRecord, error) {
	var result []model.PerformanceRecord
	for _, r := range m.records {
		if filter.WorkerID != "" && r.WorkerID != filter.WorkerID {
			continue
		}
		if filter.PeriodType != "" && r.PeriodType != filter.PeriodType {
			continue
		}
		if filter.From != nil && r.PeriodStart.Before(model.DateOnly(*filter.From)) {
			continue
		}
		if filter.To != nil && r.PeriodStart.After(model.DateOnly(*filter.To)) {
			continue
		}
		result = append(result, *r)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].PeriodStart.Equal(result[j].PeriodStart) {
			return result[i].PeriodStart.Before(result[j].PeriodStart)
		}
		return result[i].WorkerID < result[j].WorkerID
	})
	return result, nil
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct {
	items []*model.Notification
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{}
}

func (m *mockNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	n.NotificationID = fmt.Sprintf("ntf-%d", len(m.items)+1)
	c := *n
	m.items = append(m.items, &c)
	return nil
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID string, unreadOnly bool, offset, limit int) ([]model.Notification, int64, error) {
	var all []model.Notification
	for _, n := range m.items {
		if n.UserID != userID || (unreadOnly && n.IsRead) {
			continue
		}
		all = append(all, *n)
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, id, userID string) (bool, error) {
	for _, n := range m.items {
		if n.NotificationID == id && n.UserID == userID {
			n.IsRead = true
			return true, nil
		}
	}
	return false, nil
}

// byType 按类型过滤通知
func (m *mockNotificationRepo) byType(typ string) []*model.Notification {
	var result []*model.Notification
	for _, n := range m.items {
		if n.Type == typ {
			result = append(result, n)
		}
	}
	return result
}

// ── 测试夹具 ──

type testEnv struct {
	repo          *repository.Repository
	users         *mockUserRepo
	plans         *mockPlanRepo
	jobs          *mockJobRepo
	trackings     *mockTrackingRepo
	logs          *mockJobLogRepo
	pauses        *mockPauseRequestRepo
	ratings       *mockRatingRepo
	scores        *mockScoreRepo
	deltas        *mockPointDeltaRepo
	reviews       *mockReviewRepo
	carryOvers    *mockCarryOverRepo
	performance   *mockPerformanceRepo
	notifications *mockNotificationRepo
}

// 测试用户
const (
	adminID    = "u-admin"
	engineerID = "u-eng"
	otherEngID = "u-eng-2"
	workerID   = "u-worker"
	worker2ID  = "u-worker-2"
)

var (
	adminActor    = Actor{UserID: adminID, Role: "admin"}
	engineerActor = Actor{UserID: engineerID, Role: "engineer"}
	otherEngActor = Actor{UserID: otherEngID, Role: "engineer"}
	workerActor   = Actor{UserID: workerID, Role: "worker"}
	worker2Actor  = Actor{UserID: worker2ID, Role: "worker"}
)

func newTestEnv() *testEnv {
	env := &testEnv{
		users:         newMockUserRepo(),
		plans:         newMockPlanRepo(),
		trackings:     newMockTrackingRepo(),
		logs:          newMockJobLogRepo(),
		ratings:       newMockRatingRepo(),
		scores:        newMockScoreRepo(),
		deltas:        newMockPointDeltaRepo(),
		reviews:       newMockReviewRepo(),
		performance:   newMockPerformanceRepo(),
		notifications: newMockNotificationRepo(),
	}
	env.jobs = newMockJobRepo(env.plans)
	env.pauses = newMockPauseRequestRepo(env.jobs)
	env.carryOvers = newMockCarryOverRepo(env.jobs)

	env.users.add(adminID, "管理员", "admin")
	env.users.add(engineerID, "王工", "engineer")
	env.users.add(otherEngID, "李工", "engineer")
	env.users.add(workerID, "张三", "worker")
	env.users.add(worker2ID, "李四", "worker")

	env.repo = &repository.Repository{
		User:         env.users,
		Plan:         env.plans,
		Job:          env.jobs,
		Tracking:     env.trackings,
		JobLog:       env.logs,
		PauseRequest: env.pauses,
		Rating:       env.ratings,
		Score:        env.scores,
		PointDelta:   env.deltas,
		Review:       env.reviews,
		CarryOver:    env.carryOvers,
		Performance:  env.performance,
		Notification: env.notifications,
	}
	return env
}

func mustDate(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

// addPlan 新增 [start, end] 区间的计划
func (e *testEnv) addPlan(id, ownerID, start, end string) *model.WorkPlan {
	p := &model.WorkPlan{
		PlanID:    id,
		Name:      id,
		StartDate: mustDate(start),
		EndDate:   mustDate(end),
		OwnerID:   ownerID,
		Status:    "active",
	}
	e.plans.plans = append(e.plans.plans, p)
	return p
}

// addJob 新增作业并分配工人
func (e *testEnv) addJob(id string, plan *model.WorkPlan, date, shift string, estimate float64, workers ...string) *model.Job {
	j := &model.Job{
		JobID:          id,
		PlanID:         plan.PlanID,
		ScheduledDate:  mustDate(date),
		Shift:          shift,
		Berth:          "B-" + id,
		Priority:       "normal",
		EstimatedHours: estimate,
		Description:    "更换吊具钢丝绳",
		Plan:           plan,
	}
	for _, w := range workers {
		j.Assignments = append(j.Assignments, model.JobAssignment{JobID: id, WorkerID: w})
	}
	e.jobs.jobs = append(e.jobs.jobs, j)
	return j
}

// setTracking 直接写入跟踪记录
func (e *testEnv) setTracking(jobID, status string) *model.JobTracking {
	t := &model.JobTracking{JobID: jobID, Status: status}
	_ = e.trackings.Create(context.Background(), t)
	return t
}

// clock 可手动推进的测试时钟
type clock struct {
	t time.Time
}

func newClock(s string) *clock {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &clock{t: t}
}

func (c *clock) now() time.Time { return c.t }

func (c *clock) set(s string) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	c.t = t
}
