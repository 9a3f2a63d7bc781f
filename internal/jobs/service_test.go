package jobs

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"jobboard/internal/auth"
	"jobboard/internal/database"
	"jobboard/internal/database/dbtest"
	"jobboard/internal/errcode"
	"jobboard/internal/notify"
	"jobboard/internal/scan"
)

type recordingDispatcher struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (d *recordingDispatcher) Dispatch(_ context.Context, msg notify.Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.msgs = append(d.msgs, msg)
	return nil
}

func (d *recordingDispatcher) byKind(k notify.Kind) []notify.Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []notify.Message
	for _, m := range d.msgs {
		if m.Kind == k {
			out = append(out, m)
		}
	}
	return out
}

type recordingPublisher struct {
	events map[uint][]notify.StatusEvent
}

func (p *recordingPublisher) PublishStatus(_ context.Context, accountID uint, ev notify.StatusEvent) error {
	if p.events == nil {
		p.events = map[uint][]notify.StatusEvent{}
	}
	p.events[accountID] = append(p.events[accountID], ev)
	return nil
}

type memStore struct {
	objects map[string][]byte
	deleted []string
}

func newMemStore() *memStore { return &memStore{objects: map[string][]byte{}} }

func (m *memStore) UploadFile(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[key] = b
	return nil
}

func (m *memStore) GeneratePresignedURL(_ context.Context, key string, _ time.Duration, filename string) (string, error) {
	return "https://files.test/" + key + "?name=" + filename, nil
}

func (m *memStore) DeleteObject(_ context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	delete(m.objects, key)
	return nil
}

type rejectScanner struct{}

func (rejectScanner) Scan(context.Context, io.Reader) error { return scan.ErrInfected }

var fixedNow = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

type fixture struct {
	db     *gorm.DB
	svc    *Service
	events *recordingDispatcher
	live   *recordingPublisher
	store  *memStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		db:     dbtest.Open(t),
		events: &recordingDispatcher{},
		live:   &recordingPublisher{},
		store:  newMemStore(),
	}
	f.svc = NewService(Deps{
		DB:     f.db,
		Events: f.events,
		Live:   f.live,
		Store:  f.store,
		Now:    func() time.Time { return fixedNow },
	})
	return f
}

func (f *fixture) candidate(t *testing.T, email, name string) *auth.Principal {
	t.Helper()
	acc := database.Account{Email: email, Role: database.RoleCandidate, IsActive: true, IsVerified: true}
	require.NoError(t, f.db.Create(&acc).Error)
	c := database.CandidateProfile{AccountID: acc.ID, FirstName: name, LastName: "Doe", Email: email}
	require.NoError(t, f.db.Create(&c).Error)
	return auth.NewPrincipal(&acc, &c)
}

func (f *fixture) company(t *testing.T, email, name string) *auth.Principal {
	t.Helper()
	acc := database.Account{Email: email, Role: database.RoleCompany, IsActive: true, IsVerified: true}
	require.NoError(t, f.db.Create(&acc).Error)
	c := database.CompanyProfile{AccountID: acc.ID, FirstName: "Boss", LastName: "Man", CompanyName: name}
	require.NoError(t, f.db.Create(&c).Error)
	return auth.NewPrincipal(&acc, &c)
}

func listingInput(title string) ListingInput {
	return ListingInput{
		Title:          title,
		Description:    "Build services in Go",
		Location:       "Berlin",
		JobType:        "full-time",
		SkillsRequired: "go, postgres",
	}
}

func (f *fixture) post(t *testing.T, p *auth.Principal, title string) *database.Listing {
	t.Helper()
	l, err := f.svc.Post(context.Background(), p, listingInput(title))
	require.NoError(t, err)
	return l
}

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestPostClampsVacancies(t *testing.T) {
	f := newFixture(t)
	emp := f.company(t, "e@x.io", "Acme")

	for _, raw := range []string{"0", "", "-3", "abc"} {
		in := listingInput("Go Dev")
		in.Vacancies = raw
		l, err := f.svc.Post(context.Background(), emp, in)
		require.NoError(t, err, raw)
		assert.Equal(t, 1, l.Vacancies, raw)
	}

	in := listingInput("Go Dev")
	in.Vacancies = "4"
	l, err := f.svc.Post(context.Background(), emp, in)
	require.NoError(t, err)

	var stored database.Listing
	require.NoError(t, f.db.First(&stored, l.ID).Error)
	assert.Equal(t, 4, stored.Vacancies)
	assert.Equal(t, "Acme", stored.CompanyName)
	assert.True(t, stored.IsActive)
	assert.Equal(t, database.Experience0To1, stored.Experience)
}

func TestPostRejectsPastDeadline(t *testing.T) {
	f := newFixture(t)
	emp := f.company(t, "e@x.io", "Acme")

	in := listingInput("Go Dev")
	in.ApplicationDeadline = fixedNow.AddDate(0, 0, -1).Format("2006-01-02")
	_, err := f.svc.Post(context.Background(), emp, in)
	require.Error(t, err)
	e, ok := errcode.As(err)
	require.True(t, ok)
	assert.Equal(t, errcode.Validation, e.Kind)
	assert.Contains(t, e.Msg, "past")
	assert.Equal(t, "Go Dev", e.Fields["title"])
	assert.Zero(t, countRows(t, f.db, &database.Listing{}))

	in.ApplicationDeadline = fixedNow.Format("2006-01-02")
	l, err := f.svc.Post(context.Background(), emp, in)
	require.NoError(t, err)
	require.NotNil(t, l.ApplicationDeadline)

	in.ApplicationDeadline = "10/03/2026"
	l, err = f.svc.Post(context.Background(), emp, in)
	require.NoError(t, err)
	assert.Nil(t, l.ApplicationDeadline)
}

func TestPostValidation(t *testing.T) {
	f := newFixture(t)
	emp := f.company(t, "e@x.io", "Acme")
	cand := f.candidate(t, "c@x.io", "Ann")

	_, err := f.svc.Post(context.Background(), cand, listingInput("Go Dev"))
	assert.True(t, errors.Is(err, errcode.ErrForbidden))

	in := listingInput("")
	_, err = f.svc.Post(context.Background(), emp, in)
	assert.True(t, errors.Is(err, errcode.ErrValidation))

	in = listingInput("Go Dev")
	in.JobType = "gig"
	_, err = f.svc.Post(context.Background(), emp, in)
	assert.True(t, errors.Is(err, errcode.ErrValidation))
}

func TestApplyTwiceIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	emp := f.company(t, "e@x.io", "Acme")
	cand := f.candidate(t, "c@x.io", "Ann")
	l := f.post(t, emp, "Go Dev")

	app, err := f.svc.Apply(ctx, cand, l.ID, ApplyInput{CoverLetter: "hire me"})
	require.NoError(t, err)
	assert.Equal(t, database.StatusPending, app.Status)

	_, err = f.svc.Apply(ctx, cand, l.ID, ApplyInput{CoverLetter: "again"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errcode.ErrConflict))
	assert.EqualValues(t, 1, countRows(t, f.db, &database.Application{}))

	received := f.events.byKind(notify.KindApplicationSent)
	require.Len(t, received, 1)
	assert.Equal(t, "c@x.io", received[0].To)
	employer := f.events.byKind(notify.KindNewApplication)
	require.Len(t, employer, 1)
	assert.Equal(t, "e@x.io", employer[0].To)
}

// raceAhead 让下一次写入 T 之前先在同一事务里插入 winner，
// 模拟并发请求抢先提交，使本次写入撞上唯一索引。
func raceAhead[T any](t *testing.T, db *gorm.DB, winner *T) {
	t.Helper()
	fired := false
	err := db.Callback().Create().Before("gorm:create").Register("test:race_ahead", func(tx *gorm.DB) {
		if _, ok := tx.Statement.Dest.(*T); !ok || fired {
			return
		}
		fired = true
		if err := tx.Session(&gorm.Session{NewDB: true}).Create(winner).Error; err != nil {
			tx.AddError(err)
		}
	})
	require.NoError(t, err)
}

func TestApplyLosingDuplicateRaceIsConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	emp := f.company(t, "e@x.io", "Acme")
	cand := f.candidate(t, "c@x.io", "Ann")
	l := f.post(t, emp, "Go Dev")

	raceAhead(t, f.db, &database.Application{
		ListingID:   l.ID,
		CandidateID: cand.ProfileID(),
		CoverLetter: "first",
		Status:      database.StatusPending,
	})
	content := []byte("%PDF-1.4 resume")
	upload := &ResumeUpload{
		Filename: "cv.pdf",
		Size:     int64(len(content)),
		Open:     func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(content)), nil },
	}
	_, err := f.svc.Apply(ctx, cand, l.ID, ApplyInput{CoverLetter: "second", Resume: upload})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errcode.ErrConflict), "got %v", err)
	assert.Equal(t, msgAlreadyApplied, err.Error())
	assert.Empty(t, f.store.objects, "uploaded resume must be discarded")
	assert.Len(t, f.store.deleted, 1)
	assert.Empty(t, f.events.byKind(notify.KindApplicationSent))
}

func TestApplyRequiresCandidateActiveListingAndCoverLetter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	emp := f.company(t, "e@x.io", "Acme")
	cand := f.candidate(t, "c@x.io", "Ann")
	l := f.post(t, emp, "Go Dev")

	_, err := f.svc.Apply(ctx, emp, l.ID, ApplyInput{CoverLetter: "x"})
	assert.True(t, errors.Is(err, errcode.ErrForbidden))

	_, err = f.svc.Apply(ctx, cand, l.ID, ApplyInput{CoverLetter: "  "})
	assert.True(t, errors.Is(err, errcode.ErrValidation))

	require.NoError(t, f.db.Model(&database.Listing{}).Where("id = ?", l.ID).Update("is_active", false).Error)
	_, err = f.svc.Apply(ctx, cand, l.ID, ApplyInput{CoverLetter: "x"})
	assert.True(t, errors.Is(err, errcode.ErrNotFound))
	assert.Zero(t, countRows(t, f.db, &database.Application{}))
}

func TestApplyWithResume(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	emp := f.company(t, "e@x.io", "Acme")
	cand := f.candidate(t, "c@x.io", "Ann")
	other := f.candidate(t, "o@x.io", "Olga")
	l := f.post(t, emp, "Go Dev")

	content := []byte("%PDF-1.4 resume")
	upload := &ResumeUpload{
		Filename: "cv.PDF",
		Size:     int64(len(content)),
		Open:     func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(content)), nil },
	}
	app, err := f.svc.Apply(ctx, cand, l.ID, ApplyInput{CoverLetter: "hi", Resume: upload})
	require.NoError(t, err)
	assert.Regexp(t, `^resumes/\d+/[0-9a-f-]{36}\.pdf$`, app.ResumeKey)
	assert.Equal(t, content, f.store.objects[app.ResumeKey])

	link, err := f.svc.ResumeLink(ctx, emp, app.ID)
	require.NoError(t, err)
	assert.Contains(t, link, app.ResumeKey)

	_, err = f.svc.ResumeLink(ctx, cand, app.ID)
	assert.NoError(t, err)

	_, err = f.svc.ResumeLink(ctx, other, app.ID)
	assert.True(t, errors.Is(err, errcode.ErrForbidden))

	_, err = f.svc.Delete(ctx, emp, l.ID)
	require.NoError(t, err)
	assert.Contains(t, f.store.deleted, app.ResumeKey)
}

func TestApplyRejectsBadResume(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	emp := f.company(t, "e@x.io", "Acme")
	cand := f.candidate(t, "c@x.io", "Ann")
	l := f.post(t, emp, "Go Dev")
	open := func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader([]byte("x"))), nil }

	_, err := f.svc.Apply(ctx, cand, l.ID, ApplyInput{CoverLetter: "hi", Resume: &ResumeUpload{Filename: "cv.exe", Size: 1, Open: open}})
	assert.True(t, errors.Is(err, errcode.ErrValidation))

	_, err = f.svc.Apply(ctx, cand, l.ID, ApplyInput{CoverLetter: "hi", Resume: &ResumeUpload{Filename: "cv.pdf", Size: 6 << 20, Open: open}})
	assert.True(t, errors.Is(err, errcode.ErrValidation))

	f.svc.scanner = rejectScanner{}
	_, err = f.svc.Apply(ctx, cand, l.ID, ApplyInput{CoverLetter: "hi", Resume: &ResumeUpload{Filename: "cv.pdf", Size: 1, Open: open}})
	assert.True(t, errors.Is(err, errcode.ErrValidation))

	assert.Empty(t, f.store.objects)
	assert.Zero(t, countRows(t, f.db, &database.Application{}))
}

func TestToggleSaveTwiceRestoresState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	emp := f.company(t, "e@x.io", "Acme")
	cand := f.candidate(t, "c@x.io", "Ann")
	l := f.post(t, emp, "Go Dev")

	saved, err := f.svc.ToggleSave(ctx, cand, l.ID)
	require.NoError(t, err)
	assert.True(t, saved)
	assert.EqualValues(t, 1, countRows(t, f.db, &database.SavedListing{}))

	list, err := f.svc.SavedListings(ctx, cand)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Go Dev", list[0].Listing.Title)

	saved, err = f.svc.ToggleSave(ctx, cand, l.ID)
	require.NoError(t, err)
	assert.False(t, saved)
	assert.Zero(t, countRows(t, f.db, &database.SavedListing{}))
}

func TestToggleSaveLosingDuplicateRaceReportsSaved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	emp := f.company(t, "e@x.io", "Acme")
	cand := f.candidate(t, "c@x.io", "Ann")
	l := f.post(t, emp, "Go Dev")

	raceAhead(t, f.db, &database.SavedListing{CandidateID: cand.ProfileID(), ListingID: l.ID})
	saved, err := f.svc.ToggleSave(ctx, cand, l.ID)
	require.NoError(t, err)
	assert.True(t, saved, "a concurrent save already bookmarked the listing")
}

func TestApplyStatusChangeIsTotal(t *testing.T) {
	for _, old := range database.Statuses {
		for _, next := range database.Statuses {
			got, notified := ApplyStatusChange(old, next)
			assert.Equal(t, next, got)
			assert.Equal(t, old != next, notified, "%s -> %s", old, next)
		}
	}
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	emp := f.company(t, "e@x.io", "Acme")
	rival := f.company(t, "r@x.io", "Rival")
	cand := f.candidate(t, "c@x.io", "Ann")
	l := f.post(t, emp, "Go Dev")
	app, err := f.svc.Apply(ctx, cand, l.ID, ApplyInput{CoverLetter: "hi"})
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, rival, app.ID, "hired")
	assert.True(t, errors.Is(err, errcode.ErrForbidden))

	_, err = f.svc.UpdateStatus(ctx, emp, app.ID, "promoted")
	assert.True(t, errors.Is(err, errcode.ErrValidation))

	_, err = f.svc.UpdateStatus(ctx, emp, 999, "hired")
	assert.True(t, errors.Is(err, errcode.ErrNotFound))

	res, err := f.svc.UpdateStatus(ctx, emp, app.ID, "interview")
	require.NoError(t, err)
	assert.True(t, res.Notified)
	assert.Equal(t, database.StatusPending, res.Previous)
	assert.Len(t, f.events.byKind(notify.KindStatusChanged), 1)
	require.Len(t, f.live.events[cand.AccountID], 1)
	assert.Equal(t, "Interview Scheduled", f.live.events[cand.AccountID][0].StatusLabel)

	res, err = f.svc.UpdateStatus(ctx, emp, app.ID, "interview")
	require.NoError(t, err)
	assert.False(t, res.Notified)
	assert.Len(t, f.events.byKind(notify.KindStatusChanged), 1)

	// transitions are unrestricted
	res, err = f.svc.UpdateStatus(ctx, emp, app.ID, "pending")
	require.NoError(t, err)
	assert.True(t, res.Notified)

	var stored database.Application
	require.NoError(t, f.db.First(&stored, app.ID).Error)
	assert.Equal(t, database.StatusPending, stored.Status)
}

func TestOwnershipChecks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	emp := f.company(t, "e@x.io", "Acme")
	rival := f.company(t, "r@x.io", "Rival")
	l := f.post(t, emp, "Go Dev")

	_, err := f.svc.Edit(ctx, rival, l.ID, listingInput("Stolen"))
	assert.True(t, errors.Is(err, errcode.ErrForbidden))
	_, err = f.svc.Delete(ctx, rival, l.ID)
	assert.True(t, errors.Is(err, errcode.ErrForbidden))
	_, _, err = f.svc.ListingApplications(ctx, rival, l.ID)
	assert.True(t, errors.Is(err, errcode.ErrForbidden))

	edited, err := f.svc.Edit(ctx, emp, l.ID, listingInput("Senior Go Dev"))
	require.NoError(t, err)
	assert.Equal(t, "Senior Go Dev", edited.Title)
}

func TestDeleteCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	emp := f.company(t, "e@x.io", "Acme")
	cand := f.candidate(t, "c@x.io", "Ann")
	l := f.post(t, emp, "Go Dev")
	keep := f.post(t, emp, "Keep Me")

	_, err := f.svc.Apply(ctx, cand, l.ID, ApplyInput{CoverLetter: "hi"})
	require.NoError(t, err)
	_, err = f.svc.ToggleSave(ctx, cand, l.ID)
	require.NoError(t, err)
	_, err = f.svc.ToggleSave(ctx, cand, keep.ID)
	require.NoError(t, err)

	title, err := f.svc.Delete(ctx, emp, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "Go Dev", title)
	assert.Zero(t, countRows(t, f.db, &database.Application{}))
	assert.EqualValues(t, 1, countRows(t, f.db, &database.SavedListing{}))
	assert.EqualValues(t, 1, countRows(t, f.db, &database.Listing{}))
}

func TestDetailCountsViewsAndViewerState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	emp := f.company(t, "e@x.io", "Acme")
	cand := f.candidate(t, "c@x.io", "Ann")
	l := f.post(t, emp, "Go Dev")
	f.post(t, emp, "Rust Dev")

	d, err := f.svc.Detail(ctx, l.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, d.Listing.ViewsCount)
	assert.Len(t, d.Similar, 1)

	_, err = f.svc.Apply(ctx, cand, l.ID, ApplyInput{CoverLetter: "hi"})
	require.NoError(t, err)

	d, err = f.svc.Detail(ctx, l.ID, cand)
	require.NoError(t, err)
	assert.Equal(t, 2, d.Listing.ViewsCount)
	assert.True(t, d.HasApplied)
	assert.False(t, d.HasSaved)
	assert.Equal(t, database.RoleCandidate, d.ViewerRole)

	d, err = f.svc.Detail(ctx, l.ID, emp)
	require.NoError(t, err)
	assert.True(t, d.IsOwner)

	var stored database.Listing
	require.NoError(t, f.db.First(&stored, l.ID).Error)
	assert.Equal(t, 3, stored.ViewsCount)

	require.NoError(t, f.db.Model(&stored).Update("is_active", false).Error)
	_, err = f.svc.Detail(ctx, l.ID, nil)
	assert.True(t, errors.Is(err, errcode.ErrNotFound))
}

func TestBrowseFiltersAndPaginates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	emp := f.company(t, "e@x.io", "Acme")
	f.post(t, emp, "Go Developer")
	f.post(t, emp, "Python Developer")
	hidden := f.post(t, emp, "Go Hidden")
	require.NoError(t, f.db.Model(hidden).Update("is_active", false).Error)

	page, err := f.svc.Browse(ctx, BrowseFilter{Search: "GO"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total, "skills mention go for every listing")

	page, err = f.svc.Browse(ctx, BrowseFilter{Search: "python", Location: "berlin"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Python Developer", page.Items[0].Title)

	page, err = f.svc.Browse(ctx, BrowseFilter{PageSize: 1, Page: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	assert.Len(t, page.Items, 1)

	page, err = f.svc.Browse(ctx, BrowseFilter{JobType: "contract"})
	require.NoError(t, err)
	assert.Zero(t, page.Total)

	res, err := f.svc.Search(ctx, SearchFilter{Title: "developer", Type: "full"})
	require.NoError(t, err)
	assert.Len(t, res, 2)
}

func TestMyListingsCountsApplications(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	emp := f.company(t, "e@x.io", "Acme")
	a := f.post(t, emp, "A")
	f.post(t, emp, "B")
	for _, email := range []string{"c1@x.io", "c2@x.io"} {
		_, err := f.svc.Apply(ctx, f.candidate(t, email, "C"), a.ID, ApplyInput{CoverLetter: "hi"})
		require.NoError(t, err)
	}

	mine, err := f.svc.MyListings(ctx, emp)
	require.NoError(t, err)
	counts := map[string]int64{}
	for _, m := range mine {
		counts[m.Title] = m.ApplicationCount
	}
	assert.Equal(t, map[string]int64{"A": 2, "B": 0}, counts)

	_, apps, err := f.svc.ListingApplications(ctx, emp, a.ID)
	require.NoError(t, err)
	require.Len(t, apps, 2)
	assert.NotEmpty(t, apps[0].Candidate.Email)
}

func TestAlertsMatchNewListings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	emp := f.company(t, "e@x.io", "Acme")
	ann := f.candidate(t, "ann@x.io", "Ann")
	bob := f.candidate(t, "bob@x.io", "Bob")

	_, err := f.svc.CreateAlert(ctx, ann, AlertInput{Keywords: "rust, postgres", Location: "berlin"})
	require.NoError(t, err)
	_, err = f.svc.CreateAlert(ctx, ann, AlertInput{Keywords: "go"})
	require.NoError(t, err)
	bobAlert, err := f.svc.CreateAlert(ctx, bob, AlertInput{Keywords: "go", JobType: "contract"})
	require.NoError(t, err)

	f.post(t, emp, "Go Dev")

	matches := f.events.byKind(notify.KindAlertMatch)
	require.Len(t, matches, 1, "ann matches twice but is emailed once; bob's job type differs")
	assert.Equal(t, "ann@x.io", matches[0].To)

	toggled, err := f.svc.ToggleAlert(ctx, bob, bobAlert.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)

	_, err = f.svc.ToggleAlert(ctx, ann, bobAlert.ID)
	assert.True(t, errors.Is(err, errcode.ErrNotFound))

	require.NoError(t, f.svc.DeleteAlert(ctx, bob, bobAlert.ID))
	alerts, err := f.svc.Alerts(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, alerts)

	_, err = f.svc.CreateAlert(ctx, ann, AlertInput{Keywords: " "})
	assert.True(t, errors.Is(err, errcode.ErrValidation))
}

func TestHome(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	emp := f.company(t, "e@x.io", "Acme")
	for i := 0; i < 8; i++ {
		l := f.post(t, emp, "Job")
		assert.False(t, l.IsFeatured, "employers cannot feature their own listings")
		if i%2 == 0 {
			require.NoError(t, f.svc.SetFeatured(ctx, l.ID, true))
		}
	}
	assert.True(t, errors.Is(f.svc.SetFeatured(ctx, 9999, true), errcode.ErrNotFound))

	h, err := f.svc.Home(ctx)
	require.NoError(t, err)
	assert.Len(t, h.Featured, 3)
	assert.Len(t, h.Recent, 6)
	assert.EqualValues(t, 8, h.TotalJobs)
	assert.EqualValues(t, 1, h.TotalCompanies)
}

func TestValidResumeKey(t *testing.T) {
	cases := map[string]bool{
		"resumes/7/abc.pdf":      true,
		"resumes/7/abc.DOCX":     true,
		"resumes/8/abc.pdf":      false,
		"resumes/7/../8/abc.pdf": false,
		"resumes/7//abc.pdf":     false,
		"resumes/7/abc.exe":      false,
		"":                       false,
	}
	for key, want := range cases {
		assert.Equal(t, want, validResumeKey(7, key), key)
	}
}
