package account

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"jobboard/internal/database"
	"jobboard/internal/database/dbtest"
	"jobboard/internal/errcode"
	"jobboard/internal/notify"
)

type fixedCodes struct{ codes []int }

func (f *fixedCodes) NewCode() (int, error) {
	c := f.codes[0]
	if len(f.codes) > 1 {
		f.codes = f.codes[1:]
	}
	return c, nil
}

type recordingDispatcher struct {
	mu   sync.Mutex
	err  error
	msgs []notify.Message
}

func (d *recordingDispatcher) Dispatch(_ context.Context, msg notify.Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.msgs = append(d.msgs, msg)
	return d.err
}

func (d *recordingDispatcher) kinds() []notify.Kind {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]notify.Kind, 0, len(d.msgs))
	for _, m := range d.msgs {
		out = append(out, m.Kind)
	}
	return out
}

type fixture struct {
	db     *gorm.DB
	svc    *Service
	mail   *recordingDispatcher
	events *recordingDispatcher
	codes  *fixedCodes
}

func newFixture(t *testing.T, codes ...int) *fixture {
	t.Helper()
	if len(codes) == 0 {
		codes = []int{12345}
	}
	f := &fixture{
		db:     dbtest.Open(t),
		mail:   &recordingDispatcher{},
		events: &recordingDispatcher{},
		codes:  &fixedCodes{codes: codes},
	}
	f.svc = NewService(Deps{DB: f.db, CodeMail: f.mail, Events: f.events, Codes: f.codes})
	return f
}

func candidateInput(email string) RegisterInput {
	return RegisterInput{
		Role:            "candidate",
		FirstName:       "Ann",
		LastName:        "Lee",
		Email:           email,
		Password:        "secret1",
		ConfirmPassword: "secret1",
	}
}

func countAccounts(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&database.Account{}).Count(&n).Error)
	return n
}

func TestRegisterVerifyLoginScenario(t *testing.T) {
	f := newFixture(t, 48213)
	ctx := context.Background()

	res, err := f.svc.Register(ctx, candidateInput("a@x.com"))
	require.NoError(t, err)
	assert.True(t, res.Delivery.Sent)
	assert.Empty(t, res.Delivery.FallbackCode)
	require.Len(t, f.mail.msgs, 1)
	assert.Contains(t, f.mail.msgs[0].Text, "48213")

	_, err = f.svc.Login(ctx, "a@x.com", "secret1")
	assert.True(t, errors.Is(err, errcode.ErrForbidden), "unverified login must fail")

	_, err = f.svc.Verify(ctx, "a@x.com", "11111")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errcode.ErrValidation))

	var acc database.Account
	require.NoError(t, f.db.Where("email = ?", "a@x.com").First(&acc).Error)
	assert.False(t, acc.IsVerified)
	assert.Equal(t, 48213, acc.OTP)

	vr, err := f.svc.Verify(ctx, "a@x.com", "48213")
	require.NoError(t, err)
	assert.False(t, vr.AlreadyVerified)

	require.NoError(t, f.db.First(&acc, acc.ID).Error)
	assert.True(t, acc.IsVerified)
	assert.Equal(t, database.OTPCleared, acc.OTP)
	assert.Equal(t, []notify.Kind{notify.KindWelcome}, f.events.kinds())

	vr, err = f.svc.Verify(ctx, "a@x.com", "48213")
	require.NoError(t, err)
	assert.True(t, vr.AlreadyVerified)

	p, err := f.svc.Login(ctx, "A@X.com ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, acc.ID, p.AccountID)
	assert.Equal(t, database.RoleCandidate, p.Role)
	assert.Equal(t, "Ann", p.DisplayName)
	c, ok := p.Candidate()
	require.True(t, ok)
	assert.NotZero(t, c.ID)
}

func TestRegisterDuplicateEmailCreatesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, candidateInput("dup@x.com"))
	require.NoError(t, err)

	in := candidateInput("DUP@x.com")
	in.Role = "company"
	_, err = f.svc.Register(ctx, in)
	require.Error(t, err)

	e, ok := errcode.As(err)
	require.True(t, ok)
	assert.Equal(t, errcode.Validation, e.Kind)
	assert.Contains(t, e.Msg, "already exists")
	assert.Equal(t, "dup@x.com", e.Fields["email"])
	assert.EqualValues(t, 1, countAccounts(t, f.db))

	var companies int64
	require.NoError(t, f.db.Model(&database.CompanyProfile{}).Count(&companies).Error)
	assert.Zero(t, companies)
}

func TestRegisterCollectsAllValidationErrors(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Register(context.Background(), RegisterInput{
		Role:            "admin",
		FirstName:       "A",
		LastName:        "B",
		Email:           "not-an-email",
		Password:        "abc",
		ConfirmPassword: "abd",
	})
	require.Error(t, err)
	e, _ := errcode.As(err)
	assert.Contains(t, e.Msg, "Invalid role selected")
	assert.Contains(t, e.Msg, "Invalid email format")
	assert.Contains(t, e.Msg, "Passwords do not match")
	assert.Contains(t, e.Msg, "at least 6 characters")
	assert.Zero(t, countAccounts(t, f.db))
}

func TestRegisterCompanyDefaultsName(t *testing.T) {
	f := newFixture(t)
	in := candidateInput("boss@x.com")
	in.Role = "company"

	_, err := f.svc.Register(context.Background(), in)
	require.NoError(t, err)

	var company database.CompanyProfile
	require.NoError(t, f.db.First(&company).Error)
	assert.Equal(t, "Ann Lee Company", company.CompanyName)
}

func TestRegisterExposesCodeWhenMailFails(t *testing.T) {
	f := newFixture(t, 55555)
	f.mail.err = errors.New("smtp down")

	res, err := f.svc.Register(context.Background(), candidateInput("a@x.com"))
	require.NoError(t, err)
	assert.False(t, res.Delivery.Sent)
	assert.Equal(t, "55555", res.Delivery.FallbackCode)
}

func TestVerifyRejectsMalformedCode(t *testing.T) {
	f := newFixture(t)
	for _, code := range []string{"1234", "123456", "12a45", ""} {
		_, err := f.svc.Verify(context.Background(), "a@x.com", code)
		assert.True(t, errors.Is(err, errcode.ErrValidation), code)
	}

	_, err := f.svc.Verify(context.Background(), "nobody@x.com", "12345")
	assert.True(t, errors.Is(err, errcode.ErrNotFound))
}

func TestResendInvalidatesPreviousCode(t *testing.T) {
	f := newFixture(t, 11111, 22222)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, candidateInput("a@x.com"))
	require.NoError(t, err)

	res, err := f.svc.Resend(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, res.Delivery.Sent)

	_, err = f.svc.Verify(ctx, "a@x.com", "11111")
	assert.Error(t, err)
	_, err = f.svc.Verify(ctx, "a@x.com", "22222")
	assert.NoError(t, err)

	res, err = f.svc.Resend(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, res.AlreadyVerified)
}

func TestLoginFailures(t *testing.T) {
	f := newFixture(t, 12345)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, candidateInput("a@x.com"))
	require.NoError(t, err)
	require.NoError(t, f.svc.MarkVerified(ctx, "a@x.com"))

	_, err = f.svc.Login(ctx, "a@x.com", "wrong-pass")
	assert.ErrorIs(t, err, ErrBadCredentials)

	_, err = f.svc.Login(ctx, "ghost@x.com", "secret1")
	assert.ErrorIs(t, err, ErrBadCredentials)

	_, err = f.svc.Login(ctx, "", "secret1")
	assert.True(t, errors.Is(err, errcode.ErrValidation))

	require.NoError(t, f.svc.SetActive(ctx, "a@x.com", false))
	_, err = f.svc.Login(ctx, "a@x.com", "secret1")
	e, ok := errcode.As(err)
	require.True(t, ok)
	assert.Equal(t, errcode.Forbidden, e.Kind)
	assert.Contains(t, e.Msg, "deactivated")
}

func TestPasswordResetFlow(t *testing.T) {
	f := newFixture(t, 12345, 67890)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, candidateInput("a@x.com"))
	require.NoError(t, err)
	require.NoError(t, f.svc.MarkVerified(ctx, "a@x.com"))

	d, err := f.svc.ForgotPassword(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, d.Sent)

	err = f.svc.ResetPassword(ctx, ResetInput{Email: "a@x.com", Code: "67890", NewPassword: "newpass", ConfirmPassword: "other"})
	assert.True(t, errors.Is(err, errcode.ErrValidation))

	err = f.svc.ResetPassword(ctx, ResetInput{Email: "a@x.com", Code: "11111", NewPassword: "newpass", ConfirmPassword: "newpass"})
	assert.True(t, errors.Is(err, errcode.ErrValidation))

	require.NoError(t, f.svc.ResetPassword(ctx, ResetInput{Email: "a@x.com", Code: "67890", NewPassword: "newpass", ConfirmPassword: "newpass"}))

	_, err = f.svc.Login(ctx, "a@x.com", "secret1")
	assert.ErrorIs(t, err, ErrBadCredentials)
	_, err = f.svc.Login(ctx, "a@x.com", "newpass")
	assert.NoError(t, err)

	// the code is single use
	err = f.svc.ResetPassword(ctx, ResetInput{Email: "a@x.com", Code: "67890", NewPassword: "again1", ConfirmPassword: "again1"})
	assert.Error(t, err)

	_, err = f.svc.ForgotPassword(ctx, "ghost@x.com")
	assert.True(t, errors.Is(err, errcode.ErrNotFound))
}

func TestResolvePrincipalRejectsInactive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res, err := f.svc.Register(ctx, candidateInput("a@x.com"))
	require.NoError(t, err)

	p, err := f.svc.ResolvePrincipal(ctx, res.AccountID)
	require.NoError(t, err)
	assert.NotZero(t, p.ProfileID())

	require.NoError(t, f.svc.SetActive(ctx, "a@x.com", false))
	_, err = f.svc.ResolvePrincipal(ctx, res.AccountID)
	assert.True(t, errors.Is(err, errcode.ErrUnauthorized))

	_, err = f.svc.ResolvePrincipal(ctx, 9999)
	assert.True(t, errors.Is(err, errcode.ErrUnauthorized))
}

func TestUpdateProfileOnlyTouchesOwnRoleFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res, err := f.svc.Register(ctx, candidateInput("a@x.com"))
	require.NoError(t, err)
	p, err := f.svc.ResolvePrincipal(ctx, res.AccountID)
	require.NoError(t, err)

	city, company := "Pune", "Ignored Inc"
	view, err := f.svc.UpdateProfile(ctx, p, ProfileUpdate{City: &city, CompanyName: &company})
	require.NoError(t, err)

	c, ok := view.Profile.(*database.CandidateProfile)
	require.True(t, ok)
	assert.Equal(t, "Pune", c.City)
	assert.Equal(t, "Ann", c.FirstName)

	empty := " "
	_, err = f.svc.UpdateProfile(ctx, p, ProfileUpdate{FirstName: &empty})
	assert.True(t, errors.Is(err, errcode.ErrValidation))
}

func TestRegisterLosingEmailRaceIsRejected(t *testing.T) {
	f := newFixture(t)
	fired := false
	// 在本次插入前抢先写入同邮箱账号，模拟并发注册先一步提交。
	err := f.db.Callback().Create().Before("gorm:create").Register("test:race_ahead", func(tx *gorm.DB) {
		if _, ok := tx.Statement.Dest.(*database.Account); !ok || fired {
			return
		}
		fired = true
		winner := database.Account{Email: "ann@x.com", PasswordHash: "x", Role: database.RoleCandidate, IsActive: true}
		if err := tx.Session(&gorm.Session{NewDB: true}).Create(&winner).Error; err != nil {
			tx.AddError(err)
		}
	})
	require.NoError(t, err)

	_, err = f.svc.Register(context.Background(), candidateInput("ann@x.com"))
	require.Error(t, err)
	e, ok := errcode.As(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, errcode.Validation, e.Kind)
	assert.Equal(t, msgEmailTaken, e.Msg)
	assert.Equal(t, "ann@x.com", e.Fields["email"])
	assert.Empty(t, f.mail.kinds(), "no code is sent for a lost registration")
}

// otpsIssued reads the issued-code counter for purpose from the default registry.
func otpsIssued(t *testing.T, purpose string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "jobboard_auth_otps_issued_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "purpose" && l.GetValue() == purpose {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestIssuedCodesAreCounted(t *testing.T) {
	f := newFixture(t, 11111, 22222, 33333)
	ctx := context.Background()
	verify := otpsIssued(t, "verify")
	reset := otpsIssued(t, "reset")

	_, err := f.svc.Register(ctx, candidateInput("ann@x.com"))
	require.NoError(t, err)
	_, err = f.svc.Resend(ctx, "ann@x.com")
	require.NoError(t, err)
	_, err = f.svc.ForgotPassword(ctx, "ann@x.com")
	require.NoError(t, err)

	assert.Equal(t, verify+2, otpsIssued(t, "verify"))
	assert.Equal(t, reset+1, otpsIssued(t, "reset"))
}
