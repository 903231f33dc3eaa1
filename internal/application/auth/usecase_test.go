package auth_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/mechswap-api/internal/application/auth"
	"github.com/jhoicas/mechswap-api/internal/application/dto"
	"github.com/jhoicas/mechswap-api/internal/application/ports"
	"github.com/jhoicas/mechswap-api/internal/application/usecase"
	"github.com/jhoicas/mechswap-api/internal/domain"
	"github.com/jhoicas/mechswap-api/internal/domain/entity"
	"github.com/jhoicas/mechswap-api/internal/domain/repository"
	"github.com/jhoicas/mechswap-api/internal/infrastructure/security"
	"github.com/jhoicas/mechswap-api/internal/infrastructure/sqlite"
)

type fakeNotifier struct {
	mu   sync.Mutex
	sent []ports.Notification
}

func (f *fakeNotifier) Notify(n ports.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, n)
}

func (f *fakeNotifier) all() []ports.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ports.Notification(nil), f.sent...)
}

// spyTx falla el test si alguien abre una transacción.
type spyTx struct{ t *testing.T }

func (s spyTx) RunAccount(context.Context, func(context.Context, repository.AccountRepository) error) error {
	s.t.Fatal("no se esperaba acceso al almacenamiento")
	return nil
}

// failingHasher simula un fallo de bcrypt al generar el hash.
type failingHasher struct{ auth.PasswordHasher }

func (failingHasher) Hash(string) (entity.Credential, error) {
	return entity.Credential{}, errors.New("entropía agotada")
}

// stallingTx retiene Create hasta que vence el contexto de la transacción.
type stallingTx struct{ inner auth.TxRunner }

func (s stallingTx) RunAccount(ctx context.Context, fn func(context.Context, repository.AccountRepository) error) error {
	return s.inner.RunAccount(ctx, func(ctx context.Context, repo repository.AccountRepository) error {
		return fn(ctx, stallingRepo{repo})
	})
}

type stallingRepo struct{ repository.AccountRepository }

func (r stallingRepo) Create(ctx context.Context, a *entity.Account) error {
	<-ctx.Done()
	return r.AccountRepository.Create(ctx, a)
}

type fixture struct {
	uc       *auth.AuthUseCase
	accounts *usecase.AccountUseCase
	repo     *sqlite.AccountRepo
	tx       *sqlite.TxRunner
	notifier *fakeNotifier
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	db, err := sqlite.Open(ctx, sqlite.Config{Path: filepath.Join(t.TempDir(), "auth.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, sqlite.Migrate(ctx, db))

	repo := sqlite.NewAccountRepository(db)
	notifier := &fakeNotifier{}
	uc := auth.NewAuthUseCase(
		sqlite.NewTxRunner(db),
		repo,
		security.NewBcryptHasher(bcrypt.MinCost),
		notifier,
		auth.Config{TxTimeout: 10 * time.Second, AppName: "MechSwap", SupportAddress: "support@mechswap.local"},
		nil,
	)
	return fixture{
		uc:       uc,
		accounts: usecase.NewAccountUseCase(repo, 5*time.Second),
		repo:     repo,
		tx:       sqlite.NewTxRunner(db),
		notifier: notifier,
	}
}

func registerReq(email, password string) dto.RegisterRequest {
	return dto.RegisterRequest{
		Email:    email,
		Password: password,
		ProfileFields: dto.ProfileFields{
			DisplayName: "  Alice  ",
			CompanyName: "ACME Machinery",
			Country:     "India",
			City:        "Pune",
			PhoneNumber: "5550100",
		},
	}
}

func TestRegister_LuegoLoginDevuelveActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.uc.Register(ctx, registerReq("alice@example.com", "s3cret!"))
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", out.Email)
	assert.Equal(t, "active", out.Status)
	assert.Equal(t, "Alice", out.DisplayName)
	_, err = time.Parse(time.DateOnly, out.RegisteredOn)
	assert.NoError(t, err)

	stored, err := f.repo.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, entity.CredentialHashed, stored.Credential.Kind())
	assert.NotContains(t, stored.Credential.Encoded(), "s3cret!")

	res, err := f.uc.Login(ctx, dto.LoginRequest{Email: "alice@example.com", Password: "s3cret!"})
	require.NoError(t, err)
	assert.Equal(t, "active", res.Status)

	_, err = f.uc.Login(ctx, dto.LoginRequest{Email: "alice@example.com", Password: "wrong!!"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestRegister_EncolaBienvenidaTrasCommit(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Register(context.Background(), registerReq("welcome@example.com", "s3cret!"))
	require.NoError(t, err)

	sent := f.notifier.all()
	require.Len(t, sent, 1)
	assert.Equal(t, "welcome@example.com", sent[0].To)
	assert.Contains(t, sent[0].Subject, "Welcome to MechSwap")
	assert.NotContains(t, sent[0].Text, "s3cret!")
	assert.NotEmpty(t, sent[0].ID)
}

func TestRegister_EmailDuplicado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.uc.Register(ctx, registerReq("dup@example.com", "s3cret!"))
	require.NoError(t, err)

	_, err = f.uc.Register(ctx, registerReq("dup@example.com", "other-pass"))
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
	assert.Len(t, f.notifier.all(), 1)

	// la unicidad es exacta: otra capitalización es otra cuenta
	_, err = f.uc.Register(ctx, registerReq("Dup@example.com", "s3cret!"))
	assert.NoError(t, err)
}

func TestRegister_ConcurrentesMismoEmailSoloUnoCrea(t *testing.T) {
	f := newFixture(t)

	const n = 6
	errs := make([]error, n)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = f.uc.Register(context.Background(), registerReq("race@example.com", "s3cret!"))
		}(i)
	}
	close(start)
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrEmailTaken)
	}
	assert.Equal(t, 1, created)
	assert.Len(t, f.notifier.all(), 1)
}

func TestRegister_ValidacionAntesDeTocarElAlmacenamiento(t *testing.T) {
	uc := auth.NewAuthUseCase(spyTx{t}, nil, security.NewBcryptHasher(bcrypt.MinCost), nil, auth.Config{}, nil)

	cases := []struct {
		name, email, password, field string
	}{
		{"password corta", "bob@example.com", "12345", "password"},
		{"password larga", "bob@example.com", string(make([]byte, 129)), "password"},
		{"email vacío", "   ", "s3cret!", "email"},
		{"email sin dominio", "bob@", "s3cret!", "email"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := uc.Register(context.Background(), dto.RegisterRequest{Email: tc.email, Password: tc.password})
			require.ErrorIs(t, err, domain.ErrValidation)
			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.field, ve.Field)
		})
	}
}

func TestRegister_FalloDeHashHaceRollbackSinCorreo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uc := auth.NewAuthUseCase(f.tx, f.repo, failingHasher{security.NewBcryptHasher(bcrypt.MinCost)}, f.notifier,
		auth.Config{TxTimeout: 5 * time.Second}, nil)

	out, err := uc.Register(ctx, registerReq("hashfail@example.com", "s3cret!"))
	require.Error(t, err)
	assert.Nil(t, out)
	assert.ErrorIs(t, err, domain.ErrInternal)
	assert.NotErrorIs(t, err, domain.ErrEmailTaken)

	got, err := f.repo.GetByEmail(ctx, "hashfail@example.com")
	require.NoError(t, err)
	assert.Nil(t, got, "no debe quedar fila tras el rollback")
	assert.Empty(t, f.notifier.all())
}

func TestRegister_TimeoutDeTransaccionEsStoreUnavailable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uc := auth.NewAuthUseCase(stallingTx{f.tx}, f.repo, security.NewBcryptHasher(bcrypt.MinCost), f.notifier,
		auth.Config{TxTimeout: 50 * time.Millisecond}, nil)

	_, err := uc.Register(ctx, registerReq("slow@example.com", "s3cret!"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)

	got, err := f.repo.GetByEmail(ctx, "slow@example.com")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Empty(t, f.notifier.all())
}

func TestRegister_ClienteCanceladoNoInterrumpeLaTransaccion(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.uc.Register(ctx, registerReq("gone@example.com", "s3cret!"))
	require.NoError(t, err)

	got, err := f.repo.GetByEmail(context.Background(), "gone@example.com")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestLogin_CredencialLegacy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.repo.Create(ctx, &entity.Account{
		Email:        "old@example.com",
		Credential:   entity.ParseCredential("abc123"),
		RegisteredOn: time.Date(2019, 3, 1, 0, 0, 0, 0, time.UTC),
		Status:       entity.StatusActive,
	}))

	_, err := f.uc.Login(ctx, dto.LoginRequest{Email: "old@example.com", Password: "abc124"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	res, err := f.uc.Login(ctx, dto.LoginRequest{Email: "old@example.com", Password: "abc123"})
	require.NoError(t, err)
	assert.Equal(t, "active", res.Status)

	// tras el login la credencial queda migrada a bcrypt y sigue funcionando
	stored, err := f.repo.GetByEmail(ctx, "old@example.com")
	require.NoError(t, err)
	assert.Equal(t, entity.CredentialHashed, stored.Credential.Kind())

	res, err = f.uc.Login(ctx, dto.LoginRequest{Email: "old@example.com", Password: "abc123"})
	require.NoError(t, err)
	assert.Equal(t, "active", res.Status)
}

func TestLogin_CuentaBloqueadaNoEsCredencialInvalida(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.uc.Register(ctx, registerReq("blocked@example.com", "s3cret!"))
	require.NoError(t, err)
	require.NoError(t, f.accounts.SetStatus(ctx, "blocked@example.com", entity.StatusBlocked))

	res, err := f.uc.Login(ctx, dto.LoginRequest{Email: "blocked@example.com", Password: "s3cret!"})
	require.NoError(t, err)
	assert.Equal(t, "blocked", res.Status)

	_, err = f.uc.Login(ctx, dto.LoginRequest{Email: "blocked@example.com", Password: "nope!!"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLogin_AdminYEstadoDesconocido(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.uc.Register(ctx, registerReq("ops@example.com", "s3cret!"))
	require.NoError(t, err)

	require.NoError(t, f.accounts.SetStatus(ctx, "ops@example.com", entity.StatusAdmin))
	res, err := f.uc.Login(ctx, dto.LoginRequest{Email: "ops@example.com", Password: "s3cret!"})
	require.NoError(t, err)
	assert.Equal(t, "admin", res.Status)

	require.NoError(t, f.repo.SetStatus(ctx, "ops@example.com", entity.AccountStatus(7)))
	res, err = f.uc.Login(ctx, dto.LoginRequest{Email: "ops@example.com", Password: "s3cret!"})
	require.NoError(t, err)
	assert.Equal(t, "blocked", res.Status)
}

func TestLogin_EntradaMalFormadaEsCredencialInvalida(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, in := range []dto.LoginRequest{
		{Email: "not-an-email", Password: "s3cret!"},
		{Email: "nobody@example.com", Password: ""},
		{Email: "nobody@example.com", Password: "s3cret!"},
	} {
		_, err := f.uc.Login(ctx, in)
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials, "%+v", in)
	}
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.uc.Register(ctx, registerReq("carol@example.com", "first-pass"))
	require.NoError(t, err)

	err = f.uc.ChangePassword(ctx, dto.ChangePasswordRequest{Email: "carol@example.com", CurrentPassword: "wrong", NewPassword: "second-pass"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	err = f.uc.ChangePassword(ctx, dto.ChangePasswordRequest{Email: "carol@example.com", CurrentPassword: "first-pass", NewPassword: "123"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	err = f.uc.ChangePassword(ctx, dto.ChangePasswordRequest{Email: "ghost@example.com", CurrentPassword: "x", NewPassword: "second-pass"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, f.uc.ChangePassword(ctx, dto.ChangePasswordRequest{Email: "carol@example.com", CurrentPassword: "first-pass", NewPassword: "second-pass"}))

	_, err = f.uc.Login(ctx, dto.LoginRequest{Email: "carol@example.com", Password: "first-pass"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	res, err := f.uc.Login(ctx, dto.LoginRequest{Email: "carol@example.com", Password: "second-pass"})
	require.NoError(t, err)
	assert.Equal(t, "active", res.Status)
}

func TestForgotPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.uc.Register(ctx, registerReq("Dave@Example.com", "s3cret!"))
	require.NoError(t, err)

	require.NoError(t, f.uc.ForgotPassword(ctx, dto.ForgotPasswordRequest{Email: "dave@example.COM"}))
	sent := f.notifier.all()
	require.Len(t, sent, 2)
	reset := sent[1]
	assert.Equal(t, "Dave@Example.com", reset.To)
	assert.Contains(t, reset.Subject, "Password Reset")
	assert.NotContains(t, reset.Text, "s3cret!")

	_, err = f.uc.Register(ctx, registerReq("Ñandú@Example.com", "s3cret!"))
	require.NoError(t, err)
	require.NoError(t, f.uc.ForgotPassword(ctx, dto.ForgotPasswordRequest{Email: "ñandú@example.com"}))
	sent = f.notifier.all()
	assert.Equal(t, "Ñandú@Example.com", sent[len(sent)-1].To)

	assert.ErrorIs(t, f.uc.ForgotPassword(ctx, dto.ForgotPasswordRequest{Email: "nobody@example.com"}), domain.ErrNotFound)
	assert.ErrorIs(t, f.uc.ForgotPassword(ctx, dto.ForgotPasswordRequest{Email: "bad"}), domain.ErrValidation)
}

func TestAccountUseCase_Perfil(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.uc.Register(ctx, registerReq("erin@example.com", "s3cret!"))
	require.NoError(t, err)

	err = f.accounts.UpdateProfile(ctx, dto.UpdateProfileRequest{
		Email:         "erin@example.com",
		ProfileFields: dto.ProfileFields{DisplayName: " Erin ", CompanyName: "Lathe Co", City: "Chennai"},
	})
	require.NoError(t, err)

	got, err := f.accounts.GetProfile(ctx, "erin@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Erin", got.DisplayName)
	assert.Equal(t, "Lathe Co", got.CompanyName)
	assert.Equal(t, "Chennai", got.City)
	assert.Empty(t, got.Country)
	assert.Equal(t, "active", got.Status)

	_, err = f.accounts.GetProfile(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, f.accounts.UpdateProfile(ctx, dto.UpdateProfileRequest{Email: "nobody@example.com"}), domain.ErrNotFound)
	assert.ErrorIs(t, f.accounts.SetStatus(ctx, "erin@example.com", entity.AccountStatus(9)), domain.ErrValidation)
}
