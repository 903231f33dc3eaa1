package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jhoicas/mechswap-api/internal/application/dto"
	"github.com/jhoicas/mechswap-api/internal/application/ports"
	"github.com/jhoicas/mechswap-api/internal/domain"
	"github.com/jhoicas/mechswap-api/internal/domain/entity"
	"github.com/jhoicas/mechswap-api/internal/domain/repository"
	"github.com/jhoicas/mechswap-api/internal/domain/validation"
	"github.com/jhoicas/mechswap-api/pkg/logger"
)

// Config parámetros del caso de uso de auth.
type Config struct {
	TxTimeout      time.Duration // límite de cada transacción y lectura
	AppName        string
	SupportAddress string
}

// AuthUseCase casos de uso de autenticación: alta, login, cambio y recuperación de contraseña.
type AuthUseCase struct {
	tx       TxRunner
	repo     repository.AccountRepository
	hasher   PasswordHasher
	notifier ports.Notifier
	cfg      Config
	log      *logger.Logger
	now      func() time.Time
}

// NewAuthUseCase construye el caso de uso de auth. notifier puede ser nil (sin correos).
func NewAuthUseCase(
	tx TxRunner,
	repo repository.AccountRepository,
	hasher PasswordHasher,
	notifier ports.Notifier,
	cfg Config,
	log *logger.Logger,
) *AuthUseCase {
	if cfg.TxTimeout <= 0 {
		cfg.TxTimeout = 15 * time.Second
	}
	if cfg.AppName == "" {
		cfg.AppName = "MechSwap"
	}
	if log == nil {
		log = logger.Nop()
	}
	return &AuthUseCase{
		tx:       tx,
		repo:     repo,
		hasher:   hasher,
		notifier: notifier,
		cfg:      cfg,
		log:      log.Named("auth"),
		now:      time.Now,
	}
}

// Register crea la cuenta dentro de una transacción: bloquea el email, comprueba que no exista,
// hashea la contraseña e inserta con estado active. Devuelve domain.ErrEmailTaken si el email ya existe.
// El correo de bienvenida se encola después del commit y su fallo no afecta el resultado.
func (uc *AuthUseCase) Register(ctx context.Context, in dto.RegisterRequest) (*dto.AccountResponse, error) {
	email, err := validation.Registration(in.Email, in.Password)
	if err != nil {
		return nil, err
	}
	profile := validation.SanitizeProfile(toProfile(in.ProfileFields))

	var created *entity.Account
	err = uc.withinTx(ctx, func(ctx context.Context, repo repository.AccountRepository) error {
		exists, err := repo.LockEmail(ctx, email)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrEmailTaken
		}
		cred, err := uc.hasher.Hash(in.Password)
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrInternal, err)
		}
		account := &entity.Account{
			Email:        email,
			Credential:   cred,
			Profile:      profile,
			RegisteredOn: dateOnly(uc.now()),
			Status:       entity.StatusActive,
		}
		if err := repo.Create(ctx, account); err != nil {
			return err
		}
		created = account
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			uc.log.Info().Str("email", email).Msg("alta rechazada: email ya registrado")
		} else {
			uc.log.Error().Err(err).Str("email", email).Msg("alta de cuenta fallida")
		}
		return nil, err
	}

	uc.log.Info().Str("email", email).Msg("cuenta creada")
	if uc.notifier != nil {
		uc.notifier.Notify(welcomeNotification(uc.cfg, created))
	}
	return toAccountResponse(created), nil
}

// Login verifica email/password y devuelve el estado de la cuenta.
// Entrada mal formada, email desconocido y contraseña incorrecta devuelven el mismo domain.ErrInvalidCredentials.
// Una cuenta bloqueada con credencial correcta devuelve status "blocked", no un error.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	email := validation.SanitizeText(in.Email)
	if !validation.ValidateEmail(email) || in.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	qctx, cancel := context.WithTimeout(ctx, uc.cfg.TxTimeout)
	defer cancel()
	account, err := uc.repo.GetByEmail(qctx, email)
	if err != nil {
		uc.log.Error().Err(err).Msg("login: lectura de cuenta")
		return nil, err
	}
	if account == nil {
		return nil, domain.ErrInvalidCredentials
	}

	ok, err := uc.hasher.Verify(in.Password, account.Credential)
	if err != nil {
		uc.log.Error().Err(err).Str("email", email).Msg("login: verificación de credencial")
		return nil, fmt.Errorf("%w: %w", domain.ErrInternal, err)
	}
	if !ok {
		return nil, domain.ErrInvalidCredentials
	}

	if account.Credential.IsLegacy() {
		uc.upgradeLegacyCredential(ctx, account, in.Password)
	}
	return &dto.LoginResponse{Status: account.Status.Normalize().String()}, nil
}

// upgradeLegacyCredential rehashea una credencial en texto plano tras un login correcto.
// Mejor esfuerzo: solo reemplaza si nadie la cambió entretanto y nunca altera el resultado del login.
func (uc *AuthUseCase) upgradeLegacyCredential(ctx context.Context, account *entity.Account, secret string) {
	next, err := uc.hasher.Hash(secret)
	if err != nil {
		uc.log.Warn().Err(err).Str("email", account.Email).Msg("rehash legacy: hash")
		return
	}
	uctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.cfg.TxTimeout)
	defer cancel()
	swapped, err := uc.repo.ReplaceCredential(uctx, account.Email, account.Credential, next)
	if err != nil {
		uc.log.Warn().Err(err).Str("email", account.Email).Msg("rehash legacy: actualización")
		return
	}
	if swapped {
		uc.log.Info().Str("email", account.Email).Msg("credencial legacy migrada a bcrypt")
	}
}

// ChangePassword verifica la contraseña actual (hash o legacy) y guarda la nueva hasheada.
// Devuelve domain.ErrNotFound si la cuenta no existe y domain.ErrInvalidCredentials si la actual no coincide.
func (uc *AuthUseCase) ChangePassword(ctx context.Context, in dto.ChangePasswordRequest) error {
	email, err := validation.PasswordChange(in.Email, in.CurrentPassword, in.NewPassword)
	if err != nil {
		return err
	}
	err = uc.withinTx(ctx, func(ctx context.Context, repo repository.AccountRepository) error {
		account, err := repo.GetByEmail(ctx, email)
		if err != nil {
			return err
		}
		if account == nil {
			return domain.ErrNotFound
		}
		ok, err := uc.hasher.Verify(in.CurrentPassword, account.Credential)
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrInternal, err)
		}
		if !ok {
			return domain.ErrInvalidCredentials
		}
		next, err := uc.hasher.Hash(in.NewPassword)
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrInternal, err)
		}
		swapped, err := repo.ReplaceCredential(ctx, email, account.Credential, next)
		if err != nil {
			return err
		}
		if !swapped {
			// la credencial cambió después de leerla
			return domain.ErrInvalidCredentials
		}
		return nil
	})
	if err != nil {
		return err
	}
	uc.log.Info().Str("email", email).Msg("contraseña actualizada")
	return nil
}

// ForgotPassword busca la cuenta sin distinguir mayúsculas y encola las instrucciones de recuperación.
// Nunca envía la contraseña. Devuelve domain.ErrNotFound si el email no está registrado.
func (uc *AuthUseCase) ForgotPassword(ctx context.Context, in dto.ForgotPasswordRequest) error {
	email, err := validation.Email(in.Email)
	if err != nil {
		return err
	}
	qctx, cancel := context.WithTimeout(ctx, uc.cfg.TxTimeout)
	defer cancel()
	account, err := uc.repo.FindByEmailFold(qctx, cases.Lower(language.Und).String(email))
	if err != nil {
		return err
	}
	if account == nil {
		return domain.ErrNotFound
	}
	if uc.notifier != nil {
		uc.notifier.Notify(resetNotification(uc.cfg, account))
	}
	return nil
}

// withinTx desacopla la transacción de la cancelación del cliente: una desconexión no deja escrituras
// parciales porque la tx termina en commit o rollback dentro de TxTimeout.
func (uc *AuthUseCase) withinTx(ctx context.Context, fn func(ctx context.Context, repo repository.AccountRepository) error) error {
	txCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.cfg.TxTimeout)
	defer cancel()
	return uc.tx.RunAccount(txCtx, fn)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func toProfile(p dto.ProfileFields) entity.Profile {
	return entity.Profile{
		DisplayName:      p.DisplayName,
		CompanyName:      p.CompanyName,
		CompanyDetails:   p.CompanyDetails,
		Address:          p.Address,
		Country:          p.Country,
		State:            p.State,
		City:             p.City,
		PhoneCountryCode: p.PhoneCountryCode,
		PhoneNumber:      p.PhoneNumber,
	}
}

func toAccountResponse(a *entity.Account) *dto.AccountResponse {
	if a == nil {
		return nil
	}
	return &dto.AccountResponse{
		Email: a.Email,
		ProfileFields: dto.ProfileFields{
			DisplayName:      a.Profile.DisplayName,
			CompanyName:      a.Profile.CompanyName,
			CompanyDetails:   a.Profile.CompanyDetails,
			Address:          a.Profile.Address,
			Country:          a.Profile.Country,
			State:            a.Profile.State,
			City:             a.Profile.City,
			PhoneCountryCode: a.Profile.PhoneCountryCode,
			PhoneNumber:      a.Profile.PhoneNumber,
		},
		RegisteredOn: a.RegisteredOn.Format(time.DateOnly),
		Status:       a.Status.Normalize().String(),
	}
}
