package usecase

import (
	"context"
	"time"

	"github.com/jhoicas/mechswap-api/internal/application/dto"
	"github.com/jhoicas/mechswap-api/internal/domain"
	"github.com/jhoicas/mechswap-api/internal/domain/entity"
	"github.com/jhoicas/mechswap-api/internal/domain/repository"
	"github.com/jhoicas/mechswap-api/internal/domain/validation"
)

// AccountUseCase aplica reglas de negocio para el perfil y el estado de las cuentas.
type AccountUseCase struct {
	repo    repository.AccountRepository
	timeout time.Duration
}

// NewAccountUseCase construye el caso de uso con el puerto de persistencia.
func NewAccountUseCase(repo repository.AccountRepository, timeout time.Duration) *AccountUseCase {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &AccountUseCase{repo: repo, timeout: timeout}
}

// GetProfile obtiene una cuenta por email exacto. Devuelve domain.ErrNotFound si no existe.
func (uc *AccountUseCase) GetProfile(ctx context.Context, email string) (*dto.AccountResponse, error) {
	email, err := validation.Email(email)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()
	account, err := uc.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, domain.ErrNotFound
	}
	return entityToAccountResponse(account), nil
}

// UpdateProfile sanea y guarda los campos de perfil. El email y la credencial no cambian.
func (uc *AccountUseCase) UpdateProfile(ctx context.Context, in dto.UpdateProfileRequest) error {
	email, err := validation.Email(in.Email)
	if err != nil {
		return err
	}
	profile := validation.SanitizeProfile(entity.Profile{
		DisplayName:      in.DisplayName,
		CompanyName:      in.CompanyName,
		CompanyDetails:   in.CompanyDetails,
		Address:          in.Address,
		Country:          in.Country,
		State:            in.State,
		City:             in.City,
		PhoneCountryCode: in.PhoneCountryCode,
		PhoneNumber:      in.PhoneNumber,
	})
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.timeout)
	defer cancel()
	return uc.repo.UpdateProfile(ctx, email, profile)
}

// SetStatus cambia el estado de la cuenta (operación de operador, p. ej. bloquear).
func (uc *AccountUseCase) SetStatus(ctx context.Context, email string, status entity.AccountStatus) error {
	email, err := validation.Email(email)
	if err != nil {
		return err
	}
	switch status {
	case entity.StatusActive, entity.StatusAdmin, entity.StatusBlocked:
	default:
		return domain.NewValidationError("status", "invalid_status")
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.timeout)
	defer cancel()
	return uc.repo.SetStatus(ctx, email, status)
}

func entityToAccountResponse(a *entity.Account) *dto.AccountResponse {
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
