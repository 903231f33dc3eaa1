package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/mechswap-api/internal/domain"
	"github.com/jhoicas/mechswap-api/internal/domain/entity"
	"github.com/jhoicas/mechswap-api/internal/domain/repository"
)

var _ repository.AccountRepository = (*AccountRepo)(nil)

const accountColumns = `email, password, display_name, company_name, company_details, address, country, state, city,
	phone_country_code, phone_number, registered_on, status`

// AccountRepo implementación del puerto AccountRepository sobre PostgreSQL (usable con pool o tx).
type AccountRepo struct {
	q Querier
}

// NewAccountRepository construye el adaptador de persistencia para cuentas. Pasar pool o tx (Querier).
func NewAccountRepository(q Querier) *AccountRepo {
	return &AccountRepo{q: q}
}

// LockEmail serializa las altas del mismo email: advisory lock de transacción sobre el hash del email
// (cubre el caso en que la fila aún no existe) y SELECT ... FOR UPDATE sobre la fila si existe.
// Ambos bloqueos se liberan en commit o rollback.
func (r *AccountRepo) LockEmail(ctx context.Context, email string) (bool, error) {
	if _, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, email); err != nil {
		return false, domain.WrapStore("advisory lock", err)
	}
	var one int
	err := r.q.QueryRow(ctx, `SELECT 1 FROM accounts WHERE email = $1 FOR UPDATE`, email).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, domain.WrapStore("lock email", err)
	}
	return true, nil
}

// Create persiste una cuenta nueva.
func (r *AccountRepo) Create(ctx context.Context, a *entity.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		a.Email, a.Credential.Encoded(),
		a.Profile.DisplayName, a.Profile.CompanyName, a.Profile.CompanyDetails, a.Profile.Address,
		a.Profile.Country, a.Profile.State, a.Profile.City, a.Profile.PhoneCountryCode, a.Profile.PhoneNumber,
		a.RegisteredOn, int16(a.Status),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailTaken
		}
		return domain.WrapStore("insert account", err)
	}
	return nil
}

// GetByEmail obtiene una cuenta por email exacto.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*entity.Account, error) {
	row := r.q.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
	return scanAccount(row, "get account by email")
}

// FindByEmailFold obtiene una cuenta comparando en minúsculas.
func (r *AccountRepo) FindByEmailFold(ctx context.Context, email string) (*entity.Account, error) {
	row := r.q.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE LOWER(email) = $1 ORDER BY email LIMIT 1`, email)
	return scanAccount(row, "find account by folded email")
}

// UpdateProfile actualiza los campos de perfil.
func (r *AccountRepo) UpdateProfile(ctx context.Context, email string, p entity.Profile) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE accounts SET display_name = $2, company_name = $3, company_details = $4, address = $5,
			country = $6, state = $7, city = $8, phone_country_code = $9, phone_number = $10
		WHERE email = $1`,
		email, p.DisplayName, p.CompanyName, p.CompanyDetails, p.Address,
		p.Country, p.State, p.City, p.PhoneCountryCode, p.PhoneNumber,
	)
	if err != nil {
		return domain.WrapStore("update profile", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ReplaceCredential compare-and-swap sobre la credencial almacenada.
func (r *AccountRepo) ReplaceCredential(ctx context.Context, email string, previous, next entity.Credential) (bool, error) {
	tag, err := r.q.Exec(ctx,
		`UPDATE accounts SET password = $3 WHERE email = $1 AND password = $2`,
		email, previous.Encoded(), next.Encoded(),
	)
	if err != nil {
		return false, domain.WrapStore("replace credential", err)
	}
	return tag.RowsAffected() == 1, nil
}

// SetStatus cambia el estado de la cuenta.
func (r *AccountRepo) SetStatus(ctx context.Context, email string, status entity.AccountStatus) error {
	tag, err := r.q.Exec(ctx, `UPDATE accounts SET status = $2 WHERE email = $1`, email, int16(status))
	if err != nil {
		return domain.WrapStore("set status", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanAccount(row pgx.Row, op string) (*entity.Account, error) {
	var (
		a          entity.Account
		credential string
		status     int16
	)
	err := row.Scan(
		&a.Email, &credential,
		&a.Profile.DisplayName, &a.Profile.CompanyName, &a.Profile.CompanyDetails, &a.Profile.Address,
		&a.Profile.Country, &a.Profile.State, &a.Profile.City, &a.Profile.PhoneCountryCode, &a.Profile.PhoneNumber,
		&a.RegisteredOn, &status,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.WrapStore(op, err)
	}
	a.Credential = entity.ParseCredential(credential)
	a.Status = entity.AccountStatus(status)
	return &a, nil
}
