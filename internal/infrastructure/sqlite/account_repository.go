package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/jhoicas/mechswap-api/internal/domain"
	"github.com/jhoicas/mechswap-api/internal/domain/entity"
	"github.com/jhoicas/mechswap-api/internal/domain/repository"
)

var _ repository.AccountRepository = (*AccountRepo)(nil)

const accountColumns = `email, password, display_name, company_name, company_details, address, country, state, city,
	phone_country_code, phone_number, registered_on, status`

// AccountRepo implementación del puerto AccountRepository sobre SQLite (usable con db o tx).
type AccountRepo struct {
	q Querier
}

// NewAccountRepository construye el adaptador. Pasar db o tx (Querier).
func NewAccountRepository(q Querier) *AccountRepo {
	return &AccountRepo{q: q}
}

// LockEmail dentro de una tx IMMEDIATE el bloqueo de escritura ya está tomado; solo comprueba existencia.
func (r *AccountRepo) LockEmail(ctx context.Context, email string) (bool, error) {
	var one int
	err := r.q.QueryRowContext(ctx, `SELECT 1 FROM accounts WHERE email = ?`, email).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, domain.WrapStore("lock email", err)
	}
	return true, nil
}

// Create persiste una cuenta nueva.
func (r *AccountRepo) Create(ctx context.Context, a *entity.Account) error {
	query := `INSERT INTO accounts (` + accountColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.q.ExecContext(ctx, query,
		a.Email, a.Credential.Encoded(),
		a.Profile.DisplayName, a.Profile.CompanyName, a.Profile.CompanyDetails, a.Profile.Address,
		a.Profile.Country, a.Profile.State, a.Profile.City, a.Profile.PhoneCountryCode, a.Profile.PhoneNumber,
		a.RegisteredOn.Format(time.DateOnly), int(a.Status),
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
	row := r.q.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = ?`, email)
	return scanAccount(row, "get account by email")
}

// FindByEmailFold obtiene una cuenta comparando en minúsculas Unicode. email debe llegar ya plegado.
func (r *AccountRepo) FindByEmailFold(ctx context.Context, email string) (*entity.Account, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE unicode_lower(email) = ? ORDER BY email LIMIT 1`, email)
	return scanAccount(row, "find account by folded email")
}

// UpdateProfile actualiza los campos de perfil.
func (r *AccountRepo) UpdateProfile(ctx context.Context, email string, p entity.Profile) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE accounts SET display_name = ?, company_name = ?, company_details = ?, address = ?, country = ?,
			state = ?, city = ?, phone_country_code = ?, phone_number = ?
		WHERE email = ?`,
		p.DisplayName, p.CompanyName, p.CompanyDetails, p.Address, p.Country,
		p.State, p.City, p.PhoneCountryCode, p.PhoneNumber, email,
	)
	return affectedOne(res, err, "update profile")
}

// ReplaceCredential compare-and-swap sobre la credencial almacenada.
func (r *AccountRepo) ReplaceCredential(ctx context.Context, email string, previous, next entity.Credential) (bool, error) {
	res, err := r.q.ExecContext(ctx,
		`UPDATE accounts SET password = ? WHERE email = ? AND password = ?`,
		next.Encoded(), email, previous.Encoded(),
	)
	if err != nil {
		return false, domain.WrapStore("replace credential", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, domain.WrapStore("replace credential", err)
	}
	return n == 1, nil
}

// SetStatus cambia el estado de la cuenta.
func (r *AccountRepo) SetStatus(ctx context.Context, email string, status entity.AccountStatus) error {
	res, err := r.q.ExecContext(ctx, `UPDATE accounts SET status = ? WHERE email = ?`, int(status), email)
	return affectedOne(res, err, "set status")
}

func scanAccount(row *sql.Row, op string) (*entity.Account, error) {
	var (
		a          entity.Account
		credential string
		registered string
		status     int
	)
	err := row.Scan(
		&a.Email, &credential,
		&a.Profile.DisplayName, &a.Profile.CompanyName, &a.Profile.CompanyDetails, &a.Profile.Address,
		&a.Profile.Country, &a.Profile.State, &a.Profile.City, &a.Profile.PhoneCountryCode, &a.Profile.PhoneNumber,
		&registered, &status,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.WrapStore(op, err)
	}
	a.Credential = entity.ParseCredential(credential)
	a.Status = entity.AccountStatus(status)
	if a.RegisteredOn, err = time.Parse(time.DateOnly, registered); err != nil {
		return nil, fmt.Errorf("%s: registered_on %q: %w", op, registered, err)
	}
	return &a, nil
}

func affectedOne(res sql.Result, err error, op string) error {
	if err != nil {
		return domain.WrapStore(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.WrapStore(op, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return false
}
