package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"golang.org/x/crypto/bcrypt"

	"aquaguard-backend/apperrors"
	"aquaguard-backend/models"
)

// Each role lives in its own table, matching the source schema. The map
// doubles as the whitelist that keeps role strings out of SQL.
var roleTables = map[models.Role]string{
	models.RoleLifeguard:  "lifeguard",
	models.RoleSupervisor: "supervisor",
}

// AccountService manages the two role-partitioned account tables.
// Passwords are stored as bcrypt hashes; comparison goes through
// bcrypt's constant-time check.
type AccountService struct {
	db Querier
}

func NewAccountService(db Querier) *AccountService {
	return &AccountService{db: db}
}

// Register creates an account. The display name must be unique within
// the role; a second registration under the same name fails with
// ErrConflict. The same name under the other role is fine.
func (as *AccountService) Register(ctx context.Context, role models.Role, name, password, phone string) (models.Account, error) {
	table, ok := roleTables[role]
	if !ok {
		return models.Account{}, apperrors.Wrapf(apperrors.ErrValidation, "unknown role %q", role)
	}

	var existing int64
	err := as.db.QueryRow(ctx,
		fmt.Sprintf("SELECT id FROM %s WHERE lname = $1", table),
		name).Scan(&existing)
	if err == nil {
		return models.Account{}, apperrors.Wrapf(apperrors.ErrConflict, "%s %q", role, name)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return models.Account{}, apperrors.Wrap(apperrors.ErrStore, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.Account{}, apperrors.Wrap(apperrors.ErrStore, err)
	}

	account := models.Account{Name: name, PhoneNumber: phone}
	err = as.db.QueryRow(ctx,
		fmt.Sprintf("INSERT INTO %s (lname, password, phone_number) VALUES ($1, $2, $3) RETURNING id", table),
		name, string(hash), phone).Scan(&account.ID)
	if err != nil {
		return models.Account{}, apperrors.Wrap(apperrors.ErrStore, err)
	}
	return account, nil
}

// Login checks credentials. Unknown name and wrong password are
// indistinguishable to the caller: both are ErrUnauthorized.
func (as *AccountService) Login(ctx context.Context, role models.Role, name, password string) (models.Account, error) {
	table, ok := roleTables[role]
	if !ok {
		return models.Account{}, apperrors.Wrapf(apperrors.ErrValidation, "unknown role %q", role)
	}

	var account models.Account
	var hash string
	err := as.db.QueryRow(ctx,
		fmt.Sprintf("SELECT id, lname, password, phone_number FROM %s WHERE lname = $1", table),
		name).Scan(&account.ID, &account.Name, &hash, &account.PhoneNumber)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Account{}, apperrors.ErrUnauthorized
	}
	if err != nil {
		return models.Account{}, apperrors.Wrap(apperrors.ErrStore, err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return models.Account{}, apperrors.ErrUnauthorized
	}
	return account, nil
}

// List returns every account of one role, hashes excluded.
func (as *AccountService) List(ctx context.Context, role models.Role) ([]models.Account, error) {
	table, ok := roleTables[role]
	if !ok {
		return nil, apperrors.Wrapf(apperrors.ErrValidation, "unknown role %q", role)
	}

	rows, err := as.db.Query(ctx,
		fmt.Sprintf("SELECT id, lname, phone_number FROM %s ORDER BY id", table))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStore, err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.PhoneNumber); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrStore, err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStore, err)
	}
	return accounts, nil
}

// Remove deletes an account by phone number. Removing a supervisor also
// removes every alert log it owns, in the same transaction: either the
// account and its dependent rows all go, or none do.
func (as *AccountService) Remove(ctx context.Context, role models.Role, phone string) error {
	table, ok := roleTables[role]
	if !ok {
		return apperrors.Wrapf(apperrors.ErrValidation, "unknown role %q", role)
	}

	if role == models.RoleSupervisor {
		return as.removeSupervisor(ctx, phone)
	}

	tag, err := as.db.Exec(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE phone_number = $1", table), phone)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStore, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.Wrapf(apperrors.ErrNotFound, "%s with phone %s", role, phone)
	}
	return nil
}

func (as *AccountService) removeSupervisor(ctx context.Context, phone string) error {
	tx, err := as.db.Begin(ctx)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStore, err)
	}
	defer tx.Rollback(ctx)

	var supervisorID int64
	err = tx.QueryRow(ctx,
		"SELECT id FROM supervisor WHERE phone_number = $1", phone).Scan(&supervisorID)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.Wrapf(apperrors.ErrNotFound, "supervisor with phone %s", phone)
	}
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStore, err)
	}

	if _, err := tx.Exec(ctx,
		"DELETE FROM alert_logs WHERE supervisor_id = $1", supervisorID); err != nil {
		return apperrors.Wrap(apperrors.ErrStore, err)
	}
	if _, err := tx.Exec(ctx,
		"DELETE FROM supervisor WHERE id = $1", supervisorID); err != nil {
		return apperrors.Wrap(apperrors.ErrStore, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return apperrors.Wrap(apperrors.ErrStore, err)
	}
	return nil
}
