package accounts

import (
	"context"
	"strings"

	"callcenter-platform/internal/store"
	"callcenter-platform/pkg/utils"

	"github.com/jackc/pgx/v5"
)

// Repository persists tenants and users.
//
// UserByEmail and SetActive are the only lookups without a tenant predicate:
// they run before a tenant is known (login) or from the operator CLI.
type Repository interface {
	CreateTenantWithOwner(ctx context.Context, t Tenant, u User) (User, error)
	UserByEmail(ctx context.Context, email string) (User, error)
	UserByID(ctx context.Context, s store.Scope, id string) (User, error)
	SetActive(ctx context.Context, email string, active bool) (User, error)
}

var userColumns = []string{"id", "tenant_id", "email", "hashed_password", "full_name", "role", "is_active", "created_at", "updated_at"}

var usersTable = store.Table[User]{
	Name:    "users",
	Entity:  "user",
	Columns: userColumns,
	Scan:    scanUser,
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.TenantID, &u.Email, &u.HashedPassword, &u.FullName, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

type PostgresRepo struct {
	db    store.Pool
	users *store.Repo[User]
}

func NewPostgresRepo(db store.Pool) *PostgresRepo {
	return &PostgresRepo{db: db, users: store.NewRepo(db, usersTable)}
}

const insertTenant = `INSERT INTO tenants (id, name, plan) VALUES ($1, $2, $3)`

func (r *PostgresRepo) CreateTenantWithOwner(ctx context.Context, t Tenant, u User) (User, error) {
	var created User
	err := utils.WithTx(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, insertTenant, t.ID, t.Name, t.Plan); err != nil {
			return store.MapError("tenant", err)
		}
		s, err := store.NewScope(t.ID, u.ID)
		if err != nil {
			return err
		}
		created, err = r.users.With(tx).Create(ctx, s, map[string]any{
			"email":           u.Email,
			"hashed_password": u.HashedPassword,
			"full_name":       u.FullName,
			"role":            u.Role,
			"is_active":       u.IsActive,
		})
		return err
	})
	return created, err
}

const selectUserByEmail = `SELECT id, tenant_id, email, hashed_password, full_name, role, is_active, created_at, updated_at
FROM users
WHERE LOWER(email) = LOWER($1)`

func (r *PostgresRepo) UserByEmail(ctx context.Context, email string) (User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, selectUserByEmail, strings.TrimSpace(email)))
	if err != nil {
		return User{}, store.MapError("user", err)
	}
	return u, nil
}

func (r *PostgresRepo) UserByID(ctx context.Context, s store.Scope, id string) (User, error) {
	return r.users.Get(ctx, s, id)
}

const setUserActive = `UPDATE users SET is_active = $2, updated_at = NOW()
WHERE LOWER(email) = LOWER($1)
RETURNING id, tenant_id, email, hashed_password, full_name, role, is_active, created_at, updated_at`

func (r *PostgresRepo) SetActive(ctx context.Context, email string, active bool) (User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, setUserActive, strings.TrimSpace(email), active))
	if err != nil {
		return User{}, store.MapError("user", err)
	}
	return u, nil
}
