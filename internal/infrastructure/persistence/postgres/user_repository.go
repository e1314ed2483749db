package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/lsfernandes92/user-service-challenge/internal/application/ports"
	"github.com/lsfernandes92/user-service-challenge/internal/domain"
	domerrors "github.com/lsfernandes92/user-service-challenge/internal/domain/errors"
)

const (
	userColumns = `id, email, phone_number, full_name, password_hash, key, account_key, metadata, created_at, updated_at`

	insertUserSQL = `INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	getUserByEmailSQL = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	getUserByPhoneSQL = `SELECT ` + userColumns + ` FROM users WHERE phone_number = $1`
	listUserIDsSQL    = `SELECT id FROM users ORDER BY created_at DESC, id DESC`
	findUsersSQL      = `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1::uuid[])`
	setAccountKeySQL  = `UPDATE users SET account_key = $1, updated_at = NOW() WHERE id = $2 AND account_key IS NULL`

	uniqueViolation = "23505"
)

var constraintErrors = map[string]error{
	"users_email_key":        domerrors.ErrEmailTaken,
	"users_phone_number_key": domerrors.ErrPhoneTaken,
	"users_key_key":          domerrors.ErrKeyTaken,
	"users_account_key_key":  domerrors.ErrAccountKeyTaken,
}

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	_, err := r.db.ExecContext(ctx, insertUserSQL,
		user.ID.String(),
		user.Email,
		user.PhoneNumber,
		user.FullName,
		user.PasswordHash,
		user.InternalKey,
		nullString(user.AccountKey),
		user.Metadata,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if mapped := mapUniqueViolation(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, getUserByEmailSQL, email)
}

func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	return r.getOne(ctx, getUserByPhoneSQL, phone)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg string) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (r *UserRepository) ListIDs(ctx context.Context) ([]domain.UserID, error) {
	rows, err := r.db.QueryContext(ctx, listUserIDsSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to list user ids: %w", err)
	}
	defer rows.Close()

	ids := []domain.UserID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, domain.NewUserID(id))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user ids: %w", err)
	}
	return ids, nil
}

func (r *UserRepository) FindByIDs(ctx context.Context, ids []domain.UserID, filter domain.ListFilter) ([]*domain.User, error) {
	if len(ids) == 0 {
		return []*domain.User{}, nil
	}
	query, args := buildFindQuery(ids, filter)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find users: %w", err)
	}
	defer rows.Close()

	found := make(map[domain.UserID]*domain.User, len(ids))
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		found[u.ID] = u
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	out := make([]*domain.User, 0, len(found))
	for _, id := range ids {
		if u, ok := found[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *UserRepository) SetAccountKey(ctx context.Context, id domain.UserID, accountKey string) (bool, error) {
	res, err := r.db.ExecContext(ctx, setAccountKeySQL, accountKey, id.String())
	if err != nil {
		if mapped := mapUniqueViolation(err); mapped != nil {
			return false, mapped
		}
		return false, fmt.Errorf("failed to set account key: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n == 1, nil
}

// buildFindQuery restricts the id set and AND-combines the set filter fields.
func buildFindQuery(ids []domain.UserID, filter domain.ListFilter) (string, []any) {
	var b strings.Builder
	b.WriteString(findUsersSQL)
	args := []any{uuidArray(ids)}
	add := func(column string, value *string) {
		if value == nil {
			return
		}
		args = append(args, *value)
		fmt.Fprintf(&b, " AND %s = $%d", column, len(args))
	}
	add("email", filter.Email)
	add("full_name", filter.FullName)
	add("metadata", filter.Metadata)
	return b.String(), args
}

// uuidArray renders ids as a postgres array literal, cast to uuid[] in the query.
func uuidArray(ids []domain.UserID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return "{" + strings.Join(parts, ",") + "}"
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		u          domain.User
		id         uuid.UUID
		accountKey sql.NullString
	)
	if err := row.Scan(&id, &u.Email, &u.PhoneNumber, &u.FullName, &u.PasswordHash, &u.InternalKey,
		&accountKey, &u.Metadata, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.ID = domain.NewUserID(id)
	if accountKey.Valid {
		k := accountKey.String
		u.AccountKey = &k
	}
	return &u, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return nil
	}
	if mapped, ok := constraintErrors[pgErr.ConstraintName]; ok {
		return mapped
	}
	return fmt.Errorf("unique violation on %s: %w", pgErr.ConstraintName, err)
}

var _ ports.UserRepository = (*UserRepository)(nil)
