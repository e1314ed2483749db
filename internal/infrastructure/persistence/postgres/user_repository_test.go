package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lsfernandes92/user-service-challenge/internal/domain"
	domerrors "github.com/lsfernandes92/user-service-challenge/internal/domain/errors"
)

var columns = []string{"id", "email", "phone_number", "full_name", "password_hash", "key", "account_key", "metadata", "created_at", "updated_at"}

func newRepoWithMock(t *testing.T) (*UserRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewUserRepository(db), mock
}

func sampleUser() *domain.User {
	now := time.Date(2024, 7, 10, 12, 0, 0, 0, time.UTC)
	return &domain.User{
		ID:           domain.NewUserID(uuid.MustParse("0190a0f0-0000-7000-8000-000000000001")),
		Email:        "fooemail@gmail.com",
		PhoneNumber:  "9999999999",
		FullName:     "Foo name",
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA",
		InternalKey:  "internal-key",
		Metadata:     "male, age 32",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func userRow(u *domain.User) *sqlmock.Rows {
	var accountKey any
	if u.AccountKey != nil {
		accountKey = *u.AccountKey
	}
	return sqlmock.NewRows(columns).AddRow(u.ID.String(), u.Email, u.PhoneNumber, u.FullName, u.PasswordHash,
		u.InternalKey, accountKey, u.Metadata, u.CreatedAt, u.UpdatedAt)
}

func TestCreate_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	u := sampleUser()

	mock.ExpectExec(`^INSERT\s+INTO\s+users`).
		WithArgs(u.ID.String(), u.Email, u.PhoneNumber, u.FullName, u.PasswordHash, u.InternalKey, nil, u.Metadata, u.CreatedAt, u.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), u))
}

func TestCreate_UniqueViolations(t *testing.T) {
	tests := []struct {
		constraint string
		want       error
	}{
		{"users_email_key", domerrors.ErrEmailTaken},
		{"users_phone_number_key", domerrors.ErrPhoneTaken},
		{"users_key_key", domerrors.ErrKeyTaken},
	}
	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			repo, mock := newRepoWithMock(t)
			mock.ExpectExec(`^INSERT\s+INTO\s+users`).
				WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: tt.constraint})

			err := repo.Create(context.Background(), sampleUser())
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectExec(`^INSERT\s+INTO\s+users`).WillReturnError(errors.New("db down"))

	err := repo.Create(context.Background(), sampleUser())
	require.Error(t, err)
	assert.Regexp(t, regexp.MustCompile(`failed to insert user: .*db down`), err.Error())
}

func TestGetByEmail_Found(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	u := sampleUser()
	key := "account-key"
	u.AccountKey = &key

	mock.ExpectQuery(`(?s)^SELECT\s+id,.*FROM\s+users\s+WHERE\s+email\s*=\s*\$1$`).
		WithArgs(u.Email).
		WillReturnRows(userRow(u))

	got, err := repo.GetByEmail(context.Background(), u.Email)
	require.NoError(t, err)
	assert.Equal(t, u, got)
}

func TestGetByEmail_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`FROM\s+users\s+WHERE\s+email`).WithArgs("missing@example.com").WillReturnError(sql.ErrNoRows)

	got, err := repo.GetByEmail(context.Background(), "missing@example.com")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetByPhone_Found(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	u := sampleUser()
	mock.ExpectQuery(`FROM\s+users\s+WHERE\s+phone_number\s*=\s*\$1`).WithArgs(u.PhoneNumber).WillReturnRows(userRow(u))

	got, err := repo.GetByPhone(context.Background(), u.PhoneNumber)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.AccountKey)
	assert.Equal(t, u.ID, got.ID)
}

func TestListIDs_Ordered(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	a, b := uuid.New(), uuid.New()
	mock.ExpectQuery(`^SELECT\s+id\s+FROM\s+users\s+ORDER\s+BY\s+created_at\s+DESC,\s*id\s+DESC$`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(b.String()).AddRow(a.String()))

	ids, err := repo.ListIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.UserID{domain.NewUserID(b), domain.NewUserID(a)}, ids)
}

func TestListIDs_Empty(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`^SELECT\s+id\s+FROM\s+users`).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	ids, err := repo.ListIDs(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, ids)
	assert.Empty(t, ids)
}

func TestFindByIDs_KeepsSnapshotOrderAndFilters(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	first := sampleUser()
	second := sampleUser()
	second.ID = domain.NewUserID(uuid.MustParse("0190a0f0-0000-7000-8000-000000000002"))
	second.Email = "other@example.com"
	ids := []domain.UserID{second.ID, first.ID}

	rows := userRow(first)
	rows.AddRow(second.ID.String(), second.Email, second.PhoneNumber, second.FullName, second.PasswordHash,
		second.InternalKey, nil, second.Metadata, second.CreatedAt, second.UpdatedAt)
	mock.ExpectQuery(`id\s*=\s*ANY\(\$1::uuid\[\]\)\s+AND\s+full_name\s*=\s*\$2\s+AND\s+metadata\s*=\s*\$3$`).
		WithArgs("{"+second.ID.String()+","+first.ID.String()+"}", "Foo name", "male, age 32").
		WillReturnRows(rows)

	got, err := repo.FindByIDs(context.Background(), ids, domain.ListFilter{FullName: ptr("Foo name"), Metadata: ptr("male, age 32")})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, second.ID, got[0].ID)
	assert.Equal(t, first.ID, got[1].ID)
}

func TestFindByIDs_EmptyIDsSkipsQuery(t *testing.T) {
	repo, _ := newRepoWithMock(t)
	got, err := repo.FindByIDs(context.Background(), nil, domain.ListFilter{Email: ptr("x@example.com")})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestBuildFindQuery(t *testing.T) {
	id := domain.NewUserID(uuid.MustParse("0190a0f0-0000-7000-8000-000000000001"))
	query, args := buildFindQuery([]domain.UserID{id}, domain.ListFilter{Email: ptr("a@example.com")})
	assert.Equal(t, findUsersSQL+" AND email = $2", query)
	assert.Equal(t, []any{"{" + id.String() + "}", "a@example.com"}, args)

	query, args = buildFindQuery([]domain.UserID{id}, domain.ListFilter{FullName: ptr("")})
	assert.Equal(t, findUsersSQL+" AND full_name = $2", query)
	assert.Equal(t, []any{"{" + id.String() + "}", ""}, args)

	query, args = buildFindQuery([]domain.UserID{id}, domain.ListFilter{})
	assert.Equal(t, findUsersSQL, query)
	assert.Len(t, args, 1)
}

func TestSetAccountKey(t *testing.T) {
	u := sampleUser()
	q := `^UPDATE\s+users\s+SET\s+account_key\s*=\s*\$1,\s*updated_at\s*=\s*NOW\(\)\s+WHERE\s+id\s*=\s*\$2\s+AND\s+account_key\s+IS\s+NULL$`

	t.Run("stored", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(q).WithArgs("acc", u.ID.String()).WillReturnResult(sqlmock.NewResult(0, 1))
		stored, err := repo.SetAccountKey(context.Background(), u.ID, "acc")
		require.NoError(t, err)
		assert.True(t, stored)
	})

	t.Run("already present", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(q).WithArgs("acc", u.ID.String()).WillReturnResult(sqlmock.NewResult(0, 0))
		stored, err := repo.SetAccountKey(context.Background(), u.ID, "acc")
		require.NoError(t, err)
		assert.False(t, stored)
	})

	t.Run("held by another user", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(q).WithArgs("acc", u.ID.String()).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_account_key_key"})
		_, err := repo.SetAccountKey(context.Background(), u.ID, "acc")
		assert.ErrorIs(t, err, domerrors.ErrAccountKeyTaken)
	})
}

func TestMapUniqueViolation_UnknownConstraint(t *testing.T) {
	err := mapUniqueViolation(&pgconn.PgError{Code: "23505", ConstraintName: "other"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "other")
	assert.Nil(t, mapUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.Nil(t, mapUniqueViolation(errors.New("plain")))
}

func TestMigrate(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	orig := gooseUpContext
	defer func() { gooseUpContext = orig }()

	var gotDir string
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		gotDir = dir
		return nil
	}
	require.NoError(t, Migrate(context.Background(), db))
	assert.Equal(t, ".", gotDir)

	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	err = Migrate(context.Background(), db)
	assert.ErrorContains(t, err, "boom")
}

func ptr(s string) *string { return &s }
