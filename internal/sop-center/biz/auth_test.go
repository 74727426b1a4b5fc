package biz

import (
	"context"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kart-io/clinsop/internal/model"
	"github.com/kart-io/clinsop/internal/sop-center/store"
	"github.com/kart-io/clinsop/pkg/security/auth/jwt"
	"github.com/kart-io/clinsop/pkg/utils/errors"
)

const testSigningKey = "sop-center-test-key-with-enough-length!"

func newTestDB(t *testing.T, models ...interface{}) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	// A pooled second connection would see a different in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(models...))
	return db
}

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()
	db := newTestDB(t, &model.User{})
	authn, err := jwt.New(jwt.WithKey(testSigningKey), jwt.WithStore(jwt.NewMemoryStore()))
	require.NoError(t, err)
	return NewAuthService(authn, store.NewStore(db))
}

func registerReq(email string) *RegisterRequest {
	return &RegisterRequest{
		Email:    email,
		Password: "correct horse battery",
		Name:     "Nurse Joy",
	}
}

func TestRegisterHashesPassword(t *testing.T) {
	svc := newTestAuthService(t)

	user, err := svc.Register(t.Context(), registerReq("joy@clinic.test"))
	require.NoError(t, err)

	assert.NotZero(t, user.ID)
	assert.Equal(t, "staff", user.Role)
	assert.NotEqual(t, "correct horse battery", user.Password)
	assert.NotEmpty(t, user.Password)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestAuthService(t)

	_, err := svc.Register(t.Context(), registerReq("joy@clinic.test"))
	require.NoError(t, err)

	_, err = svc.Register(t.Context(), registerReq("joy@clinic.test"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrEmailTaken.Code))
	assert.Equal(t, "Email already in use", errors.FromError(err).Message("en"))
}

// blindFactory hides existing rows from GetByEmail so Register's
// pre-check passes and the unique index has to catch the duplicate.
type blindFactory struct {
	store.Factory
}

func (f *blindFactory) Users() store.UserStore {
	return &blindUsers{UserStore: f.Factory.Users()}
}

type blindUsers struct {
	store.UserStore
}

func (u *blindUsers) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func TestRegisterDuplicateEmailRace(t *testing.T) {
	db := newTestDB(t, &model.User{})
	authn, err := jwt.New(jwt.WithKey(testSigningKey), jwt.WithStore(jwt.NewMemoryStore()))
	require.NoError(t, err)

	svc := NewAuthService(authn, store.NewStore(db))
	_, err = svc.Register(t.Context(), registerReq("joy@clinic.test"))
	require.NoError(t, err)

	// Another request inserted the row after our pre-check read.
	raced := NewAuthService(authn, &blindFactory{Factory: store.NewStore(db)})
	_, err = raced.Register(t.Context(), registerReq("joy@clinic.test"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrEmailTaken.Code))
	assert.Equal(t, "Email already in use", errors.FromError(err).Message("en"))
}

func TestLoginAndMe(t *testing.T) {
	svc := newTestAuthService(t)

	user, err := svc.Register(t.Context(), registerReq("joy@clinic.test"))
	require.NoError(t, err)

	resp, err := svc.Login(t.Context(), "joy@clinic.test", "correct horse battery")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, user.ID, resp.User.ID)

	me, err := svc.Me(t.Context(), fmt.Sprintf("%d", user.ID))
	require.NoError(t, err)
	assert.Equal(t, "joy@clinic.test", me.Email)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newTestAuthService(t)

	_, err := svc.Register(t.Context(), registerReq("joy@clinic.test"))
	require.NoError(t, err)

	_, err = svc.Login(t.Context(), "joy@clinic.test", "wrong")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrInvalidCredentials.Code))
	assert.Equal(t, "Invalid credentials", errors.FromError(err).Message("en"))
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := newTestAuthService(t)

	_, err := svc.Login(t.Context(), "nobody@clinic.test", "whatever")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrInvalidCredentials.Code))
}

func TestLogoutRevokesToken(t *testing.T) {
	db := newTestDB(t, &model.User{})
	authn, err := jwt.New(jwt.WithKey(testSigningKey), jwt.WithStore(jwt.NewMemoryStore()))
	require.NoError(t, err)
	svc := NewAuthService(authn, store.NewStore(db))

	_, err = svc.Register(t.Context(), registerReq("joy@clinic.test"))
	require.NoError(t, err)
	resp, err := svc.Login(t.Context(), "joy@clinic.test", "correct horse battery")
	require.NoError(t, err)

	_, err = authn.Verify(t.Context(), resp.Token)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(t.Context(), resp.Token))

	_, err = authn.Verify(t.Context(), resp.Token)
	require.Error(t, err)
}
