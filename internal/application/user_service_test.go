package application

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"authgate/internal/domain/entity"
	repo "authgate/internal/domain/repository"
	"authgate/pkg/helpers"
)

// mockUserRepo implements repository.UserRepository with overridable funcs.
type mockUserRepo struct {
	CreateFunc          func(ctx context.Context, u *entity.User) error
	GetByIDFunc         func(ctx context.Context, id string) (*entity.User, error)
	GetByEmailFunc      func(ctx context.Context, email string) (*entity.User, error)
	GetByIdentifierFunc func(ctx context.Context, identifier string) (*entity.User, error)
	UpdateFunc          func(ctx context.Context, u *entity.User) error
	UpsertOAuthFunc     func(ctx context.Context, name, email, imageURL string) (*entity.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, u *entity.User) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, u)
	}
	u.ID = "generated-id"
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, repo.ErrNotFound
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, repo.ErrNotFound
}

func (m *mockUserRepo) GetByIdentifier(ctx context.Context, identifier string) (*entity.User, error) {
	if m.GetByIdentifierFunc != nil {
		return m.GetByIdentifierFunc(ctx, identifier)
	}
	return nil, repo.ErrNotFound
}

func (m *mockUserRepo) Update(ctx context.Context, u *entity.User) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, u)
	}
	return nil
}

func (m *mockUserRepo) UpsertOAuthUser(ctx context.Context, name, email, imageURL string) (*entity.User, error) {
	if m.UpsertOAuthFunc != nil {
		return m.UpsertOAuthFunc(ctx, name, email, imageURL)
	}
	return &entity.User{ID: "oauth-id", Name: name, Email: email, ImageURL: imageURL}, nil
}

// fakeUploader records the upload and returns a deterministic URL.
type fakeUploader struct {
	gotPath        string
	gotContentType string
	gotBody        string
	err            error
}

func (f *fakeUploader) Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.gotPath = objectPath
	f.gotContentType = contentType
	b, _ := io.ReadAll(r)
	f.gotBody = string(b)
	return "https://storage.example/" + objectPath, nil
}

func newTestService(r repo.UserRepository, up ImageUploader) *Service {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return &Service{
		Repo:     r,
		JWT:      &helpers.JWTManager{Secret: []byte("test-secret"), TTL: time.Hour},
		Uploader: up,
		Logger:   logger,
		AppName:  "authgate",
	}
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		createFunc func(ctx context.Context, u *entity.User) error
		wantErr    error
	}{
		{
			name: "success hashes the password",
			createFunc: func(ctx context.Context, u *entity.User) error {
				if u.Password == "password123" {
					return errors.New("password stored in plaintext")
				}
				if !helpers.CompareHashAndPassword(u.Password, "password123") {
					return errors.New("stored hash does not verify")
				}
				u.ID = "u-1"
				return nil
			},
		},
		{
			name: "duplicate email maps to ErrEmailTaken",
			createFunc: func(ctx context.Context, u *entity.User) error {
				return repo.ErrDuplicateEmail
			},
			wantErr: ErrEmailTaken,
		},
		{
			name: "other store errors pass through",
			createFunc: func(ctx context.Context, u *entity.User) error {
				return errors.New("connection reset")
			},
			wantErr: errors.New("connection reset"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(&mockUserRepo{CreateFunc: tt.createFunc}, nil)

			u, err := svc.Register(ctx, "Ada", "ada@example.com", "password123")
			if tt.wantErr != nil {
				require.Error(t, err)
				if errors.Is(tt.wantErr, ErrEmailTaken) {
					assert.ErrorIs(t, err, ErrEmailTaken)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "u-1", u.ID)
			assert.Equal(t, "ada@example.com", u.Email)
		})
	}
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	hash, err := helpers.HashPassword("password123")
	require.NoError(t, err)

	stored := &entity.User{ID: "u-1", Email: "ada@example.com", Password: hash}

	tests := []struct {
		name       string
		lookupFunc func(ctx context.Context, identifier string) (*entity.User, error)
		password   string
		wantErr    error
	}{
		{
			name: "valid credentials",
			lookupFunc: func(ctx context.Context, identifier string) (*entity.User, error) {
				return stored, nil
			},
			password: "password123",
		},
		{
			name: "wrong password",
			lookupFunc: func(ctx context.Context, identifier string) (*entity.User, error) {
				return stored, nil
			},
			password: "nope",
			wantErr:  ErrInvalidCredentials,
		},
		{
			name: "unknown identifier",
			lookupFunc: func(ctx context.Context, identifier string) (*entity.User, error) {
				return nil, repo.ErrNotFound
			},
			password: "password123",
			wantErr:  ErrUserNotFound,
		},
		{
			name: "oauth-only account has no hash",
			lookupFunc: func(ctx context.Context, identifier string) (*entity.User, error) {
				return &entity.User{ID: "u-2", Email: "g@example.com"}, nil
			},
			password: "anything",
			wantErr:  ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(&mockUserRepo{GetByIdentifierFunc: tt.lookupFunc}, nil)

			u, err := svc.Authenticate(ctx, "ada@example.com", tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "u-1", u.ID)
		})
	}
}

func TestOAuthSignIn(t *testing.T) {
	ctx := context.Background()
	var gotName, gotEmail, gotImage string

	svc := newTestService(&mockUserRepo{
		UpsertOAuthFunc: func(ctx context.Context, name, email, imageURL string) (*entity.User, error) {
			gotName, gotEmail, gotImage = name, email, imageURL
			return &entity.User{ID: "u-9", Name: name, Email: email, ImageURL: imageURL}, nil
		},
	}, nil)

	u, err := svc.OAuthSignIn(ctx, "Ada", "ada@gmail.com", "https://img/a.png")
	require.NoError(t, err)
	assert.Equal(t, "u-9", u.ID)
	assert.Empty(t, u.Password)
	assert.Equal(t, "Ada", gotName)
	assert.Equal(t, "ada@gmail.com", gotEmail)
	assert.Equal(t, "https://img/a.png", gotImage)
}

func TestIssueSessionCarriesSnapshot(t *testing.T) {
	svc := newTestService(&mockUserRepo{}, nil)
	u := &entity.User{ID: "u-1", Name: "Ada", Email: "ada@example.com", ImageURL: "https://img/a.png"}

	token, exp, err := svc.IssueSession(context.Background(), u)
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))

	claims, err := svc.JWT.ParseSessionToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "Ada", claims.Name)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, "https://img/a.png", claims.Image)
}

func TestCurrentUserServedFromSessionCache(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	updated := time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)
	mock.ExpectHGetAll("user:session:u-1").SetVal(map[string]string{
		"user_id":    "u-1",
		"email":      "ada@example.com",
		"name":       "Ada",
		"image_url":  "https://img/a.png",
		"created_at": created.Format(time.RFC3339Nano),
		"updated_at": updated.Format(time.RFC3339Nano),
	})

	storeHit := false
	svc := newTestService(&mockUserRepo{
		GetByIDFunc: func(ctx context.Context, id string) (*entity.User, error) {
			storeHit = true
			return nil, repo.ErrNotFound
		},
	}, nil)
	svc.Redis = rdb

	profile, err := svc.CurrentUser(context.Background(), "u-1")
	require.NoError(t, err)
	assert.False(t, storeHit, "populated cache must not hit the document store")
	assert.Equal(t, "u-1", profile.ID)
	assert.Equal(t, "ada@example.com", profile.Email)
	assert.Equal(t, "Ada", profile.Name)
	assert.Equal(t, "https://img/a.png", profile.ImageURL)
	assert.True(t, profile.CreatedAt.Equal(created))
	assert.True(t, profile.UpdatedAt.Equal(updated))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCurrentUserEmptyCacheHitsStore(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	mock.ExpectHGetAll("user:session:u-1").SetVal(map[string]string{})

	svc := newTestService(&mockUserRepo{
		GetByIDFunc: func(ctx context.Context, id string) (*entity.User, error) {
			return &entity.User{ID: id, Email: "ada@example.com", Name: "Ada"}, nil
		},
	}, nil)
	svc.Redis = rdb

	profile, err := svc.CurrentUser(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", profile.Email)
	// The repopulating HSet/Expire pipeline is best-effort; its commands are
	// not asserted here.
}

func TestCurrentUserFallsBackToStore(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	svc := newTestService(&mockUserRepo{
		GetByIDFunc: func(ctx context.Context, id string) (*entity.User, error) {
			if id != "u-1" {
				return nil, repo.ErrNotFound
			}
			return &entity.User{
				ID: "u-1", Email: "ada@example.com", Name: "Ada",
				Password: "hash", CreatedAt: now, UpdatedAt: now,
			}, nil
		},
	}, nil)

	profile, err := svc.CurrentUser(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, "u-1", profile.ID)
	assert.Equal(t, "ada@example.com", profile.Email)

	_, err = svc.CurrentUser(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	existing := func(ctx context.Context, id string) (*entity.User, error) {
		return &entity.User{ID: id, Name: "Old Name", Email: "old@example.com", ImageURL: "old.png"}, nil
	}

	t.Run("uploads image before persisting", func(t *testing.T) {
		up := &fakeUploader{}
		var persisted *entity.User
		svc := newTestService(&mockUserRepo{
			GetByIDFunc: existing,
			UpdateFunc: func(ctx context.Context, u *entity.User) error {
				cp := *u
				persisted = &cp
				return nil
			},
		}, up)

		u, err := svc.UpdateProfile(ctx, "u-1", UpdateProfileInput{
			Name:             "New Name",
			Image:            strings.NewReader("png-bytes"),
			ImageFilename:    "avatar.PNG",
			ImageContentType: "image/png",
		})
		require.NoError(t, err)

		assert.Equal(t, "png-bytes", up.gotBody)
		assert.Equal(t, "image/png", up.gotContentType)
		assert.True(t, strings.HasPrefix(up.gotPath, "profiles/u-1/"))
		assert.True(t, strings.HasSuffix(up.gotPath, ".png"))

		require.NotNil(t, persisted)
		assert.Equal(t, "New Name", persisted.Name)
		assert.Equal(t, "https://storage.example/"+up.gotPath, persisted.ImageURL)
		assert.Equal(t, persisted.ImageURL, u.ImageURL)
		// Email was not in the input, so it must survive untouched.
		assert.Equal(t, "old@example.com", persisted.Email)
	})

	t.Run("upload failure aborts before any persist", func(t *testing.T) {
		updated := false
		svc := newTestService(&mockUserRepo{
			GetByIDFunc: existing,
			UpdateFunc: func(ctx context.Context, u *entity.User) error {
				updated = true
				return nil
			},
		}, &fakeUploader{err: errors.New("bucket unavailable")})

		_, err := svc.UpdateProfile(ctx, "u-1", UpdateProfileInput{
			Image:            strings.NewReader("png-bytes"),
			ImageFilename:    "avatar.png",
			ImageContentType: "image/png",
		})
		require.Error(t, err)
		assert.False(t, updated)
	})

	t.Run("no image skips the uploader entirely", func(t *testing.T) {
		svc := newTestService(&mockUserRepo{GetByIDFunc: existing}, nil)

		u, err := svc.UpdateProfile(ctx, "u-1", UpdateProfileInput{Name: "Renamed"})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", u.Name)
		assert.Equal(t, "old.png", u.ImageURL)
	})

	t.Run("unknown user", func(t *testing.T) {
		svc := newTestService(&mockUserRepo{}, nil)

		_, err := svc.UpdateProfile(ctx, "missing", UpdateProfileInput{Name: "x"})
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("duplicate email on persist", func(t *testing.T) {
		svc := newTestService(&mockUserRepo{
			GetByIDFunc: existing,
			UpdateFunc: func(ctx context.Context, u *entity.User) error {
				return repo.ErrDuplicateEmail
			},
		}, nil)

		_, err := svc.UpdateProfile(ctx, "u-1", UpdateProfileInput{Email: "taken@example.com"})
		assert.ErrorIs(t, err, ErrEmailTaken)
	})
}
