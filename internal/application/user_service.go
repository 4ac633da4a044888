package application

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"authgate/internal/domain/entity"
	repo "authgate/internal/domain/repository"
	"authgate/pkg/helpers"
	"authgate/pkg/mailer"
	"authgate/pkg/mailer/templates"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
)

// ImageUploader streams a profile image to the image host and returns its public URL.
type ImageUploader interface {
	Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error)
}

type Service struct {
	Repo         repo.UserRepository
	JWT          *helpers.JWTManager
	Uploader     ImageUploader
	Redis        *redis.Client
	Logger       *logrus.Logger
	ES           *elasticsearch.Client
	ESUsersIndex string
	Pub          *helpers.RabbitPublisher
	AppName      string
	MailEnabled  bool
}

func NewService(r repo.UserRepository, jwt *helpers.JWTManager, uploader ImageUploader, rdb *redis.Client, logger *logrus.Logger, es *elasticsearch.Client, esUsersIndex string, pub *helpers.RabbitPublisher, appName string, mailEnabled bool) *Service {
	return &Service{
		Repo:         r,
		JWT:          jwt,
		Uploader:     uploader,
		Redis:        rdb,
		Logger:       logger,
		ES:           es,
		ESUsersIndex: esUsersIndex,
		Pub:          pub,
		AppName:      appName,
		MailEnabled:  mailEnabled,
	}
}

func sessionKey(userID string) string {
	return "user:session:" + userID
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// Register creates a credential-based account. The unique email index is the
// single source of truth for duplicates; its violation maps to ErrEmailTaken.
func (s *Service) Register(ctx context.Context, name, email, password string) (*entity.User, error) {
	hash, err := helpers.HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &entity.User{Name: name, Email: email, Password: hash}
	if err := s.Repo.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	s.enqueueEmail(ctx, u.Email, templates.Welcome, map[string]any{
		"Name":    u.Name,
		"Email":   u.Email,
		"AppName": s.AppName,
	})
	_ = s.indexUser(ctx, u)
	return u, nil
}

// Authenticate validates identifier/password and returns the user. The
// password hash never leaves this boundary; callers receive the entity and
// must project it before exposure.
func (s *Service) Authenticate(ctx context.Context, identifier, password string) (*entity.User, error) {
	u, err := s.Repo.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if u.Password == "" || !helpers.CompareHashAndPassword(u.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// OAuthSignIn resolves a provider identity into a user document with a single
// atomic find-or-create keyed on email. Existing users get the provider image
// unconditionally.
func (s *Service) OAuthSignIn(ctx context.Context, name, email, imageURL string) (*entity.User, error) {
	u, err := s.Repo.UpsertOAuthUser(ctx, name, email, imageURL)
	if err != nil {
		return nil, err
	}
	_ = s.indexUser(ctx, u)
	return u, nil
}

// IssueSession builds the signed session token carrying the identity snapshot
// and records the public projection in the Redis session cache.
func (s *Service) IssueSession(ctx context.Context, u *entity.User) (string, time.Time, error) {
	token, exp, err := s.JWT.GenerateSessionToken(u.ID, u.Name, u.Email, u.ImageURL)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate session token failed")
		}
		return "", time.Time{}, err
	}
	s.cacheProfile(ctx, u)
	return token, exp, nil
}

// CurrentUser returns the public projection for uid, serving from the session
// cache when populated and falling back to the document store.
func (s *Service) CurrentUser(ctx context.Context, uid string) (entity.PublicProfile, error) {
	if s.Redis != nil {
		if data, err := s.Redis.HGetAll(ctx, sessionKey(uid)).Result(); err == nil && len(data) > 0 {
			return profileFromCache(uid, data), nil
		}
	}
	u, err := s.Repo.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return entity.PublicProfile{}, ErrUserNotFound
		}
		return entity.PublicProfile{}, err
	}
	s.cacheProfile(ctx, u)
	return u.Public(), nil
}

// UpdateProfileInput carries the multipart form fields of a profile edit.
// Image is optional; when present it is uploaded before any field is persisted.
type UpdateProfileInput struct {
	Name             string
	Email            string
	Image            io.Reader
	ImageFilename    string
	ImageContentType string
}

// UpdateProfile applies a profile edit as one linear sequence: upload the
// image (if any), apply every field update, persist, then return. Callers must
// not respond before this returns, so the response never precedes durability.
func (s *Service) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if in.Image != nil {
		url, err := s.uploadImage(ctx, userID, in.Image, in.ImageFilename, in.ImageContentType)
		if err != nil {
			return nil, err
		}
		u.ImageURL = url
	}
	if in.Name != "" {
		u.Name = in.Name
	}
	if in.Email != "" {
		u.Email = in.Email
	}

	if err := s.Repo.Update(ctx, u); err != nil {
		switch {
		case errors.Is(err, repo.ErrDuplicateEmail):
			return nil, ErrEmailTaken
		case errors.Is(err, repo.ErrNotFound):
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	s.cacheProfile(ctx, u)
	_ = s.indexUser(ctx, u)
	s.enqueueEmail(ctx, u.Email, templates.ProfileUpdated, map[string]any{
		"Name":    u.Name,
		"AppName": s.AppName,
	})
	return u, nil
}

func (s *Service) uploadImage(ctx context.Context, userID string, r io.Reader, filename, contentType string) (string, error) {
	if s.Uploader == nil {
		return "", errors.New("image uploader not configured")
	}
	id := uuid.NewString()
	ext := strings.ToLower(filepath.Ext(filename))
	objectPath := filepath.ToSlash(filepath.Join("profiles", userID, id+ext))
	return s.Uploader.Upload(ctx, objectPath, contentType, r)
}

// cacheProfile refreshes the session snapshot cache so GET /api/user reflects
// the latest persisted values without a store round-trip.
func (s *Service) cacheProfile(ctx context.Context, u *entity.User) {
	if s.Redis == nil {
		return
	}
	key := sessionKey(u.ID)
	fields := map[string]any{
		"user_id":    u.ID,
		"email":      u.Email,
		"name":       u.Name,
		"image_url":  u.ImageURL,
		"created_at": u.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updated_at": nowRFC3339(),
	}
	pipe := s.Redis.Pipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, s.JWT.TTL)
	if _, err := pipe.Exec(ctx); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("key", key).Warn("redis pipeline failed")
	}
}

func profileFromCache(uid string, data map[string]string) entity.PublicProfile {
	created, _ := time.Parse(time.RFC3339Nano, data["created_at"])
	updated, _ := time.Parse(time.RFC3339Nano, data["updated_at"])
	return entity.PublicProfile{
		ID:        uid,
		Email:     data["email"],
		Name:      data["name"],
		ImageURL:  data["image_url"],
		CreatedAt: created,
		UpdatedAt: updated,
	}
}

func (s *Service) enqueueEmail(ctx context.Context, to, tpl string, data map[string]any) {
	if s.Pub == nil || !s.MailEnabled {
		return
	}
	job := mailer.EmailJob{To: to, Template: tpl, Data: data}
	if err := s.Pub.PublishJSON(ctx, job); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("template", tpl).Warn("failed to publish email job")
	}
}

func (s *Service) indexUser(ctx context.Context, u *entity.User) error {
	if s.ES == nil || s.ESUsersIndex == "" {
		return nil
	}
	doc := map[string]any{
		"id":         u.ID,
		"email":      u.Email,
		"name":       u.Name,
		"image_url":  u.ImageURL,
		"created_at": u.CreatedAt.Format(time.RFC3339Nano),
		"updated_at": u.UpdatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESUsersIndex, DocumentID: u.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Warn("es index failed")
		}
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("user_id", u.ID).Warn("es index response error")
	}
	return nil
}

// SearchUsers performs a simple multi_match search on email and name.
func (s *Service) SearchUsers(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESUsersIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"email^2", "name"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(s.ES.Search.WithContext(c), s.ES.Search.WithIndex(s.ESUsersIndex), s.ES.Search.WithBody(strings.NewReader(string(b))))
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
