package articles

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kitarena/kitarena-backend/pkg/cache"
	"github.com/kitarena/kitarena-backend/pkg/config"
	"github.com/kitarena/kitarena-backend/pkg/db/models"
	"github.com/kitarena/kitarena-backend/pkg/enums"
	pkgerrors "github.com/kitarena/kitarena-backend/pkg/errors"
	"github.com/kitarena/kitarena-backend/pkg/logger"
	"github.com/kitarena/kitarena-backend/pkg/pagination"
)

type stubArticlesRepo struct {
	createFn   func(ctx context.Context, article *models.Article) (*models.Article, error)
	findByIDFn func(ctx context.Context, id uuid.UUID) (*models.Article, error)
	findSlugFn func(ctx context.Context, slug string) (*models.Article, error)
	listFn     func(ctx context.Context, params pagination.Params, filters ListFilters) (*ArticleList, error)
	updateFn   func(ctx context.Context, id uuid.UUID, updates map[string]any) error
	deleteFn   func(ctx context.Context, id uuid.UUID) error

	listCalls   int
	lastUpdates map[string]any
}

func (s *stubArticlesRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubArticlesRepo) Create(ctx context.Context, article *models.Article) (*models.Article, error) {
	if s.createFn != nil {
		return s.createFn(ctx, article)
	}
	article.ID = uuid.New()
	return article, nil
}

func (s *stubArticlesRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Article, error) {
	if s.findByIDFn != nil {
		return s.findByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubArticlesRepo) FindBySlug(ctx context.Context, slug string) (*models.Article, error) {
	if s.findSlugFn != nil {
		return s.findSlugFn(ctx, slug)
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubArticlesRepo) List(ctx context.Context, params pagination.Params, filters ListFilters) (*ArticleList, error) {
	s.listCalls++
	if s.listFn != nil {
		return s.listFn(ctx, params, filters)
	}
	return &ArticleList{}, nil
}

func (s *stubArticlesRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	s.lastUpdates = updates
	if s.updateFn != nil {
		return s.updateFn(ctx, id, updates)
	}
	return nil
}

func (s *stubArticlesRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, id)
	}
	return nil
}

func newArticleService(t *testing.T, repo Repository) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("error")})
	svc, err := NewService(repo, cache.NewMemory(), config.CacheConfig{}, logg)
	require.NoError(t, err)
	return svc
}

func journalist() Actor { return Actor{UserID: uuid.New(), Role: enums.UserRoleJournalist} }
func admin() Actor      { return Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin} }

func TestListPublishedCachesFirstPage(t *testing.T) {
	repo := &stubArticlesRepo{
		listFn: func(ctx context.Context, params pagination.Params, filters ListFilters) (*ArticleList, error) {
			assert.True(t, filters.OnlyPublished)
			return &ArticleList{Articles: []models.Article{{ID: uuid.New(), Title: "Derby preview"}}}, nil
		},
	}
	svc := newArticleService(t, repo)
	ctx := context.Background()

	first, err := svc.ListPublished(ctx, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, first.Articles, 1)

	second, err := svc.ListPublished(ctx, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, second.Articles, 1)

	assert.Equal(t, 1, repo.listCalls)
}

func TestListPublishedSkipsCacheForDeepPages(t *testing.T) {
	repo := &stubArticlesRepo{}
	svc := newArticleService(t, repo)
	ctx := context.Background()

	cursor := pagination.EncodeCursor(pagination.Cursor{ID: uuid.New()})
	_, err := svc.ListPublished(ctx, pagination.Params{Cursor: cursor})
	require.NoError(t, err)
	_, err = svc.ListPublished(ctx, pagination.Params{Cursor: cursor})
	require.NoError(t, err)

	assert.Equal(t, 2, repo.listCalls)
}

func TestCreateInvalidatesListCache(t *testing.T) {
	repo := &stubArticlesRepo{}
	svc := newArticleService(t, repo)
	ctx := context.Background()

	_, err := svc.ListPublished(ctx, pagination.Params{})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.listCalls)

	_, err = svc.CreateArticle(ctx, journalist(), CreateArticleInput{
		Title: "New signing",
		Slug:  "new-signing",
		Body:  "Full story.",
	})
	require.NoError(t, err)

	_, err = svc.ListPublished(ctx, pagination.Params{})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.listCalls)
}

func TestGetPublishedBySlugHidesDrafts(t *testing.T) {
	repo := &stubArticlesRepo{
		findSlugFn: func(ctx context.Context, slug string) (*models.Article, error) {
			return &models.Article{ID: uuid.New(), Slug: slug, Published: false}, nil
		},
	}
	svc := newArticleService(t, repo)

	_, err := svc.GetPublishedBySlug(context.Background(), "draft-story")
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestGetPublishedBySlugCachesArticle(t *testing.T) {
	calls := 0
	repo := &stubArticlesRepo{
		findSlugFn: func(ctx context.Context, slug string) (*models.Article, error) {
			calls++
			return &models.Article{ID: uuid.New(), Slug: slug, Title: "Derby report", Published: true}, nil
		},
	}
	svc := newArticleService(t, repo)
	ctx := context.Background()

	_, err := svc.GetPublishedBySlug(ctx, "derby-report")
	require.NoError(t, err)
	article, err := svc.GetPublishedBySlug(ctx, "derby-report")
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, "Derby report", article.Title)
}

func TestCreateRejectsBadSlug(t *testing.T) {
	svc := newArticleService(t, &stubArticlesRepo{})

	_, err := svc.CreateArticle(context.Background(), journalist(), CreateArticleInput{
		Title: "Bad slug",
		Slug:  "Bad Slug!",
		Body:  "text",
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestCreateRequiresEditorRole(t *testing.T) {
	svc := newArticleService(t, &stubArticlesRepo{})

	_, err := svc.CreateArticle(context.Background(), Actor{UserID: uuid.New(), Role: enums.UserRoleUser}, CreateArticleInput{
		Title: "Nope",
		Slug:  "nope",
		Body:  "text",
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbidden))
}

func TestJournalistCannotEditForeignArticle(t *testing.T) {
	author := journalist()
	other := journalist()
	article := &models.Article{ID: uuid.New(), AuthorID: author.UserID, Slug: "mine", Title: "Mine", Body: "text"}
	repo := &stubArticlesRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*models.Article, error) {
			return article, nil
		},
	}
	svc := newArticleService(t, repo)

	title := "Stolen"
	_, err := svc.UpdateArticle(context.Background(), other, article.ID, UpdateArticleInput{Title: &title})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbidden))

	_, err = svc.UpdateArticle(context.Background(), admin(), article.ID, UpdateArticleInput{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Stolen", repo.lastUpdates["title"])
}

func TestPublishStampsTimestamp(t *testing.T) {
	author := journalist()
	article := &models.Article{ID: uuid.New(), AuthorID: author.UserID, Slug: "story", Title: "Story", Body: "text"}
	repo := &stubArticlesRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*models.Article, error) {
			return article, nil
		},
	}
	svc := newArticleService(t, repo)

	_, err := svc.PublishArticle(context.Background(), author, article.ID)
	require.NoError(t, err)
	assert.Equal(t, true, repo.lastUpdates["published"])
	assert.NotNil(t, repo.lastUpdates["published_at"])

	_, err = svc.UnpublishArticle(context.Background(), author, article.ID)
	require.NoError(t, err)
	assert.Equal(t, false, repo.lastUpdates["published"])
	assert.Nil(t, repo.lastUpdates["published_at"])
}
