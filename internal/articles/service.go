package articles

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kitarena/kitarena-backend/pkg/cache"
	"github.com/kitarena/kitarena-backend/pkg/config"
	"github.com/kitarena/kitarena-backend/pkg/db"
	"github.com/kitarena/kitarena-backend/pkg/db/models"
	"github.com/kitarena/kitarena-backend/pkg/enums"
	pkgerrors "github.com/kitarena/kitarena-backend/pkg/errors"
	"github.com/kitarena/kitarena-backend/pkg/logger"
	"github.com/kitarena/kitarena-backend/pkg/pagination"
)

var articleSlugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// firstPageKey caches the default public listing, the page nearly all
// storefront traffic hits. Deeper pages always go to the database.
const firstPageKey = "articles:public:first"

func slugKey(slug string) string {
	return "articles:slug:" + slug
}

// Service manages news content. Reads of published articles are cached;
// every write invalidates the affected keys explicitly rather than waiting
// out the TTL.
type Service interface {
	ListPublished(ctx context.Context, params pagination.Params) (*ArticleList, error)
	GetPublishedBySlug(ctx context.Context, slug string) (*models.Article, error)
	GetArticle(ctx context.Context, actor Actor, id uuid.UUID) (*models.Article, error)
	ListArticles(ctx context.Context, actor Actor, params pagination.Params) (*ArticleList, error)
	CreateArticle(ctx context.Context, actor Actor, input CreateArticleInput) (*models.Article, error)
	UpdateArticle(ctx context.Context, actor Actor, id uuid.UUID, input UpdateArticleInput) (*models.Article, error)
	PublishArticle(ctx context.Context, actor Actor, id uuid.UUID) (*models.Article, error)
	UnpublishArticle(ctx context.Context, actor Actor, id uuid.UUID) (*models.Article, error)
	DeleteArticle(ctx context.Context, actor Actor, id uuid.UUID) error
}

type service struct {
	repo  Repository
	cache cache.Cache
	ttl   time.Duration
	logg  *logger.Logger
	now   func() time.Time
}

// NewService builds the article service. All dependencies are required.
func NewService(repo Repository, pageCache cache.Cache, cfg config.CacheConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("articles repository required")
	}
	if pageCache == nil {
		return nil, fmt.Errorf("page cache required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	ttl := cfg.ArticleTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &service{
		repo:  repo,
		cache: pageCache,
		ttl:   ttl,
		logg:  logg,
		now:   time.Now,
	}, nil
}

func (s *service) ListPublished(ctx context.Context, params pagination.Params) (*ArticleList, error) {
	cacheable := params.Cursor == "" && pagination.NormalizeLimit(params.Limit) == pagination.DefaultLimit
	if cacheable {
		var cached ArticleList
		err := s.cache.Get(ctx, firstPageKey, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			s.logg.Error(ctx, "article page cache read failed", err)
		}
	}

	list, err := s.repo.List(ctx, params, ListFilters{OnlyPublished: true})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing published articles")
	}

	if cacheable {
		if err := s.cache.Set(ctx, firstPageKey, list, s.ttl); err != nil {
			s.logg.Error(ctx, "article page cache write failed", err)
		}
	}
	return list, nil
}

func (s *service) GetPublishedBySlug(ctx context.Context, slug string) (*models.Article, error) {
	var cached models.Article
	err := s.cache.Get(ctx, slugKey(slug), &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		s.logg.Error(ctx, "article cache read failed", err)
	}

	article, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "article not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading article")
	}
	if !article.Published {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "article not found")
	}

	if err := s.cache.Set(ctx, slugKey(slug), article, s.ttl); err != nil {
		s.logg.Error(ctx, "article cache write failed", err)
	}
	return article, nil
}

func (s *service) GetArticle(ctx context.Context, actor Actor, id uuid.UUID) (*models.Article, error) {
	article, err := s.loadForEdit(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return article, nil
}

// ListArticles is the back-office listing: journalists see their own work,
// admins everything.
func (s *service) ListArticles(ctx context.Context, actor Actor, params pagination.Params) (*ArticleList, error) {
	if err := requireEditor(actor); err != nil {
		return nil, err
	}
	filters := ListFilters{}
	if actor.Role != enums.UserRoleAdmin {
		authorID := actor.UserID
		filters.AuthorID = &authorID
	}
	list, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing articles")
	}
	return list, nil
}

func (s *service) CreateArticle(ctx context.Context, actor Actor, input CreateArticleInput) (*models.Article, error) {
	if err := requireEditor(actor); err != nil {
		return nil, err
	}
	if input.Title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if input.Body == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "body is required")
	}
	if !articleSlugPattern.MatchString(input.Slug) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug must be lowercase kebab-case")
	}

	article := &models.Article{
		Title:      input.Title,
		Slug:       input.Slug,
		Excerpt:    input.Excerpt,
		Body:       input.Body,
		CoverImage: input.CoverImage,
		AuthorID:   actor.UserID,
	}
	created, err := s.repo.Create(ctx, article)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "an article with this slug already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating article")
	}
	s.invalidate(ctx, created.Slug)
	return created, nil
}

func (s *service) UpdateArticle(ctx context.Context, actor Actor, id uuid.UUID, input UpdateArticleInput) (*models.Article, error) {
	article, err := s.loadForEdit(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Title != nil {
		if *input.Title == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "title cannot be empty")
		}
		updates["title"] = *input.Title
	}
	if input.Excerpt != nil {
		updates["excerpt"] = *input.Excerpt
	}
	if input.Body != nil {
		if *input.Body == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "body cannot be empty")
		}
		updates["body"] = *input.Body
	}
	if input.CoverImage != nil {
		updates["cover_image"] = *input.CoverImage
	}
	if len(updates) == 0 {
		return article, nil
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating article")
	}
	s.invalidate(ctx, article.Slug)
	return s.repo.FindByID(ctx, id)
}

func (s *service) PublishArticle(ctx context.Context, actor Actor, id uuid.UUID) (*models.Article, error) {
	return s.setPublished(ctx, actor, id, true)
}

func (s *service) UnpublishArticle(ctx context.Context, actor Actor, id uuid.UUID) (*models.Article, error) {
	return s.setPublished(ctx, actor, id, false)
}

func (s *service) setPublished(ctx context.Context, actor Actor, id uuid.UUID, published bool) (*models.Article, error) {
	article, err := s.loadForEdit(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{"published": published}
	if published {
		updates["published_at"] = s.now()
	} else {
		updates["published_at"] = nil
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating article publication")
	}
	s.invalidate(ctx, article.Slug)
	return s.repo.FindByID(ctx, id)
}

func (s *service) DeleteArticle(ctx context.Context, actor Actor, id uuid.UUID) error {
	article, err := s.loadForEdit(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "article not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting article")
	}
	s.invalidate(ctx, article.Slug)
	return nil
}

// loadForEdit enforces ownership: journalists edit their own articles, admins
// anything.
func (s *service) loadForEdit(ctx context.Context, actor Actor, id uuid.UUID) (*models.Article, error) {
	if err := requireEditor(actor); err != nil {
		return nil, err
	}
	article, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "article not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading article")
	}
	if actor.Role != enums.UserRoleAdmin && article.AuthorID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "article belongs to another author")
	}
	return article, nil
}

func (s *service) invalidate(ctx context.Context, slug string) {
	if err := s.cache.Invalidate(ctx, firstPageKey, slugKey(slug)); err != nil {
		s.logg.Error(ctx, "article cache invalidation failed", err)
	}
}

func requireEditor(actor Actor) error {
	switch actor.Role {
	case enums.UserRoleAdmin, enums.UserRoleJournalist:
		return nil
	default:
		return pkgerrors.New(pkgerrors.CodeForbidden, "journalist or admin role required")
	}
}
