package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kitarena/kitarena-backend/api/responses"
	"github.com/kitarena/kitarena-backend/api/validators"
	articlesvc "github.com/kitarena/kitarena-backend/internal/articles"
	pkgerrors "github.com/kitarena/kitarena-backend/pkg/errors"
	"github.com/kitarena/kitarena-backend/pkg/logger"
)

// ListPublishedArticles serves the public news feed.
func ListPublishedArticles(svc articlesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListPublished(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// GetPublishedArticle serves one published article by slug.
func GetPublishedArticle(svc articlesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := strings.TrimSpace(chi.URLParam(r, "slug"))
		if slug == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "slug is required"))
			return
		}

		article, err := svc.GetPublishedBySlug(r.Context(), slug)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, article)
	}
}

type createArticleRequest struct {
	Title      string  `json:"title" validate:"required"`
	Slug       string  `json:"slug" validate:"required"`
	Excerpt    *string `json:"excerpt,omitempty"`
	Body       string  `json:"body" validate:"required"`
	CoverImage *string `json:"cover_image,omitempty"`
}

type updateArticleRequest struct {
	Title      *string `json:"title,omitempty"`
	Excerpt    *string `json:"excerpt,omitempty"`
	Body       *string `json:"body,omitempty"`
	CoverImage *string `json:"cover_image,omitempty"`
}

// EditorListArticles pages through the caller's drafts and published pieces.
func EditorListArticles(svc articlesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, role, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := validators.ParsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListArticles(r.Context(), articlesvc.Actor{UserID: userID, Role: role}, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// EditorGetArticle serves one article regardless of publication state.
func EditorGetArticle(svc articlesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, role, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		articleID, err := validators.PathUUID(chi.URLParam(r, "articleId"), "articleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		article, err := svc.GetArticle(r.Context(), articlesvc.Actor{UserID: userID, Role: role}, articleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, article)
	}
}

// EditorCreateArticle drafts a new article.
func EditorCreateArticle(svc articlesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, role, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createArticleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		article, err := svc.CreateArticle(r.Context(), articlesvc.Actor{UserID: userID, Role: role}, articlesvc.CreateArticleInput{
			Title:      payload.Title,
			Slug:       payload.Slug,
			Excerpt:    payload.Excerpt,
			Body:       payload.Body,
			CoverImage: payload.CoverImage,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, article)
	}
}

// EditorUpdateArticle edits an existing article.
func EditorUpdateArticle(svc articlesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, role, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		articleID, err := validators.PathUUID(chi.URLParam(r, "articleId"), "articleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateArticleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		article, err := svc.UpdateArticle(r.Context(), articlesvc.Actor{UserID: userID, Role: role}, articleID, articlesvc.UpdateArticleInput{
			Title:      payload.Title,
			Excerpt:    payload.Excerpt,
			Body:       payload.Body,
			CoverImage: payload.CoverImage,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, article)
	}
}

// EditorPublishArticle makes an article publicly visible.
func EditorPublishArticle(svc articlesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return articlePublishHandler(svc, logg, true)
}

// EditorUnpublishArticle pulls an article back to draft.
func EditorUnpublishArticle(svc articlesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return articlePublishHandler(svc, logg, false)
}

func articlePublishHandler(svc articlesvc.Service, logg *logger.Logger, publish bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, role, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		articleID, err := validators.PathUUID(chi.URLParam(r, "articleId"), "articleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor := articlesvc.Actor{UserID: userID, Role: role}
		var article any
		if publish {
			article, err = svc.PublishArticle(r.Context(), actor, articleID)
		} else {
			article, err = svc.UnpublishArticle(r.Context(), actor, articleID)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, article)
	}
}

// EditorDeleteArticle removes an article.
func EditorDeleteArticle(svc articlesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, role, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		articleID, err := validators.PathUUID(chi.URLParam(r, "articleId"), "articleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteArticle(r.Context(), articlesvc.Actor{UserID: userID, Role: role}, articleID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, nil)
	}
}
