package handlers

import (
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pondok-digital/portal/internal/context"
	"github.com/pondok-digital/portal/internal/helpers"
	"github.com/pondok-digital/portal/internal/response"
	"github.com/pondok-digital/portal/internal/services"
	"github.com/pondok-digital/portal/internal/store"
)

const defaultArticlePageSize = 6

type ArticleHandler struct {
	store *store.Store
}

func NewArticleHandler(s *store.Store) *ArticleHandler {
	return &ArticleHandler{store: s}
}

// visible reports whether the caller may see the article: drafts are only shown to admins
func visible(r *http.Request, a services.Article) bool {
	if a.IsPublished {
		return true
	}
	_, ok := context.PrincipalFrom(r.Context())
	return ok
}

// newestFirst orders the visible articles by creation time, newest first
func (a *ArticleHandler) newestFirst(r *http.Request) []services.Article {
	articles := a.store.Articles.Filter(func(article services.Article) bool {
		return visible(r, article)
	})
	slices.SortStableFunc(articles, func(x, y services.Article) int {
		return y.CreatedAt.Compare(x.CreatedAt)
	})
	return articles
}

// GetArticlesHandler godoc
//
//	@Summary		List articles
//	@Description	Without page or limit the full list is returned as an array.
//	@Description	With either parameter the result is {items, meta}.
//	@Tags			articles
//
//	@Param			page	query	int	false	"page number (default 1)"
//	@Param			limit	query	int	false	"page size (default 6)"
//	@Router			/articles [get]
func (a *ArticleHandler) GetArticlesHandler(w http.ResponseWriter, r *http.Request) {
	articles := a.newestFirst(r)

	q := r.URL.Query()
	if !q.Has("page") && !q.Has("limit") {
		response.RespondWithData(w, r, http.StatusOK, "Articles retrieved", articles)
		return
	}

	page, limit := pageParams(r, defaultArticlePageSize)
	items, meta := paginate(articles, page, limit)
	response.RespondWithPage(w, r, "Articles retrieved", items, meta)
}

func (a *ArticleHandler) GetArticleHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	article, err := a.store.Articles.Get(id)
	if err != nil || !visible(r, article) {
		respondWithStoreError(w, r, store.ErrNotFound, "article")
		return
	}
	response.RespondWithData(w, r, http.StatusOK, "Article retrieved", article)
}

func (a *ArticleHandler) GetArticleBySlugHandler(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	article, err := a.store.Articles.Find(func(article services.Article) bool {
		return article.Slug == slug
	})
	if err != nil || !visible(r, article) {
		respondWithStoreError(w, r, store.ErrNotFound, "article")
		return
	}
	response.RespondWithData(w, r, http.StatusOK, "Article retrieved", article)
}

// uniqueSlug appends -2, -3 ... until the slug is not used by another article
func (a *ArticleHandler) uniqueSlug(title string, exceptID uint) (string, error) {
	base, err := helpers.GenerateSlug(title)
	if err != nil {
		return "", err
	}

	taken := func(slug string) bool {
		_, err := a.store.Articles.Find(func(article services.Article) bool {
			return article.Slug == slug && article.ID != exceptID
		})
		return err == nil
	}

	slug := base
	for n := 2; taken(slug); n++ {
		slug = fmt.Sprintf("%s-%d", base, n)
	}
	return slug, nil
}

// CreateArticleHandler godoc
//
//	@Summary	Create article
//	@Tags		articles
//
//	@Param		request	body		services.ArticleInput	true	"article"
//	@Success	201		{object}	services.Article
//	@Failure	400		{object}	response.Envelope	"validation_failed"
//	@Router		/articles [post]
func (a *ArticleHandler) CreateArticleHandler(w http.ResponseWriter, r *http.Request) {
	var req services.ArticleInput
	if !decodeValid(w, r, &req) {
		return
	}

	p, _ := context.PrincipalFrom(r.Context())

	slug, err := a.uniqueSlug(req.Title, 0)
	if err != nil {
		response.RespondWithFieldErrors(w, r, "Validation failed", map[string]string{"title": err.Error()})
		return
	}

	now := time.Now().UTC()
	article, err := a.store.Articles.Insert(func(id uint) (services.Article, error) {
		return services.Article{
			ID:           id,
			Title:        req.Title,
			Slug:         slug,
			Content:      req.Content,
			ThumbnailURL: req.ThumbnailURL,
			IsPublished:  req.IsPublished,
			AuthorID:     p.UserID,
			Author:       services.Author{ID: p.UserID, Username: p.Username, Role: p.Role},
			CategoryID:   req.CategoryID,
			CreatedAt:    now,
			UpdatedAt:    now,
		}, nil
	}, func(existing, row services.Article) bool {
		return existing.Slug == row.Slug
	})
	if err != nil {
		respondWithStoreError(w, r, err, "article")
		return
	}

	audit(a.store, r, "CREATE", "article", article.ID)
	response.RespondWithData(w, r, http.StatusCreated, "Article created", article)
}

// UpdateArticleHandler only changes the fields present in the request. A new title regenerates the slug.
func (a *ArticleHandler) UpdateArticleHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req services.ArticleUpdate
	if !decodeValid(w, r, &req) {
		return
	}

	var slug string
	if req.Title != "" {
		var err error
		if slug, err = a.uniqueSlug(req.Title, id); err != nil {
			response.RespondWithFieldErrors(w, r, "Validation failed", map[string]string{"title": err.Error()})
			return
		}
	}

	article, err := a.store.Articles.Update(id, func(article *services.Article) error {
		if req.Title != "" {
			article.Title = req.Title
			article.Slug = slug
		}
		if req.Content != "" {
			article.Content = req.Content
		}
		if req.ThumbnailURL != "" {
			article.ThumbnailURL = req.ThumbnailURL
		}
		if req.IsPublished != nil {
			article.IsPublished = *req.IsPublished
		}
		article.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		respondWithStoreError(w, r, err, "article")
		return
	}

	audit(a.store, r, "UPDATE", "article", id)
	response.RespondWithData(w, r, http.StatusOK, "Article updated", article)
}

func (a *ArticleHandler) DeleteArticleHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := a.store.Articles.Delete(id); err != nil {
		respondWithStoreError(w, r, err, "article")
		return
	}

	audit(a.store, r, "DELETE", "article", id)
	response.RespondWithData(w, r, http.StatusOK, "Article deleted", nil)
}
