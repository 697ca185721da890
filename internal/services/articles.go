package services

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pondok-digital/portal/internal/apiclient"
	"github.com/pondok-digital/portal/internal/schemas"
)

const defaultArticlePageSize = 6

type ArticleService struct {
	client *apiclient.Client
}

// List returns every article visible to the caller
func (s *ArticleService) List(ctx context.Context) ([]Article, error) {
	var articles []Article
	if err := get(ctx, s.client, "/articles", nil, schemas.ArticleList, &articles); err != nil {
		return nil, err
	}
	return articles, nil
}

// Page returns one page of articles. page < 1 is treated as 1 and limit < 1 as the default page size.
func (s *ArticleService) Page(ctx context.Context, page, limit int) (*Page[Article], error) {
	var result Page[Article]
	if err := get(ctx, s.client, "/articles", pageQuery(page, limit, defaultArticlePageSize), schemas.ArticlePage, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *ArticleService) Get(ctx context.Context, id uint) (*Article, error) {
	var article Article
	if err := get(ctx, s.client, idPath("/articles", id), nil, schemas.Article, &article); err != nil {
		return nil, err
	}
	return &article, nil
}

// BySlug returns nil without an error when no article has the slug
func (s *ArticleService) BySlug(ctx context.Context, slug string) (*Article, error) {
	var article Article
	err := get(ctx, s.client, "/articles/slug/"+url.PathEscape(slug), nil, schemas.Article, &article)
	if apiclient.StatusCode(err) == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &article, nil
}

func (s *ArticleService) Create(ctx context.Context, in ArticleInput) (*Article, error) {
	var article Article
	if err := send(ctx, s.client, http.MethodPost, "/articles", nil, in, schemas.Article, &article); err != nil {
		return nil, err
	}
	return &article, nil
}

func (s *ArticleService) Update(ctx context.Context, id uint, in ArticleUpdate) error {
	return send(ctx, s.client, http.MethodPut, idPath("/articles", id), nil, in, "", nil)
}

func (s *ArticleService) Delete(ctx context.Context, id uint) error {
	return send(ctx, s.client, http.MethodDelete, idPath("/articles", id), nil, nil, "", nil)
}
