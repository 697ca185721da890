package handlers

import (
	"fmt"

	"github.com/pondok-digital/portal/internal/helpers"
	"github.com/pondok-digital/portal/internal/services"
	"github.com/pondok-digital/portal/internal/store"
)

func slugFor(field, name string) (string, error) {
	slug, err := helpers.GenerateSlug(name)
	if err != nil {
		return "", &invalidInputError{field: field, msg: err.Error()}
	}
	return slug, nil
}

func NewCategoryCollection(s *store.Store) *Collection[services.Category, services.CategoryInput] {
	return &Collection[services.Category, services.CategoryInput]{
		store:  s,
		table:  s.Categories,
		entity: "category",
		build: func(id uint, in services.CategoryInput) (services.Category, error) {
			slug, err := slugFor("name", in.Name)
			if err != nil {
				return services.Category{}, err
			}
			return services.Category{ID: id, Name: in.Name, Slug: slug, Description: in.Description}, nil
		},
		apply: func(row *services.Category, in services.CategoryInput) error {
			slug, err := slugFor("name", in.Name)
			if err != nil {
				return err
			}
			row.Name, row.Slug, row.Description = in.Name, slug, in.Description
			return nil
		},
		conflicts: func(existing, row services.Category) bool {
			return existing.Slug == row.Slug
		},
	}
}

func NewTagCollection(s *store.Store) *Collection[services.Tag, services.TagInput] {
	return &Collection[services.Tag, services.TagInput]{
		store:  s,
		table:  s.Tags,
		entity: "tag",
		build: func(id uint, in services.TagInput) (services.Tag, error) {
			slug, err := slugFor("name", in.Name)
			if err != nil {
				return services.Tag{}, err
			}
			return services.Tag{ID: id, Name: in.Name, Slug: slug}, nil
		},
		apply: func(row *services.Tag, in services.TagInput) error {
			slug, err := slugFor("name", in.Name)
			if err != nil {
				return err
			}
			row.Name, row.Slug = in.Name, slug
			return nil
		},
		conflicts: func(existing, row services.Tag) bool {
			return existing.Slug == row.Slug
		},
	}
}

// youtubeThumbnail is used when a video is saved without a thumbnail
func youtubeThumbnail(youtubeID string) string {
	return fmt.Sprintf("https://img.youtube.com/vi/%s/hqdefault.jpg", youtubeID)
}

func NewVideoCollection(s *store.Store) *Collection[services.Video, services.VideoInput] {
	apply := func(row *services.Video, in services.VideoInput) error {
		row.Title, row.YoutubeID, row.Thumbnail = in.Title, in.YoutubeID, in.Thumbnail
		if row.Thumbnail == "" {
			row.Thumbnail = youtubeThumbnail(in.YoutubeID)
		}
		return nil
	}
	return &Collection[services.Video, services.VideoInput]{
		store:  s,
		table:  s.Videos,
		entity: "video",
		build: func(id uint, in services.VideoInput) (services.Video, error) {
			v := services.Video{ID: id}
			if err := apply(&v, in); err != nil {
				return services.Video{}, err
			}
			return v, nil
		},
		apply: apply,
	}
}

func NewAchievementCollection(s *store.Store) *Collection[services.Achievement, services.AchievementInput] {
	apply := func(row *services.Achievement, in services.AchievementInput) error {
		row.Title, row.Subtitle, row.Description = in.Title, in.Subtitle, in.Description
		row.Icon, row.Color = in.Icon, in.Color
		return nil
	}
	return &Collection[services.Achievement, services.AchievementInput]{
		store:  s,
		table:  s.Achievements,
		entity: "achievement",
		build: func(id uint, in services.AchievementInput) (services.Achievement, error) {
			a := services.Achievement{ID: id}
			if err := apply(&a, in); err != nil {
				return services.Achievement{}, err
			}
			return a, nil
		},
		apply: apply,
	}
}

func NewGalleryCollection(s *store.Store) *Collection[services.Gallery, services.GalleryInput] {
	apply := func(row *services.Gallery, in services.GalleryInput) error {
		row.Title, row.Description, row.EventDate, row.CoverURL = in.Title, in.Description, in.EventDate, in.CoverURL
		return nil
	}
	return &Collection[services.Gallery, services.GalleryInput]{
		store:  s,
		table:  s.Galleries,
		entity: "gallery",
		build: func(id uint, in services.GalleryInput) (services.Gallery, error) {
			g := services.Gallery{ID: id, Photos: []services.Photo{}}
			if err := apply(&g, in); err != nil {
				return services.Gallery{}, err
			}
			return g, nil
		},
		apply: apply,
	}
}
