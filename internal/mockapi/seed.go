package mockapi

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/pondok-digital/portal/internal/handlers"
	"github.com/pondok-digital/portal/internal/helpers"
	"github.com/pondok-digital/portal/internal/services"
)

type seedArticle struct {
	title   string
	content string
}

var seedArticles = []seedArticle{
	{
		title:   "Penerimaan Santri Baru Tahun Ajaran 2025/2026",
		content: "<p>Pendaftaran santri baru telah dibuka. Calon santri dapat mendaftar secara online melalui formulir PSB.</p>",
	},
	{
		title:   "Juara Umum Musabaqah Tilawatil Quran Tingkat Kabupaten",
		content: "<p>Alhamdulillah, santri kami meraih juara umum pada MTQ tingkat kabupaten tahun ini.</p>",
	},
	{
		title:   "Kegiatan Ramadhan di Pondok",
		content: "<p>Selama bulan Ramadhan santri mengikuti program tahfidz intensif, kajian kitab dan buka puasa bersama.</p>",
	},
}

var seedCategories = []string{"Berita", "Pengumuman", "Prestasi"}

// seed creates the super admin and, when enabled, some public content
func (s *Server) seed() error {
	hash, err := s.authService.HashPassword(s.config.AdminPassword)
	if err != nil {
		return fmt.Errorf("could not hash admin password: %w", err)
	}
	admin, err := handlers.CreateUser(s.store, s.config.AdminUsername, hash, "super_admin")
	if err != nil {
		return fmt.Errorf("could not create admin: %w", err)
	}
	s.logger.Info("seeded super admin", slog.String("username", admin.Username))

	if !s.config.SeedContent {
		return nil
	}

	for _, name := range seedCategories {
		slug, err := helpers.GenerateSlug(name)
		if err != nil {
			return err
		}
		if _, err := s.store.Categories.Insert(func(id uint) (services.Category, error) {
			return services.Category{ID: id, Name: name, Slug: slug}, nil
		}, nil); err != nil {
			return err
		}
	}

	author := services.Author{ID: admin.ID, Username: admin.Username, Role: admin.Role}
	created := time.Now().UTC().Add(-time.Duration(len(seedArticles)) * 24 * time.Hour)
	for i, a := range seedArticles {
		slug, err := helpers.GenerateSlug(a.title)
		if err != nil {
			return err
		}
		at := created.Add(time.Duration(i) * 24 * time.Hour)
		if _, err := s.store.Articles.Insert(func(id uint) (services.Article, error) {
			return services.Article{
				ID:          id,
				Title:       a.title,
				Slug:        slug,
				Content:     a.content,
				IsPublished: true,
				AuthorID:    admin.ID,
				Author:      author,
				CreatedAt:   at,
				UpdatedAt:   at,
			}, nil
		}, nil); err != nil {
			return err
		}
	}

	if _, err := s.store.Achievements.Insert(func(id uint) (services.Achievement, error) {
		return services.Achievement{
			ID:          id,
			Title:       "Juara 1 MTQ",
			Subtitle:    "Tingkat Kabupaten",
			Description: "Juara pertama Musabaqah Tilawatil Quran cabang tilawah remaja.",
			Icon:        "trophy",
			Color:       "yellow",
		}, nil
	}, nil); err != nil {
		return err
	}

	s.logger.Info("seeded content",
		slog.Int("articles", s.store.Articles.Count()),
		slog.Int("categories", s.store.Categories.Count()),
	)
	return nil
}
