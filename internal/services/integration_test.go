package services_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	portal "github.com/pondok-digital/portal"
	"github.com/pondok-digital/portal/internal/apiclient"
	"github.com/pondok-digital/portal/internal/config"
	"github.com/pondok-digital/portal/internal/events"
	"github.com/pondok-digital/portal/internal/logger"
	"github.com/pondok-digital/portal/internal/mockapi"
	"github.com/pondok-digital/portal/internal/services"
	"github.com/pondok-digital/portal/internal/validation"
)

type backend struct {
	server *mockapi.Server
	url    string
}

func startBackend(t *testing.T) *backend {
	t.Helper()
	cfg := &config.MockAPIConfig{
		Environment:       "test",
		Host:              "127.0.0.1",
		Port:              8080,
		SecretKey:         strings.Repeat("k", 32),
		AdminUsername:     "admin",
		AdminPassword:     "admin123",
		AllowedOrigins:    []string{"http://localhost:3000"},
		SeedContent:       true,
		MaxAPIRequestSize: portal.MaxAPIRequestSize,
	}
	s, err := mockapi.NewServer(cfg, logger.Discard())
	require.NoError(t, err)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return &backend{server: s, url: ts.URL}
}

// recorder collects the events published by a browser mode client
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) handle(e events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) sessionExpired() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if _, ok := e.(events.SessionExpired); ok {
			n++
		}
	}
	return n
}

func browserServices(t *testing.T, b *backend) (*services.Services, *recorder) {
	t.Helper()
	bus := events.NewBus()
	rec := &recorder{}
	t.Cleanup(bus.Subscribe(rec.handle))

	client, err := apiclient.New(apiclient.Options{Origin: b.url, Events: bus})
	require.NoError(t, err)
	return services.New(client), rec
}

func login(t *testing.T, svc *services.Services) {
	t.Helper()
	user, err := svc.Auth.Login(context.Background(), services.LoginInput{Username: "admin", Password: "admin123"})
	require.NoError(t, err)
	require.Equal(t, "super_admin", user.Role)
}

func TestLogin(t *testing.T) {
	b := startBackend(t)
	svc, rec := browserServices(t, b)
	ctx := context.Background()

	_, err := svc.Auth.Login(ctx, services.LoginInput{Username: "admin", Password: "wrong-password"})
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, apiclient.StatusCode(err))
	assert.Zero(t, rec.sessionExpired(), "a failed login is not an expired session")

	user, err := svc.Auth.Login(ctx, services.LoginInput{Username: "ADMIN", Password: "admin123"})
	require.NoError(t, err)
	assert.Equal(t, "admin", user.Username)

	admins, err := svc.Auth.ListAdmins(ctx)
	require.NoError(t, err)
	assert.Len(t, admins, 1)

	require.NoError(t, svc.Auth.Logout(ctx))
	_, err = svc.Dashboard.Stats(ctx)
	assert.Equal(t, http.StatusUnauthorized, apiclient.StatusCode(err))
}

func TestValidationHappensBeforeTheNetwork(t *testing.T) {
	b := startBackend(t)
	svc, _ := browserServices(t, b)

	err := svc.Contact.Submit(context.Background(), services.MessageInput{Name: "A", Email: "not-an-email"})
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "email")
	assert.Zero(t, b.server.Store().Messages.Count())
}

func TestSessionExpiredIsPublishedOncePerEpoch(t *testing.T) {
	b := startBackend(t)
	svc, rec := browserServices(t, b)
	ctx := context.Background()

	for range 3 {
		_, err := svc.Contact.ListMessages(ctx)
		assert.Equal(t, http.StatusUnauthorized, apiclient.StatusCode(err))
	}
	assert.Equal(t, 1, rec.sessionExpired())

	login(t, svc)
	_, err := svc.Contact.ListMessages(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.Auth.Logout(ctx))
	_, err = svc.Contact.ListMessages(ctx)
	require.Error(t, err)
	assert.Equal(t, 2, rec.sessionExpired())
}

func TestArticles(t *testing.T) {
	b := startBackend(t)
	svc, _ := browserServices(t, b)
	ctx := context.Background()
	login(t, svc)

	created, err := svc.Articles.Create(ctx, services.ArticleInput{
		Title:   "Wisuda Tahfidz Angkatan Ketujuh",
		Content: "<p>Sebanyak empat puluh santri diwisuda setelah menyelesaikan hafalan tiga puluh juz.</p>",
	})
	require.NoError(t, err)
	assert.Equal(t, "wisuda-tahfidz-angkatan-ketujuh", created.Slug)
	assert.False(t, created.IsPublished)

	t.Run("drafts are only visible when signed in", func(t *testing.T) {
		public, err := apiclient.New(apiclient.Options{BackendURL: b.url + "/api"})
		require.NoError(t, err)
		anonymous := services.New(public)

		list, err := anonymous.Articles.List(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 3)

		found, err := anonymous.Articles.BySlug(ctx, created.Slug)
		require.NoError(t, err)
		assert.Nil(t, found)

		list, err = svc.Articles.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 4)
		assert.Equal(t, created.ID, list[0].ID, "newest first")
	})

	t.Run("same title gets a suffixed slug", func(t *testing.T) {
		again, err := svc.Articles.Create(ctx, services.ArticleInput{
			Title:       "Wisuda Tahfidz Angkatan Ketujuh",
			Content:     "<p>Liputan kedua acara wisuda tahfidz.</p>",
			IsPublished: true,
		})
		require.NoError(t, err)
		assert.Equal(t, "wisuda-tahfidz-angkatan-ketujuh-2", again.Slug)
		require.NoError(t, svc.Articles.Delete(ctx, again.ID))
	})

	t.Run("update and fetch by slug", func(t *testing.T) {
		published := true
		require.NoError(t, svc.Articles.Update(ctx, created.ID, services.ArticleUpdate{
			Title:       "Wisuda Tahfidz 2025",
			IsPublished: &published,
		}))

		article, err := svc.Articles.BySlug(ctx, "wisuda-tahfidz-2025")
		require.NoError(t, err)
		require.NotNil(t, article)
		assert.True(t, article.IsPublished)
		assert.Equal(t, "admin", article.Author.Username)
	})

	t.Run("pages", func(t *testing.T) {
		page, err := svc.Articles.Page(ctx, 1, 3)
		require.NoError(t, err)
		assert.Len(t, page.Items, 3)
		assert.Equal(t, int64(4), page.Meta.TotalItems)
		assert.Equal(t, 2, page.Meta.TotalPages)
	})

	t.Run("missing article", func(t *testing.T) {
		found, err := svc.Articles.BySlug(ctx, "tidak-ada")
		require.NoError(t, err)
		assert.Nil(t, found)

		_, err = svc.Articles.Get(ctx, 999)
		assert.Equal(t, http.StatusNotFound, apiclient.StatusCode(err))
	})

	require.NoError(t, svc.Articles.Delete(ctx, created.ID))
	_, err = svc.Articles.Get(ctx, created.ID)
	assert.Equal(t, http.StatusNotFound, apiclient.StatusCode(err))
}

func TestServerModeReadsPublicContent(t *testing.T) {
	b := startBackend(t)
	client, err := apiclient.New(apiclient.Options{BackendURL: b.url + "/api"})
	require.NoError(t, err)
	svc := services.New(client)
	ctx := context.Background()

	categories, err := svc.Categories.List(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 3)

	achievements, err := svc.Achievements.List(ctx)
	require.NoError(t, err)
	require.Len(t, achievements, 1)
	assert.Equal(t, "trophy", achievements[0].Icon)

	videos, err := svc.Videos.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, videos)

	_, err = svc.Contact.ListMessages(ctx)
	assert.Equal(t, http.StatusUnauthorized, apiclient.StatusCode(err))
}

func validRegistration() services.RegistrationInput {
	return services.RegistrationInput{
		FullName:       "Muhammad Fauzan",
		NIK:            "3201010101100001",
		BirthPlace:     "Bogor",
		BirthDate:      "2012-03-14",
		Gender:         "L",
		Address:        "Jl. Pesantren No. 12, Bogor",
		FatherName:     "Abdul Rahman",
		FatherJob:      "Petani",
		MotherName:     "Siti Aminah",
		MotherJob:      "Guru",
		ParentPhone:    "081234567890",
		SchoolOrigin:   "SDN 1 Bogor",
		SchoolAddress:  "Jl. Merdeka No. 1, Bogor",
		GraduationYear: "2024",
	}
}

func TestAdmission(t *testing.T) {
	b := startBackend(t)
	svc, _ := browserServices(t, b)
	ctx := context.Background()

	require.NoError(t, svc.Admission.Register(ctx, validRegistration()))

	err := svc.Admission.Register(ctx, validRegistration())
	assert.Equal(t, http.StatusConflict, apiclient.StatusCode(err))

	invalid := validRegistration()
	invalid.NIK = "12345"
	var verr *validation.Error
	assert.ErrorAs(t, svc.Admission.Register(ctx, invalid), &verr)

	login(t, svc)
	pending, err := svc.Admission.ListRegistrants(ctx, "PENDING")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Abdul Rahman", pending[0].ParentName)

	require.NoError(t, svc.Admission.UpdateStatus(ctx, pending[0].ID, "ACCEPTED"))

	pending, err = svc.Admission.ListRegistrants(ctx, "PENDING")
	require.NoError(t, err)
	assert.Empty(t, pending)

	accepted, err := svc.Admission.ListRegistrants(ctx, "ACCEPTED")
	require.NoError(t, err)
	assert.Len(t, accepted, 1)

	stats, err := svc.Dashboard.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalSantri)
	assert.Equal(t, int64(3), stats.TotalArticles)
}

func TestContactInbox(t *testing.T) {
	b := startBackend(t)
	svc, _ := browserServices(t, b)
	ctx := context.Background()

	require.NoError(t, svc.Contact.Submit(ctx, services.MessageInput{
		Name:    "Ibu Khadijah",
		Email:   "khadijah@example.com",
		Subject: "Jadwal kunjungan",
		Message: "Kapan jadwal kunjungan wali santri bulan ini?",
	}))

	login(t, svc)
	messages, err := svc.Contact.ListMessages(ctx)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.False(t, messages[0].IsRead)

	require.NoError(t, svc.Contact.MarkRead(ctx, messages[0].ID))
	messages, err = svc.Contact.ListMessages(ctx)
	require.NoError(t, err)
	assert.True(t, messages[0].IsRead)

	require.NoError(t, svc.Contact.DeleteMessage(ctx, messages[0].ID))
	messages, err = svc.Contact.ListMessages(ctx)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestCollections(t *testing.T) {
	b := startBackend(t)
	svc, _ := browserServices(t, b)
	ctx := context.Background()
	login(t, svc)

	video, err := svc.Videos.Create(ctx, services.VideoInput{Title: "Profil Pondok", YoutubeID: "dQw4w9WgXcQ"})
	require.NoError(t, err)
	assert.Equal(t, "https://img.youtube.com/vi/dQw4w9WgXcQ/hqdefault.jpg", video.Thumbnail)

	tag, err := svc.Tags.Create(ctx, services.TagInput{Name: "Tahfidz"})
	require.NoError(t, err)
	assert.Equal(t, "tahfidz", tag.Slug)

	_, err = svc.Tags.Create(ctx, services.TagInput{Name: "Tahfidz"})
	assert.Equal(t, http.StatusConflict, apiclient.StatusCode(err))

	require.NoError(t, svc.Tags.Update(ctx, tag.ID, services.TagInput{Name: "Hafalan"}))
	updated, err := svc.Tags.Get(ctx, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, "hafalan", updated.Slug)

	gallery, err := svc.Galleries.Create(ctx, services.GalleryInput{
		Title:       "Pekan Olahraga Santri",
		Description: "Dokumentasi pekan olahraga antar asrama.",
		EventDate:   "2025-08-17",
	})
	require.NoError(t, err)
	assert.NotNil(t, gallery.Photos)

	require.NoError(t, svc.Galleries.Delete(ctx, gallery.ID))
	err = svc.Galleries.Delete(ctx, gallery.ID)
	assert.Equal(t, http.StatusNotFound, apiclient.StatusCode(err))
}

func TestActivityLogs(t *testing.T) {
	b := startBackend(t)
	svc, _ := browserServices(t, b)
	ctx := context.Background()
	login(t, svc)

	_, err := svc.Categories.Create(ctx, services.CategoryInput{Name: "Kajian"})
	require.NoError(t, err)

	page, err := svc.ActivityLogs.List(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, 20, page.Meta.Limit)
	assert.Equal(t, "CREATE", page.Items[0].Action, "newest first")
	assert.Equal(t, "LOGIN", page.Items[1].Action)
	require.NotNil(t, page.Items[0].User)
	assert.Equal(t, "admin", page.Items[0].User.Username)

	t.Run("admins cannot read them", func(t *testing.T) {
		require.NoError(t, svc.Auth.CreateAdmin(ctx, services.AdminInput{Username: "ustadz", Password: "rahasia-123"}))

		other, _ := browserServices(t, b)
		_, err := other.Auth.Login(ctx, services.LoginInput{Username: "ustadz", Password: "rahasia-123"})
		require.NoError(t, err)

		_, err = other.ActivityLogs.List(ctx, 1, 20)
		assert.Equal(t, http.StatusForbidden, apiclient.StatusCode(err))
	})
}

func TestContractErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/articles":
			_, _ = w.Write([]byte(`{"status":true,"message":"ok","data":[{"id":"one"}]}`))
		case "/api/dashboard/stats":
			_, _ = w.Write([]byte(`{"status":true,"message":"ok"}`))
		default:
			_, _ = w.Write([]byte(`[]`))
		}
	}))
	t.Cleanup(srv.Close)

	client, err := apiclient.New(apiclient.Options{BackendURL: srv.URL + "/api"})
	require.NoError(t, err)
	svc := services.New(client)
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
	}{
		{"wrong item type", func() error { _, err := svc.Articles.List(ctx); return err }},
		{"missing data", func() error { _, err := svc.Dashboard.Stats(ctx); return err }},
		{"not an envelope", func() error { _, err := svc.Tags.List(ctx); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			var contractErr *services.ContractError
			require.True(t, errors.As(err, &contractErr), "got %v", err)
			assert.Equal(t, "An error occurred. Please try again later.", contractErr.UserError())
		})
	}
}
