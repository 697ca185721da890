package services

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	portal "github.com/pondok-digital/portal"
	"github.com/pondok-digital/portal/internal/uistate"
)

// User is the account returned by the auth endpoints
type User = uistate.User

type PaginationMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

type Page[T any] struct {
	Items []T            `json:"items"`
	Meta  PaginationMeta `json:"meta"`
}

type Author struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type Article struct {
	ID           uint      `json:"id"`
	Title        string    `json:"title"`
	Slug         string    `json:"slug"`
	Content      string    `json:"content"`
	ThumbnailURL string    `json:"thumbnail_url"`
	IsPublished  bool      `json:"is_published"`
	AuthorID     uint      `json:"author_id"`
	Author       Author    `json:"author"`
	CategoryID   *uint     `json:"category_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

const PlaceholderImage = "/images/placeholder.jpg"

// Excerpt is the plain text summary shown on list pages
func (a Article) Excerpt() string {
	return Excerpt(a.Content, portal.ExcerptLength)
}

// Image returns the thumbnail or the placeholder when the article has none
func (a Article) Image() string {
	if a.ThumbnailURL == "" {
		return PlaceholderImage
	}
	return a.ThumbnailURL
}

// PublishedAt is the creation time, the backend does not track publication separately
func (a Article) PublishedAt() time.Time {
	return a.CreatedAt
}

var htmlTag = regexp.MustCompile(`<[^>]*>`)

// Excerpt strips html tags from content and truncates it to max runes, adding "..." when truncated
func Excerpt(content string, max int) string {
	text := strings.TrimSpace(htmlTag.ReplaceAllString(content, ""))
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	return string(runes[:max]) + "..."
}

type Category struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

type Tag struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Video struct {
	ID        uint   `json:"id"`
	Title     string `json:"title"`
	YoutubeID string `json:"youtube_id"`
	Thumbnail string `json:"thumbnail"`
}

type Achievement struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`
}

type Photo struct {
	ID        uint   `json:"id"`
	GalleryID uint   `json:"gallery_id"`
	PhotoURL  string `json:"photo_url"`
	Caption   string `json:"caption"`
}

type Gallery struct {
	ID          uint    `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	CoverURL    string  `json:"cover_url"`
	EventDate   string  `json:"event_date,omitempty"`
	Photos      []Photo `json:"photos"`
}

type Message struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// Registrant is a santri registered through the admission (PSB) form
type Registrant struct {
	ID          uint      `json:"id"`
	FullName    string    `json:"full_name"`
	NIK         string    `json:"nik"`
	BirthPlace  string    `json:"birth_place"`
	BirthDate   string    `json:"birth_date"`
	Gender      string    `json:"gender"`
	Address     string    `json:"address"`
	ParentName  string    `json:"parent_name"`
	ParentPhone string    `json:"parent_phone"`
	PhotoURL    string    `json:"photo_url"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

type ActivityLog struct {
	ID         uint      `json:"id"`
	UserID     uint      `json:"user_id"`
	User       *User     `json:"user,omitempty"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   *uint     `json:"entity_id"`
	IPAddress  string    `json:"ip_address"`
	UserAgent  string    `json:"user_agent"`
	CreatedAt  time.Time `json:"created_at"`
}

type DashboardStats struct {
	TotalSantri   int64 `json:"total_santri"`
	TotalArticles int64 `json:"total_articles"`
	TotalUsers    int64 `json:"total_users"`
}

// inputs, validated before any network call with the rules the backend applies

type LoginInput struct {
	Username string `json:"username" validate:"required,min=2,max=50"`
	Password string `json:"password" validate:"required,min=6"`
}

type AdminInput struct {
	Username string `json:"username" validate:"required,min=2,max=50"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name,omitempty" validate:"omitempty,max=100"`
}

type ArticleInput struct {
	Title        string `json:"title" validate:"required,notblank,min=3,max=200"`
	Content      string `json:"content" validate:"required,min=10"`
	ThumbnailURL string `json:"thumbnail_url,omitempty" validate:"omitempty,url"`
	IsPublished  bool   `json:"is_published"`
	CategoryID   *uint  `json:"category_id,omitempty"`
	TagIDs       []uint `json:"tag_ids,omitempty"`
}

// ArticleUpdate only sends the fields that are set
type ArticleUpdate struct {
	Title        string `json:"title,omitempty" validate:"omitempty,min=3,max=200"`
	Content      string `json:"content,omitempty" validate:"omitempty,min=10"`
	ThumbnailURL string `json:"thumbnail_url,omitempty" validate:"omitempty,url"`
	IsPublished  *bool  `json:"is_published,omitempty"`
}

type CategoryInput struct {
	Name        string `json:"name" validate:"required,notblank,min=2,max=100"`
	Description string `json:"description,omitempty" validate:"omitempty,max=500"`
}

type TagInput struct {
	Name string `json:"name" validate:"required,notblank,min=2,max=50"`
}

type VideoInput struct {
	Title     string `json:"title" validate:"required,min=3,max=100"`
	YoutubeID string `json:"youtube_id" validate:"required,min=5,max=20"`
	Thumbnail string `json:"thumbnail,omitempty" validate:"omitempty,url"`
}

type AchievementInput struct {
	Title       string `json:"title" validate:"required,min=3,max=100"`
	Subtitle    string `json:"subtitle" validate:"required,min=3,max=100"`
	Description string `json:"description" validate:"required,min=10,max=500"`
	Icon        string `json:"icon" validate:"required,oneof=trophy award mic crown music book medal zap star"`
	Color       string `json:"color" validate:"required,oneof=yellow blue slate amber purple emerald red orange"`
}

type GalleryInput struct {
	Title       string `json:"title" validate:"required,min=3,max=100"`
	Description string `json:"description" validate:"required,min=10,max=500"`
	EventDate   string `json:"event_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	CoverURL    string `json:"cover_url,omitempty" validate:"omitempty,url"`
}

type MessageInput struct {
	Name    string `json:"name" validate:"required,notblank,min=2,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"required,min=3,max=200"`
	Message string `json:"message" validate:"required,min=10,max=2000"`
}

type RegistrationInput struct {
	FullName   string `json:"full_name" validate:"required,min=3,max=100"`
	NIK        string `json:"nik" validate:"required,len=16,numeric"`
	BirthPlace string `json:"birth_place" validate:"required,min=2,max=50"`
	BirthDate  string `json:"birth_date" validate:"required,datetime=2006-01-02"`
	Gender     string `json:"gender" validate:"required,oneof=L P"`
	Address    string `json:"address" validate:"required,min=10,max=500"`

	FatherName  string `json:"father_name" validate:"required,min=3,max=100"`
	FatherJob   string `json:"father_job" validate:"required,min=2,max=100"`
	MotherName  string `json:"mother_name" validate:"required,min=3,max=100"`
	MotherJob   string `json:"mother_job" validate:"required,min=2,max=100"`
	ParentPhone string `json:"parent_phone" validate:"required,min=10,max=15"`

	SchoolOrigin   string `json:"school_origin" validate:"required,min=3,max=100"`
	SchoolAddress  string `json:"school_address" validate:"required,min=10,max=500"`
	GraduationYear string `json:"graduation_year" validate:"required,len=4,numeric"`

	PhotoURL string `json:"photo_url,omitempty" validate:"omitempty,url"`
}

type StatusInput struct {
	Status string `json:"status" validate:"required,oneof=PENDING VERIFIED ACCEPTED REJECTED"`
}
