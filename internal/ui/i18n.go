package ui

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

type translation struct {
	id string
	en string
}

var translations = map[string]translation{
	"site.name":          {"Pondok Pesantren Digital", "Pondok Pesantren Digital"},
	"nav.home":           {"Beranda", "Home"},
	"nav.articles":       {"Artikel", "Articles"},
	"nav.login":          {"Masuk", "Login"},
	"nav.dashboard":      {"Dasbor", "Dashboard"},
	"home.title":         {"Selamat Datang", "Welcome"},
	"home.latest":        {"Artikel Terbaru", "Latest Articles"},
	"home.all":           {"Lihat semua artikel", "See all articles"},
	"articles.title":     {"Berita & Artikel", "News & Articles"},
	"articles.empty":     {"Belum ada artikel.", "No articles yet."},
	"articles.read":      {"Baca selengkapnya", "Read more"},
	"articles.prev":      {"Sebelumnya", "Previous"},
	"articles.next":      {"Berikutnya", "Next"},
	"articles.by":        {"Oleh", "By"},
	"login.title":        {"Masuk Admin", "Admin Login"},
	"login.username":     {"Nama pengguna", "Username"},
	"login.password":     {"Kata sandi", "Password"},
	"login.submit":       {"Masuk", "Sign in"},
	"dashboard.greeting": {"Assalamu'alaikum", "Welcome back"},
	"dashboard.logout":   {"Keluar", "Log out"},
	"error.title":        {"Terjadi Kesalahan", "Something went wrong"},
	"error.not_found":    {"Halaman tidak ditemukan.", "Page not found."},
	"error.backend_down": {"Layanan sedang tidak tersedia. Silakan coba lagi nanti.", "The service is unavailable. Please try again later."},
}

var printerCatalog = newCatalog()

func newCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.Indonesian))
	for key, t := range translations {
		_ = b.SetString(language.Indonesian, key, t.id)
		_ = b.SetString(language.English, key, t.en)
	}
	return b
}

// printerFor returns the message printer for a portal locale
func printerFor(locale string) *message.Printer {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Indonesian
	}
	return message.NewPrinter(tag, message.Catalog(printerCatalog))
}
