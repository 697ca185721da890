package schemas

import (
	"sync"
	"testing"
)

func TestEverySchemaCompiles(t *testing.T) {
	names := Names()
	if len(names) == 0 {
		t.Fatal("no embedded schemas found")
	}
	for _, name := range names {
		if _, err := Get(name); err != nil {
			t.Errorf("schema %s: %v", name, err)
		}
	}
}

func TestValidate(t *testing.T) {
	article := `{"id":1,"title":"Hello","slug":"hello","content":"<p>hi</p>","is_published":true,"created_at":"2025-01-01T00:00:00Z","author":{"id":1,"username":"admin","role":"admin"}}`

	tests := []struct {
		name    string
		schema  string
		json    string
		wantErr bool
	}{
		{"envelope ok", Envelope, `{"status":true,"message":"ok","data":[]}`, false},
		{"envelope without status", Envelope, `{"message":"ok"}`, true},
		{"csrf ok", CSRF, `{"csrf_token":"abc"}`, false},
		{"csrf empty token", CSRF, `{"csrf_token":""}`, true},
		{"login ok", Login, `{"user":{"id":1,"username":"admin","role":"super_admin"},"expires_in":3600}`, false},
		{"login unknown role", Login, `{"user":{"id":1,"username":"admin","role":"root"}}`, true},
		{"article ok", Article, article, false},
		{"article missing slug", Article, `{"id":1,"title":"x","content":"","is_published":true,"created_at":""}`, true},
		{"article list ok", ArticleList, `[` + article + `]`, false},
		{"article list with bad item", ArticleList, `[{"id":"1"}]`, true},
		{"article page ok", ArticlePage, `{"items":[` + article + `],"meta":{"page":1,"limit":6,"total_items":1,"total_pages":1}}`, false},
		{"article page without meta", ArticlePage, `{"items":[]}`, true},
		{"category ok", NamedResource, `{"id":2,"name":"News","slug":"news"}`, false},
		{"video ok", NamedResource, `{"id":2,"title":"Profile","youtube_id":"abcde"}`, false},
		{"nameless resource", NamedResource, `{"id":2}`, true},
		{"messages ok", MessageList, `[{"id":1,"name":"a","email":"a@b.c","subject":"hi","message":"hello there","is_read":false}]`, false},
		{"registrants bad status", RegistrantList, `[{"id":1,"full_name":"a","status":"DONE"}]`, true},
		{"stats ok", DashboardStats, `{"total_santri":3,"total_articles":2,"total_users":1}`, false},
		{"stats negative", DashboardStats, `{"total_santri":-1,"total_articles":2,"total_users":1}`, true},
		{"activity ok", ActivityLogPage, `{"items":[{"id":1,"user_id":1,"action":"LOGIN","entity_type":"user","entity_id":null,"created_at":"x"}],"meta":{"page":1,"limit":20,"total_items":1,"total_pages":1}}`, false},
		{"not json", Envelope, `{`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.schema, []byte(tt.json))
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestUnknownSchema(t *testing.T) {
	if err := Validate("nope", []byte(`{}`)); err == nil {
		t.Error("expected an error for an unknown schema")
	}
}

func TestConcurrentValidation(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := Validate(DashboardStats, []byte(`{"total_santri":1,"total_articles":1,"total_users":1}`)); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
}
