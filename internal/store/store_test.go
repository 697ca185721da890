package store

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/pondok-digital/portal/internal/services"
)

func TestTableCRUD(t *testing.T) {
	tags := NewTable[services.Tag]()
	sameSlug := func(existing, row services.Tag) bool { return existing.Slug == row.Slug }

	first, err := tags.Insert(func(id uint) (services.Tag, error) {
		return services.Tag{ID: id, Name: "News", Slug: "news"}, nil
	}, sameSlug)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if first.ID != 1 {
		t.Errorf("first id = %d, want 1", first.ID)
	}

	_, err = tags.Insert(func(id uint) (services.Tag, error) {
		return services.Tag{ID: id, Name: "News again", Slug: "news"}, nil
	}, sameSlug)
	if !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate slug: got %v, want ErrConflict", err)
	}

	second, _ := tags.Insert(func(id uint) (services.Tag, error) {
		return services.Tag{ID: id, Name: "Events", Slug: "events"}, nil
	}, sameSlug)
	if second.ID != 2 {
		t.Errorf("ids must not be consumed by failed inserts: got %d", second.ID)
	}

	updated, err := tags.Update(1, func(row *services.Tag) error {
		row.Name = "Berita"
		return nil
	})
	if err != nil || updated.Name != "Berita" {
		t.Errorf("update: %v %+v", err, updated)
	}

	if got, _ := tags.Find(func(tag services.Tag) bool { return tag.Slug == "events" }); got.ID != 2 {
		t.Errorf("find returned %+v", got)
	}

	if err := tags.Delete(1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := tags.Get(1); !errors.Is(err, ErrNotFound) {
		t.Errorf("get deleted: got %v", err)
	}
	if err := tags.Delete(1); !errors.Is(err, ErrNotFound) {
		t.Errorf("delete twice: got %v", err)
	}
	if tags.Count() != 1 {
		t.Errorf("count = %d, want 1", tags.Count())
	}
}

func TestTableConcurrentInsert(t *testing.T) {
	table := NewTable[services.Message]()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = table.Insert(func(id uint) (services.Message, error) {
				return services.Message{ID: id}, nil
			}, nil)
		}()
	}
	wg.Wait()

	rows := table.List()
	if len(rows) != 50 {
		t.Fatalf("got %d rows, want 50", len(rows))
	}
	for i, row := range rows {
		if row.ID != uint(i+1) {
			t.Fatalf("row %d has id %d, list must be in id order", i, row.ID)
		}
	}
}

func TestPage(t *testing.T) {
	rows := []int{1, 2, 3, 4, 5, 6, 7}

	tests := []struct {
		name      string
		page      int
		limit     int
		wantItems []int
		wantPages int
	}{
		{"first page", 1, 3, []int{1, 2, 3}, 3},
		{"last partial page", 3, 3, []int{7}, 3},
		{"past the end", 4, 3, []int{}, 3},
		{"page below one", 0, 3, []int{1, 2, 3}, 3},
		{"no limit", 1, 0, rows, 1},
		{"huge page", 1537228672809129303, 6, []int{}, 2},
		{"max int page", math.MaxInt, 1, []int{}, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, pages := Page(rows, tt.page, tt.limit)
			if len(items) != len(tt.wantItems) || pages != tt.wantPages {
				t.Fatalf("Page() = %v, %d; want %v, %d", items, pages, tt.wantItems, tt.wantPages)
			}
			for i := range items {
				if items[i] != tt.wantItems[i] {
					t.Errorf("item %d = %d, want %d", i, items[i], tt.wantItems[i])
				}
			}
		})
	}
}
