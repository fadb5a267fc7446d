package eventconfig

import (
	"testing"

	"github.com/stagetalk/backend/internal/models"
)

func TestStoreInitialValue(t *testing.T) {
	store := NewStore(models.EventConfig{Name: "Town Hall", URL: "http://q.local", Datetime: "2026-09-01"})
	got := store.Get()
	if got.Name != "Town Hall" || got.URL != "http://q.local" || got.Datetime != "2026-09-01" {
		t.Fatalf("unexpected initial value: %+v", got)
	}
}

func TestUpdateOverwritesWholesale(t *testing.T) {
	store := NewStore(models.EventConfig{Name: "Town Hall", URL: "http://q.local"})

	updated := store.Update(models.EventConfig{Name: "All Hands"})
	if updated.Name != "All Hands" {
		t.Fatalf("update should return the new value, got %+v", updated)
	}
	if updated.URL != "" {
		t.Fatalf("update is wholesale: old URL must not survive, got %q", updated.URL)
	}
	if got := store.Get(); got != updated {
		t.Fatalf("get should reflect the update, got %+v", got)
	}
}
