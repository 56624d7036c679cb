package repositories

import (
	"database/sql"
	"testing"

	"github.com/inkpot-dev/inkwell/internal/models"
	"github.com/inkpot-dev/inkwell/internal/shared"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db
}

func snapshot(name string) models.UserProfile {
	return models.UserProfile{
		CanonicalName: name,
		DisplayName:   "Margot",
		Locale:        "en",
		Status:        models.StatusVerified,
		Theme:         "dark",
	}
}

func TestProfileRepository(t *testing.T) {
	t.Run("Create And Get", func(t *testing.T) {
		repo := NewProfileRepository(newTestDB(t))

		profile := models.NewCachedProfile(snapshot("margot"))
		if err := repo.Create(profile); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if profile.ID() == "" {
			t.Fatal("expected a generated id")
		}

		got, err := repo.Get(profile.ID())
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got.Profile.CanonicalName != "margot" || got.Profile.Status != models.StatusVerified {
			t.Errorf("unexpected profile %+v", got.Profile)
		}
	})

	t.Run("Create Rejects Invalid Profile", func(t *testing.T) {
		repo := NewProfileRepository(newTestDB(t))

		profile := models.NewCachedProfile(models.UserProfile{})
		if err := repo.Create(profile); err == nil {
			t.Error("expected validation error for empty canonical name")
		}
	})

	t.Run("GetByCanonicalName", func(t *testing.T) {
		repo := NewProfileRepository(newTestDB(t))

		if err := repo.Create(models.NewCachedProfile(snapshot("margot"))); err != nil {
			t.Fatalf("create failed: %v", err)
		}

		got, err := repo.GetByCanonicalName("margot")
		if err != nil {
			t.Fatalf("lookup failed: %v", err)
		}
		if got.Profile.DisplayName != "Margot" {
			t.Errorf("unexpected profile %+v", got.Profile)
		}

		if _, err := repo.GetByCanonicalName("nobody"); err == nil {
			t.Error("expected error for unknown account")
		}
	})

	t.Run("Update", func(t *testing.T) {
		repo := NewProfileRepository(newTestDB(t))

		profile := models.NewCachedProfile(snapshot("margot"))
		if err := repo.Create(profile); err != nil {
			t.Fatalf("create failed: %v", err)
		}

		profile.Profile.DisplayName = "Margot D."
		if err := repo.Update(profile); err != nil {
			t.Fatalf("update failed: %v", err)
		}

		got, err := repo.Get(profile.ID())
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got.Profile.DisplayName != "Margot D." {
			t.Errorf("expected updated display name, got %s", got.Profile.DisplayName)
		}

		missing := models.NewCachedProfile(snapshot("ghost"))
		missing.SetID("does-not-exist")
		if err := repo.Update(missing); err == nil {
			t.Error("expected error updating missing profile")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewProfileRepository(newTestDB(t))

		profile := models.NewCachedProfile(snapshot("margot"))
		if err := repo.Create(profile); err != nil {
			t.Fatalf("create failed: %v", err)
		}

		if err := repo.Delete(profile.ID()); err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		if _, err := repo.Get(profile.ID()); err == nil {
			t.Error("expected error fetching deleted profile")
		}
		if err := repo.Delete(profile.ID()); err == nil {
			t.Error("expected error deleting twice")
		}
	})

	t.Run("List", func(t *testing.T) {
		repo := NewProfileRepository(newTestDB(t))

		for _, name := range []string{"margot", "arthur"} {
			if err := repo.Create(models.NewCachedProfile(snapshot(name))); err != nil {
				t.Fatalf("create failed: %v", err)
			}
		}

		all, err := repo.List(nil)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(all) != 2 {
			t.Errorf("expected 2 profiles, got %d", len(all))
		}

		filtered, err := repo.List(map[string]any{"canonical_name": "arthur"})
		if err != nil {
			t.Fatalf("filtered list failed: %v", err)
		}
		if len(filtered) != 1 || filtered[0].Profile.CanonicalName != "arthur" {
			t.Errorf("unexpected filtered result %+v", filtered)
		}
	})

	t.Run("Upsert", func(t *testing.T) {
		repo := NewProfileRepository(newTestDB(t))

		first, err := repo.Upsert(snapshot("margot"))
		if err != nil {
			t.Fatalf("insert upsert failed: %v", err)
		}

		updated := snapshot("margot")
		updated.DisplayName = "Margot D."
		second, err := repo.Upsert(updated)
		if err != nil {
			t.Fatalf("update upsert failed: %v", err)
		}

		if first.ID() != second.ID() {
			t.Error("upsert must reuse the existing record")
		}

		all, err := repo.List(nil)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(all) != 1 {
			t.Fatalf("expected a single record, got %d", len(all))
		}
		if all[0].Profile.DisplayName != "Margot D." {
			t.Errorf("expected updated snapshot, got %+v", all[0].Profile)
		}
	})
}
