package survey

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	coreconfig "github.com/ranggaxyy/deplot-bot/core/config"
	"github.com/ranggaxyy/deplot-bot/core/database"
)

func newSQLiteRepository(t *testing.T) *SQLRepository {
	t.Helper()
	cfg := database.Config{Driver: coreconfig.DriverSQLite, Path: ":memory:"}
	db, err := database.Connect(context.Background(), cfg)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := database.RunMigrations(db, cfg.Driver); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewSQLRepository(db)
}

func TestSQLRepositoryRoundTrip(t *testing.T) {
	repo := newSQLiteRepository(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	for i, name := range []string{"Ani", "Budi", "Citra"} {
		err := repo.Save(ctx, Submission{
			ID:        uuid.NewString(),
			UserID:    int64(i + 1),
			Name:      name,
			Age:       20 + i,
			Gender:    GenderFemale,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("save %s: %v", name, err)
		}
	}

	n, err := repo.Count(ctx)
	if err != nil || n != 3 {
		t.Fatalf("count = %d, %v", n, err)
	}
	recent, err := repo.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 || recent[0].Name != "Citra" || recent[1].Name != "Budi" {
		t.Fatalf("recent = %+v", recent)
	}
	if recent[0].Gender != GenderFemale || recent[0].Age != 22 || !recent[0].CreatedAt.Equal(base.Add(2*time.Minute)) {
		t.Fatalf("fields not round-tripped: %+v", recent[0])
	}
}

func TestSQLRepositoryRejectsDuplicateID(t *testing.T) {
	repo := newSQLiteRepository(t)
	ctx := context.Background()
	sub := Submission{ID: "dup", UserID: 1, Name: "Ani", Age: 20, Gender: GenderMale, CreatedAt: time.Now()}
	if err := repo.Save(ctx, sub); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := repo.Save(ctx, sub); err == nil {
		t.Fatal("expected primary key violation")
	}
}

func TestEngineWithSQLRepository(t *testing.T) {
	repo := newSQLiteRepository(t)
	eng, err := New(Options{Repository: repo})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	send(eng, 9, "/start")
	send(eng, 9, "Dewi")
	send(eng, 9, "31")
	press(eng, 9, "gender:female")

	items, err := repo.Recent(context.Background(), 5)
	if err != nil || len(items) != 1 {
		t.Fatalf("recent = %+v, %v", items, err)
	}
	if _, err := uuid.Parse(items[0].ID); err != nil {
		t.Fatalf("id %q is not a uuid: %v", items[0].ID, err)
	}
}
