package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/spec-kit/item-service/internal/domain"
)

func price(v int64) *int64 { return &v }

func fields(name, email string, specialID int64) domain.ItemFields {
	return domain.ItemFields{
		Name:        name,
		Description: name + " description",
		Price:       price(10),
		Available:   true,
		Email:       email,
		SpecialID:   specialID,
	}
}

func TestMemoryCreateAssignsIDs(t *testing.T) {
	repo := NewMemoryItemRepository()
	ctx := context.Background()

	first, err := repo.Create(ctx, fields("A", "a@x.com", 1))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	second, err := repo.Create(ctx, fields("B", "b@x.com", 2))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if first.ID == second.ID {
		t.Fatalf("ids collide: %d", first.ID)
	}
	if first.CreatedAt.IsZero() {
		t.Error("CreatedAt not assigned")
	}
}

func TestMemoryUniqueViolations(t *testing.T) {
	repo := NewMemoryItemRepository()
	ctx := context.Background()

	if _, err := repo.Create(ctx, fields("A", "dup@x.com", 400)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := repo.Create(ctx, fields("B", "dup@x.com", 401)); !errors.Is(err, ErrUniqueViolation) {
		t.Errorf("duplicate email: %v, want ErrUniqueViolation", err)
	}
	if _, err := repo.Create(ctx, fields("C", "other@x.com", 400)); !errors.Is(err, ErrUniqueViolation) {
		t.Errorf("duplicate special_id: %v, want ErrUniqueViolation", err)
	}
	all, _ := repo.List(ctx, domain.ItemFilter{})
	if len(all) != 1 {
		t.Fatalf("conflicting creates left rows behind: %d items", len(all))
	}
}

func TestMemoryPatchConflictKeepsRow(t *testing.T) {
	repo := NewMemoryItemRepository()
	ctx := context.Background()

	if _, err := repo.Create(ctx, fields("X", "dup@x.com", 400)); err != nil {
		t.Fatal(err)
	}
	second, err := repo.Create(ctx, fields("Y", "uniq@x.com", 500))
	if err != nil {
		t.Fatal(err)
	}

	email := "dup@x.com"
	name := "changed"
	_, err = repo.Patch(ctx, second.ID, domain.ItemPatch{Email: &email, Name: &name})
	if !errors.Is(err, ErrUniqueViolation) {
		t.Fatalf("Patch: %v, want ErrUniqueViolation", err)
	}
	got, err := repo.GetByID(ctx, second.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Y" || got.Email != "uniq@x.com" {
		t.Errorf("row modified by failed patch: %+v", got)
	}
}

func TestMemoryPatchOwnValuesIsNotConflict(t *testing.T) {
	repo := NewMemoryItemRepository()
	ctx := context.Background()
	item, err := repo.Create(ctx, fields("X", "x@x.com", 1))
	if err != nil {
		t.Fatal(err)
	}
	email := item.Email
	if _, err := repo.Patch(ctx, item.ID, domain.ItemPatch{Email: &email}); err != nil {
		t.Fatalf("re-setting own email: %v", err)
	}
}

func TestMemoryNotFound(t *testing.T) {
	repo := NewMemoryItemRepository()
	ctx := context.Background()

	if _, err := repo.GetByID(ctx, 99); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID: %v", err)
	}
	if _, err := repo.Replace(ctx, 99, fields("A", "a@x.com", 1)); !errors.Is(err, ErrNotFound) {
		t.Errorf("Replace: %v", err)
	}
	if _, err := repo.Patch(ctx, 99, domain.ItemPatch{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Patch: %v", err)
	}
	if err := repo.Delete(ctx, 99); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete: %v", err)
	}
}

func TestMemoryDeleteTwice(t *testing.T) {
	repo := NewMemoryItemRepository()
	ctx := context.Background()
	item, err := repo.Create(ctx, fields("E", "e@x.com", 700))
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.Delete(ctx, item.ID); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := repo.Delete(ctx, item.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: %v, want ErrNotFound", err)
	}
}

func TestMemoryListFilters(t *testing.T) {
	repo := NewMemoryItemRepository()
	ctx := context.Background()
	seed := []domain.ItemFields{
		{Name: "F", Description: "foo", Price: price(10), Available: true, Email: "f@x.com", SpecialID: 800},
		{Name: "G", Description: "goo", Price: price(20), Available: false, Email: "g@x.com", SpecialID: 801},
		{Name: "Widget", Description: "widget", Price: price(30), Available: true, Email: "h@x.com", SpecialID: 802},
		{Name: "Legacy", Description: "no price", Price: nil, Available: true, Email: "l@x.com", SpecialID: 803},
	}
	for _, f := range seed {
		if _, err := repo.Create(ctx, f); err != nil {
			t.Fatal(err)
		}
	}
	yes := true

	tests := []struct {
		name   string
		filter domain.ItemFilter
		want   []string
	}{
		{"none", domain.ItemFilter{}, []string{"F", "G", "Widget", "Legacy"}},
		{"available", domain.ItemFilter{Available: &yes}, []string{"F", "Widget", "Legacy"}},
		{"price_lt", domain.ItemFilter{PriceLT: price(25)}, []string{"F", "G"}},
		{"price_gt", domain.ItemFilter{PriceGT: price(15)}, []string{"G", "Widget"}},
		{"search case-insensitive", domain.ItemFilter{Search: "widgEt"}, []string{"Widget"}},
		{"search description", domain.ItemFilter{Search: "NO PRI"}, []string{"Legacy"}},
		{"available and price_lt", domain.ItemFilter{Available: &yes, PriceLT: price(20)}, []string{"F"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.List(ctx, tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			names := make([]string, 0, len(got))
			for _, item := range got {
				names = append(names, item.Name)
			}
			if fmt.Sprint(names) != fmt.Sprint(tt.want) {
				t.Errorf("names = %v, want %v", names, tt.want)
			}
		})
	}
}

func TestMemoryConcurrentCreatesOnSameEmail(t *testing.T) {
	repo := NewMemoryItemRepository()
	ctx := context.Background()

	const writers = 16
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.Create(ctx, fields("racer", "race@x.com", int64(1000+i)))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	var ok, conflicts int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrUniqueViolation):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || conflicts != writers-1 {
		t.Fatalf("ok=%d conflicts=%d", ok, conflicts)
	}
}
