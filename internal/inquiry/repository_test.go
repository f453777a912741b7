package inquiry

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/evcraddock/luxury-estates/internal/db"
)

func testRepo(t *testing.T) *Repository {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})
	return NewRepository(d)
}

func validForm(msg string) Form {
	return Form{Name: "Dana Reyes", Email: "dana@example.com", Message: msg}
}

func TestAddAndListByPropertyID(t *testing.T) {
	repo := testRepo(t)

	inq, err := repo.Add("p1", Form{Name: "  Dana Reyes ", Email: "dana@example.com", Phone: "555-0100", Message: "Is the villa still available?"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if inq.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if inq.Name != "Dana Reyes" || inq.PropertyID != "p1" || inq.Phone != "555-0100" {
		t.Errorf("inquiry = %+v", inq)
	}
	if inq.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}

	list, err := repo.ListByPropertyID("p1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Message != "Is the villa still available?" {
		t.Errorf("list = %+v", list)
	}
}

func TestAddValidation(t *testing.T) {
	tests := []struct {
		name       string
		propertyID string
		form       Form
	}{
		{"no property", "", validForm("hi")},
		{"no name", "p1", Form{Email: "a@example.com", Message: "hi"}},
		{"no email", "p1", Form{Name: "A", Message: "hi"}},
		{"bad email", "p1", Form{Name: "A", Email: "not-an-email", Message: "hi"}},
		{"blank message", "p1", Form{Name: "A", Email: "a@example.com", Message: "   "}},
	}

	repo := testRepo(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.Add(tt.propertyID, tt.form)
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("err = %v, want ErrInvalid", err)
			}
		})
	}

	all, err := repo.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("got %d stored inquiries after failures", len(all))
	}
}

func TestListNewestFirst(t *testing.T) {
	repo := testRepo(t)

	for _, m := range []string{"first", "second", "third"} {
		if _, err := repo.Add("p1", validForm(m)); err != nil {
			t.Fatalf("add %q: %v", m, err)
		}
	}
	if _, err := repo.Add("p2", validForm("other")); err != nil {
		t.Fatalf("add: %v", err)
	}

	list, err := repo.ListByPropertyID("p1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("got %d, want 3", len(list))
	}
	if list[0].Message != "third" || list[2].Message != "first" {
		t.Errorf("order = %s, %s, %s", list[0].Message, list[1].Message, list[2].Message)
	}

	all, err := repo.List()
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 4 || all[0].Message != "other" {
		t.Errorf("all = %d, first %q", len(all), all[0].Message)
	}
}

func TestDelete(t *testing.T) {
	repo := testRepo(t)

	inq, err := repo.Add("p1", validForm("to delete"))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := repo.Delete(inq.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(inq.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("delete missing err = %v, want ErrNotFound", err)
	}
}

func TestDeleteByPropertyID(t *testing.T) {
	repo := testRepo(t)

	for _, pid := range []string{"p1", "p1", "p2"} {
		if _, err := repo.Add(pid, validForm("hello")); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	n, err := repo.DeleteByPropertyID("p1")
	if err != nil {
		t.Fatalf("delete by property: %v", err)
	}
	if n != 2 {
		t.Errorf("removed %d, want 2", n)
	}

	rest, err := repo.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rest) != 1 || rest[0].PropertyID != "p2" {
		t.Errorf("remaining = %+v", rest)
	}
}
