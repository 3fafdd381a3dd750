package seed

import (
	"context"
	"errors"
	"testing"

	"service-enrollment/internal/testkit"
)

func TestLoadSampleInstitution(t *testing.T) {
	t.Parallel()

	db := testkit.OpenSQLite(t)
	created, err := Load(context.Background(), db.TxManager)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(created) != 12 {
		t.Fatalf("users = %d, want 12", len(created))
	}

	want := map[string]int{"Math 101": 4, "Physics 121": 5, "CS 106": 4, "CS 162": 4}
	for name, count := range want {
		if got := db.EnrolledCount(t, CourseID(name)); got != count {
			t.Fatalf("%s enrolled = %d, want %d", name, got, count)
		}
	}

	enrollment, ok := db.FindEnrollment(t, UserID("aranganath"), CourseID("CS 162"))
	if !ok {
		t.Fatal("Aditya Ranganath missing from CS 162")
	}
	if enrollment.Grade != 99 {
		t.Fatalf("grade = %v, want 99", enrollment.Grade)
	}
}

func TestLoadRefusesPopulatedDatabase(t *testing.T) {
	t.Parallel()

	db := testkit.OpenSQLite(t)
	if _, err := Load(context.Background(), db.TxManager); err != nil {
		t.Fatalf("first Load: %v", err)
	}
	if _, err := Load(context.Background(), db.TxManager); !errors.Is(err, ErrNotEmpty) {
		t.Fatalf("second Load error = %v, want %v", err, ErrNotEmpty)
	}
}
