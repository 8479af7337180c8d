package model

import "testing"

func TestArgumentListPreservesInsertionOrder(t *testing.T) {
	args := NewArgumentList().Add("InstanceID", "0").Add("Speed", "1").Add("Unit", "REL_TIME")
	want := []string{"InstanceID", "Speed", "Unit"}
	got := args.Names()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestArgumentListUpdateKeepsPosition(t *testing.T) {
	args := NewArgumentList().Add("A", "1").Add("B", "2")
	args.Add("A", "99")
	if v, _ := args.Get("A"); v != "99" {
		t.Errorf("expected updated value, got %q", v)
	}
	want := []string{"A", "B"}
	got := args.Names()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestArgumentListGetMissing(t *testing.T) {
	args := NewArgumentList()
	if _, ok := args.Get("missing"); ok {
		t.Error("expected ok=false for missing key")
	}
}
