package xmlutil

import (
	"strings"
	"testing"
)

func TestElementSerializeRoundTrip(t *testing.T) {
	root := NewElement("Envelope")
	root.SetAttr("xmlns", "urn:test")
	body := root.AddChild(NewElement("Body"))
	body.AddTextChild("Speed", "1")
	body.AddTextChild("InstanceID", "0")

	serialized := root.String()
	if !strings.Contains(serialized, "<Speed>1</Speed>") {
		t.Errorf("serialized output missing Speed element: %s", serialized)
	}

	parsed, err := Parse([]byte(serialized))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	parsedBody, ok := parsed.FindChild("Body")
	if !ok {
		t.Fatalf("expected Body child, got: %s", serialized)
	}
	speed, ok := parsedBody.FindChild("Speed")
	if !ok || speed.Text != "1" {
		t.Errorf("expected Speed=1, got %+v", speed)
	}
}

func TestElementChildOrderPreserved(t *testing.T) {
	root := NewElement("Action")
	root.AddTextChild("A", "1")
	root.AddTextChild("B", "2")
	root.AddTextChild("C", "3")

	var names []string
	for _, c := range root.Children {
		names = append(names, c.Name)
	}
	want := []string{"A", "B", "C"}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("position %d: got %q, want %q", i, names[i], want[i])
		}
	}
}

func TestFindDescendant(t *testing.T) {
	root := NewElement("Event")
	instance := root.AddChild(NewElement("InstanceID"))
	instance.SetAttr("val", "0")
	instance.AddTextChild("TransportState", "PLAYING")

	found, ok := root.FindDescendant("TransportState")
	if !ok || found.Text != "PLAYING" {
		t.Errorf("expected to find TransportState=PLAYING, got %+v", found)
	}
}
