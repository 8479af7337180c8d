package gena

import (
	"net/http"
	"testing"
	"time"

	"github.com/upnpgo/avengine/internal/clock"
	avmodel "github.com/upnpgo/avengine/internal/model"
)

type recordingListener struct {
	events []avmodel.SubscriptionEvent
	lost   []string
}

func (r *recordingListener) HandleEvent(evt avmodel.SubscriptionEvent) { r.events = append(r.events, evt) }
func (r *recordingListener) HandleSubscriptionLost(sid string, cause error) {
	r.lost = append(r.lost, sid)
}

func newTestClient() *Client {
	return &Client{
		clock:     clock.NewFakeClock(time.Unix(1000, 0)),
		subs:      make(map[string]*avmodel.ClientSubscription),
		listeners: make(map[string]Listener),
	}
}

func TestDeliverIgnoresUnknownSID(t *testing.T) {
	c := newTestClient()
	listener := &recordingListener{}
	c.Deliver(nil, "uuid:unknown", 1, []byte("<data/>"))
	if len(listener.events) != 0 {
		t.Errorf("expected no events delivered for unknown sid")
	}
}

func TestDeliverSequenceMonotonicity(t *testing.T) {
	c := newTestClient()
	listener := &recordingListener{}
	c.subs["sid-1"] = &avmodel.ClientSubscription{SID: "sid-1", State: avmodel.ClientActive}
	c.listeners["sid-1"] = listener

	c.Deliver(nil, "sid-1", 0, []byte("a"))
	c.Deliver(nil, "sid-1", 1, []byte("b"))
	c.Deliver(nil, "sid-1", 2, []byte("c"))

	if len(listener.events) != 3 {
		t.Fatalf("expected 3 delivered events, got %d", len(listener.events))
	}
	for i, evt := range listener.events {
		if evt.Sequence != uint32(i) {
			t.Errorf("event %d: expected sequence %d, got %d", i, i, evt.Sequence)
		}
	}
}

func TestSequenceFollowsWraparound(t *testing.T) {
	cases := []struct {
		prev, next uint32
		want       bool
	}{
		{0, 1, true},
		{1, 2, true},
		{^uint32(0), 1, true}, // wraps to 1, never back to 0
		{^uint32(0), 0, false},
		{5, 7, false},
	}
	for _, c := range cases {
		if got := sequenceFollows(c.prev, c.next); got != c.want {
			t.Errorf("sequenceFollows(%d, %d) = %v, want %v", c.prev, c.next, got, c.want)
		}
	}
}

func TestHostSubscribeWithoutCallbackFails(t *testing.T) {
	h := NewHost("AVTransport", 1801*time.Second, clock.NewFakeClock(time.Unix(0, 0)), nil)
	_, _, err := h.Subscribe("", 0)
	if err == nil {
		t.Fatal("expected error subscribing without a CALLBACK")
	}
}

func TestHostUnsubscribeIsIdempotent(t *testing.T) {
	h := NewHost("AVTransport", 1801*time.Second, clock.NewFakeClock(time.Unix(0, 0)), nil)
	sid, _, err := h.Subscribe("http://10.0.0.5:4004/event", 0)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	h.Unsubscribe(sid)
	h.Unsubscribe(sid) // must not panic or error
	if h.SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers after unsubscribe, got %d", h.SubscriberCount())
	}
}

func TestHostNotifyAssignsIncreasingSequences(t *testing.T) {
	var delivered []string
	deliver := func(url string, headers http.Header, body []byte) (int, error) {
		delivered = append(delivered, headers.Get("SEQ"))
		return http.StatusOK, nil
	}
	h := NewHost("AVTransport", 1801*time.Second, clock.NewFakeClock(time.Unix(0, 0)), deliver)
	sid, _, _ := h.Subscribe("http://10.0.0.5:4004/event", 0)

	h.Notify(http.Header{}, []byte("<Event/>"))
	h.Notify(http.Header{}, []byte("<Event/>"))

	if len(delivered) != 2 || delivered[0] != "0" || delivered[1] != "1" {
		t.Errorf("expected sequences [0 1], got %v", delivered)
	}
	_ = sid
}

func TestHostDropsSubscriberAfterRepeatedFailures(t *testing.T) {
	deliver := func(url string, headers http.Header, body []byte) (int, error) {
		return http.StatusInternalServerError, nil
	}
	h := NewHost("AVTransport", 1801*time.Second, clock.NewFakeClock(time.Unix(0, 0)), deliver)
	h.Subscribe("http://10.0.0.5:4004/event", 0)

	h.Notify(http.Header{}, []byte("a"))
	if h.SubscriberCount() != 1 {
		t.Fatalf("expected subscriber to survive first failure")
	}
	h.Notify(http.Header{}, []byte("b"))
	if h.SubscriberCount() != 0 {
		t.Errorf("expected subscriber dropped after 2 consecutive failures, got %d remaining", h.SubscriberCount())
	}
}
