package gena

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/upnpgo/avengine/internal/clock"
	"github.com/upnpgo/avengine/internal/httpx"
)

func TestClientSubscribeSchedulesRenewalAtEightyPercentOfGrantedTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("SID", "uuid:sub-1")
		w.Header().Set("TIMEOUT", "Second-100")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	fakeClock := clock.NewFakeClock(time.Unix(0, 0))
	c := NewClient(httpx.NewClient(httpx.DefaultClientOptions()), "http://127.0.0.1:0/events", fakeClock)

	sid, err := c.Subscribe(context.Background(), server.URL, 100*time.Second, &recordingListener{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fakeClock.Advance(79 * time.Second)
	if due := c.RenewalsDue(fakeClock.Now()); len(due) != 0 {
		t.Errorf("expected no renewal due at 79s of a 100s grant, got %v", due)
	}

	fakeClock.Advance(2 * time.Second)
	due := c.RenewalsDue(fakeClock.Now())
	if len(due) != 1 || due[0] != sid {
		t.Errorf("expected renewal due at 81s of a 100s grant, got %v", due)
	}
}

func TestClientRenewDueRetriesOnceThenReportsSubscriptionLost(t *testing.T) {
	var subscribeCalls, renewCalls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case "SUBSCRIBE":
			if r.Header.Get("SID") == "" {
				subscribeCalls++
				w.Header().Set("SID", "uuid:sub-1")
				w.Header().Set("TIMEOUT", "Second-100")
				w.WriteHeader(http.StatusOK)
				return
			}
			renewCalls++
			http.Error(w, "precondition failed", http.StatusPreconditionFailed)
		}
	}))
	defer server.Close()

	fakeClock := clock.NewFakeClock(time.Unix(0, 0))
	c := NewClient(httpx.NewClient(httpx.DefaultClientOptions()), "http://127.0.0.1:0/events", fakeClock)
	listener := &recordingListener{}

	sid, err := c.Subscribe(context.Background(), server.URL, 100*time.Second, listener)
	if err != nil {
		t.Fatalf("unexpected error subscribing: %v", err)
	}

	err = c.RenewDue(context.Background(), sid)
	if err == nil {
		t.Fatal("expected RenewDue to fail after exhausting its retry")
	}
	if renewCalls != 2 {
		t.Errorf("expected exactly one retry (2 RENEW attempts total), got %d", renewCalls)
	}
	if len(listener.lost) != 1 || listener.lost[0] != sid {
		t.Errorf("expected HandleSubscriptionLost to fire for sid=%s, got %v", sid, listener.lost)
	}
}
