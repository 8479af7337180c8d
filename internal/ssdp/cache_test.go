package ssdp

import (
	"testing"
	"time"

	"github.com/upnpgo/avengine/internal/clock"
	avmodel "github.com/upnpgo/avengine/internal/model"
)

type recordingListener struct {
	discovered  []string
	disappeared []string
}

func (r *recordingListener) Discovered(d avmodel.Device)  { r.discovered = append(r.discovered, d.UDN) }
func (r *recordingListener) Disappeared(udn string)        { r.disappeared = append(r.disappeared, udn) }

func TestCacheUpsertFiresDiscoveredOnce(t *testing.T) {
	fc := clock.NewFakeClock(time.Unix(1000, 0))
	c := NewCache(fc)
	listener := &recordingListener{}
	c.AddListener(listener)

	d := avmodel.Device{UDN: "uuid:abc", ExpirationTime: fc.Now().Add(1800 * time.Second)}
	c.Upsert(d)
	c.Upsert(d) // refresh, should not fire Discovered again

	if c.Len() != 1 {
		t.Fatalf("expected cache size 1, got %d", c.Len())
	}
	if len(listener.discovered) != 1 {
		t.Errorf("expected exactly one Discovered event, got %d", len(listener.discovered))
	}
}

func TestCacheSweepEvictsExpired(t *testing.T) {
	fc := clock.NewFakeClock(time.Unix(1000, 0))
	c := NewCache(fc)
	listener := &recordingListener{}
	c.AddListener(listener)

	c.Upsert(avmodel.Device{UDN: "uuid:abc", ExpirationTime: fc.Now().Add(10 * time.Second)})
	fc.Advance(11 * time.Second)
	c.Sweep()

	if c.Len() != 0 {
		t.Errorf("expected cache size 0 after sweep, got %d", c.Len())
	}
	if len(listener.disappeared) != 1 || listener.disappeared[0] != "uuid:abc" {
		t.Errorf("expected Disappeared(uuid:abc), got %v", listener.disappeared)
	}
}

func TestCacheRemoveOnByebye(t *testing.T) {
	fc := clock.NewFakeClock(time.Unix(1000, 0))
	c := NewCache(fc)
	c.Upsert(avmodel.Device{UDN: "uuid:abc", ExpirationTime: fc.Now().Add(1800 * time.Second)})
	c.Remove("uuid:abc")
	if c.Len() != 0 {
		t.Errorf("expected cache size 0 after byebye, got %d", c.Len())
	}
	if _, ok := c.Get("uuid:abc"); ok {
		t.Error("expected device to be gone after Remove")
	}
}

func TestCacheFreshnessInvariant(t *testing.T) {
	fc := clock.NewFakeClock(time.Unix(1000, 0))
	c := NewCache(fc)
	c.Upsert(avmodel.Device{UDN: "uuid:abc", ExpirationTime: fc.Now().Add(5 * time.Second)})
	fc.Advance(6 * time.Second)
	// Get must not return an expired device even before a sweep has run.
	if _, ok := c.Get("uuid:abc"); ok {
		t.Error("expected Get to hide an expired device even before sweep")
	}
}
