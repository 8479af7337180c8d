package ssdp

import (
	"sync"
	"time"

	"github.com/upnpgo/avengine/internal/clock"
	"github.com/upnpgo/avengine/internal/logger"
	avmodel "github.com/upnpgo/avengine/internal/model"
)

// Listener receives device-appeared/device-disappeared events from a Cache.
// Implementations must not block; the control point is expected to enqueue
// work rather than do it inline.
type Listener interface {
	Discovered(d avmodel.Device)
	Disappeared(udn string)
}

// Cache is the control point's view of currently-alive devices, keyed by
// USN/UDN, with sliding-TTL eviction. It is the structural descendant of a
// mutex-guarded, sweep-on-tick in-memory store: insert-or-refresh on
// alive/response, delete on byebye, periodic removal of anything whose
// expirationTime has passed.
type Cache struct {
	mu        sync.RWMutex
	devices   map[string]avmodel.Device
	clock     clock.Clock
	listeners []Listener
}

// NewCache builds an empty Cache using c as its time source.
func NewCache(c clock.Clock) *Cache {
	return &Cache{devices: make(map[string]avmodel.Device), clock: c}
}

// AddListener registers l to receive future Discovered/Disappeared events.
func (c *Cache) AddListener(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

// Upsert inserts d or refreshes its expirationTime if already present,
// firing Discovered exactly when the UDN was not already cached. Last
// writer wins for duplicate announcements, since the caller always
// overwrites the entry outright.
func (c *Cache) Upsert(d avmodel.Device) {
	c.mu.Lock()
	_, existed := c.devices[d.UDN]
	c.devices[d.UDN] = d
	listeners := append([]Listener{}, c.listeners...)
	c.mu.Unlock()

	if !existed {
		logger.SSDPLog.Debugf("discovered device udn=%s type=%v expires=%s", d.UDN, d.Type, d.ExpirationTime)
		for _, l := range listeners {
			l.Discovered(d)
		}
	}
}

// Remove deletes the device identified by udn, firing Disappeared if it
// was present.
func (c *Cache) Remove(udn string) {
	c.mu.Lock()
	_, existed := c.devices[udn]
	delete(c.devices, udn)
	listeners := append([]Listener{}, c.listeners...)
	c.mu.Unlock()

	if existed {
		logger.SSDPLog.Debugf("device disappeared udn=%s", udn)
		for _, l := range listeners {
			l.Disappeared(udn)
		}
	}
}

// Get returns the device for udn if present and not expired.
func (c *Cache) Get(udn string) (avmodel.Device, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.devices[udn]
	if !ok || d.Expired(c.clock.Now()) {
		return avmodel.Device{}, false
	}
	return d, true
}

// Len returns the number of devices currently cached, including any not
// yet swept past their expiration.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.devices)
}

// Sweep removes every device whose expirationTime has passed as of now,
// firing Disappeared for each. Intended to be driven by
// internal/scheduler at 1Hz per spec.md's SSDP sweep cadence.
func (c *Cache) Sweep() {
	now := c.clock.Now()

	c.mu.Lock()
	var expired []string
	for udn, d := range c.devices {
		if d.Expired(now) {
			expired = append(expired, udn)
		}
	}
	for _, udn := range expired {
		delete(c.devices, udn)
	}
	listeners := append([]Listener{}, c.listeners...)
	c.mu.Unlock()

	for _, udn := range expired {
		logger.SSDPLog.Debugf("sweep evicted expired device udn=%s", udn)
		for _, l := range listeners {
			l.Disappeared(udn)
		}
	}
}

// ExpirationFromMaxAge computes a Device's ExpirationTime from a
// CACHE-CONTROL max-age duration observed now.
func ExpirationFromMaxAge(now time.Time, maxAge time.Duration) time.Time {
	return now.Add(maxAge)
}
