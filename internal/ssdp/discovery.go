package ssdp

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/upnpgo/avengine/internal/clock"
	"github.com/upnpgo/avengine/internal/logger"
	avmodel "github.com/upnpgo/avengine/internal/model"
)

// SearchOptions configures an outgoing M-SEARCH round. DeviceType filters
// the search to a specific deviceType URN instead of the default
// "ssdp:all", the same distinction a reference control-point's device
// browse draws between a targeted search and a full sweep.
type SearchOptions struct {
	DeviceType string // empty means ssdp:all
	MX         int    // seconds, default DefaultSearchMX
}

// ControlPoint runs SSDP discovery: it transmits M-SEARCH requests,
// listens for unicast responses and multicast NOTIFYs, and maintains a
// Cache of currently-alive devices.
type ControlPoint struct {
	transport *Transport
	cache     *Cache
	clock     clock.Clock
	stopCh    chan struct{}
	stoppedCh chan struct{}
}

// NewControlPoint builds a ControlPoint over transport, publishing
// discoveries into cache.
func NewControlPoint(transport *Transport, cache *Cache, c clock.Clock) *ControlPoint {
	return &ControlPoint{
		transport: transport,
		cache:     cache,
		clock:     c,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Search transmits three M-SEARCH requests separated by jittered gaps, per
// spec.md's discovery start sequence.
func (cp *ControlPoint) Search(opts SearchOptions) error {
	st := "ssdp:all"
	if opts.DeviceType != "" {
		st = opts.DeviceType
	}
	mx := opts.MX
	if mx <= 0 {
		mx = DefaultSearchMX
	}

	msg := NewRequest("M-SEARCH")
	msg.Set("HOST", MulticastAddress)
	msg.Set("MAN", `"ssdp:discover"`)
	msg.Set("ST", st)
	msg.Set("MX", fmt.Sprintf("%d", mx))

	for i := 0; i < 3; i++ {
		if err := cp.transport.Send(msg.Encode()); err != nil {
			return fmt.Errorf("ssdp: send M-SEARCH: %w", err)
		}
		logger.SSDPLog.Debugf("sent M-SEARCH st=%q round=%d", st, i+1)
		if i < 2 {
			time.Sleep(jitter(time.Duration(mx) * time.Second))
		}
	}
	return nil
}

// Start begins the background listen loop that processes incoming
// NOTIFY/response datagrams until Stop is called.
func (cp *ControlPoint) Start() {
	go cp.listenLoop()
}

// Stop halts the listen loop and waits for it to exit.
func (cp *ControlPoint) Stop() {
	close(cp.stopCh)
	<-cp.stoppedCh
}

func (cp *ControlPoint) listenLoop() {
	defer close(cp.stoppedCh)
	for {
		select {
		case <-cp.stopCh:
			return
		default:
		}

		msg, _, err := cp.transport.ReadMessage(cp.clock.Now().Add(500 * time.Millisecond))
		if err != nil {
			continue // timeout or transient read error; keep listening
		}
		cp.handleMessage(msg)
	}
}

func (cp *ControlPoint) handleMessage(msg *Message) {
	usn, ok := msg.Get("USN")
	if !ok {
		logger.SSDPLog.Debugf("dropping SSDP message without USN")
		return
	}

	nts, _ := msg.Get("NTS")
	if msg.Kind == KindNotify && strings.EqualFold(nts, "ssdp:byebye") {
		cp.cache.Remove(udnFromUSN(usn))
		return
	}

	maxAge, ok := msg.MaxAge()
	if !ok {
		logger.SSDPLog.Debugf("dropping alive/response without CACHE-CONTROL max-age, usn=%s", usn)
		return
	}

	location, _ := msg.Get("LOCATION")
	device := avmodel.Device{
		UDN:            udnFromUSN(usn),
		BaseURL:        location,
		ExpirationTime: ExpirationFromMaxAge(cp.clock.Now(), maxAge),
		Services:       map[avmodel.ServiceTag]avmodel.Service{},
	}
	if st, ok := msg.Get("ST"); ok {
		if dt, err := avmodel.DeviceTypeUrnStringToDevice(st); err == nil {
			device.Type = dt
		}
	} else if nt, ok := msg.Get("NT"); ok {
		if dt, err := avmodel.DeviceTypeUrnStringToDevice(nt); err == nil {
			device.Type = dt
		}
	}

	cp.cache.Upsert(device)
}

// udnFromUSN extracts the UDN portion of a USN header, which is either a
// bare UDN ("uuid:abc") or "uuid:abc::urn:...".
func udnFromUSN(usn string) string {
	if idx := strings.Index(usn, "::"); idx >= 0 {
		return usn[:idx]
	}
	return usn
}

// jitter returns a uniformly random duration in [0, max], matching
// spec.md's "jittered by a uniform random delay in [0, MX]".
func jitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(max) + 1))
}
