package ssdp

import (
	"fmt"
	"math/rand"
	"net"
	"strings"
	"time"

	"github.com/upnpgo/avengine/internal/logger"
	avmodel "github.com/upnpgo/avengine/internal/model"
)

// AdvertisedEntry is one (NT, USN) pair the Advertiser publishes: the root
// device, each embedded device, and each service each get one.
type AdvertisedEntry struct {
	NT  string // deviceType or serviceType URN, or "upnp:rootdevice"
	USN string
}

// Advertiser publishes ssdp:alive notifications for a device's root
// device, embedded devices, and services, replies to matching M-SEARCH
// requests, and emits ssdp:byebye on Stop.
type Advertiser struct {
	transport *Transport
	location  string
	server    string
	entries   []AdvertisedEntry
	interval  time.Duration
	stopCh    chan struct{}
	stoppedCh chan struct{}
}

// NewAdvertiser builds an Advertiser that announces entries at location
// with CACHE-CONTROL max-age set to twice interval. It does not re-announce
// on its own; periodic alives come from calls to Reannounce.
func NewAdvertiser(transport *Transport, location, server string, entries []AdvertisedEntry, interval time.Duration) *Advertiser {
	return &Advertiser{
		transport: transport,
		location:  location,
		server:    server,
		entries:   entries,
		interval:  interval,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// AnnounceAlive sends ssdp:alive for every entry once.
func (a *Advertiser) AnnounceAlive() {
	for _, e := range a.entries {
		a.sendAlive(e)
	}
}

// AnnounceByebye sends ssdp:byebye for every entry once, in reverse order
// (services before the devices that own them), mirroring how a device
// normally tears itself down.
func (a *Advertiser) AnnounceByebye() {
	for i := len(a.entries) - 1; i >= 0; i-- {
		a.sendByebye(a.entries[i])
	}
}

func (a *Advertiser) sendAlive(e AdvertisedEntry) {
	msg := NewRequest("NOTIFY")
	msg.Set("HOST", MulticastAddress)
	msg.Set("CACHE-CONTROL", fmt.Sprintf("max-age=%d", int(a.interval.Seconds())*2))
	msg.Set("LOCATION", a.location)
	msg.Set("NT", e.NT)
	msg.Set("NTS", "ssdp:alive")
	msg.Set("USN", e.USN)
	msg.Set("SERVER", a.server)
	if err := a.transport.Send(msg.Encode()); err != nil {
		logger.SSDPLog.Warnf("failed to send ssdp:alive for usn=%s: %v", e.USN, err)
	}
}

func (a *Advertiser) sendByebye(e AdvertisedEntry) {
	msg := NewRequest("NOTIFY")
	msg.Set("HOST", MulticastAddress)
	msg.Set("NT", e.NT)
	msg.Set("NTS", "ssdp:byebye")
	msg.Set("USN", e.USN)
	if err := a.transport.Send(msg.Encode()); err != nil {
		logger.SSDPLog.Warnf("failed to send ssdp:byebye for usn=%s: %v", e.USN, err)
	}
}

// Start publishes an initial ssdp:alive round and begins listening for
// matching M-SEARCH requests until Stop is called. The periodic
// re-announce tick is driven externally via Reannounce, matching how
// internal/scheduler drives all periodic work through named jobs rather
// than each component running its own ticker.
func (a *Advertiser) Start() {
	a.AnnounceAlive()
	go a.listenLoop()
}

// Reannounce re-sends ssdp:alive for every entry; intended to be called by
// a internal/scheduler job every interval/2 with jitter applied by the
// caller.
func (a *Advertiser) Reannounce() {
	a.AnnounceAlive()
}

// Stop emits ssdp:byebye for every entry and halts the listen loop.
func (a *Advertiser) Stop() {
	close(a.stopCh)
	<-a.stoppedCh
	a.AnnounceByebye()
}

func (a *Advertiser) listenLoop() {
	defer close(a.stoppedCh)
	for {
		select {
		case <-a.stopCh:
			return
		default:
		}

		msg, src, err := a.transport.ReadMessage(time.Now().Add(500 * time.Millisecond))
		if err != nil {
			continue
		}
		if msg.Kind != KindSearch {
			continue
		}
		a.handleSearch(msg, src)
	}
}

func (a *Advertiser) handleSearch(msg *Message, src *net.UDPAddr) {
	st, ok := msg.Get("ST")
	if !ok {
		return
	}
	mx := msg.MX()
	if mx > 5*time.Second {
		mx = 5 * time.Second
	}

	for _, e := range a.entries {
		if st != "ssdp:all" && !strings.EqualFold(st, e.NT) {
			continue
		}
		entry := e
		delay := jitter(mx)
		go func() {
			time.Sleep(delay)
			a.respondToSearch(entry, st, src)
		}()
	}
}

func (a *Advertiser) respondToSearch(e AdvertisedEntry, st string, dst *net.UDPAddr) {
	msg := NewResponse()
	msg.Set("CACHE-CONTROL", fmt.Sprintf("max-age=%d", int(a.interval.Seconds())*2))
	msg.Set("LOCATION", a.location)
	msg.Set("ST", st)
	msg.Set("USN", e.USN)
	msg.Set("SERVER", a.server)
	if err := a.transport.SendTo(msg.Encode(), dst); err != nil {
		logger.SSDPLog.Warnf("failed to send search response for usn=%s: %v", e.USN, err)
	}
}

// RootDeviceEntries builds the canonical set of AdvertisedEntry values for
// a device: one rootdevice entry, one UDN entry, one per-device-type
// entry, and one per advertised service.
func RootDeviceEntries(d avmodel.Device) []AdvertisedEntry {
	entries := []AdvertisedEntry{
		{NT: "upnp:rootdevice", USN: d.UDN + "::upnp:rootdevice"},
		{NT: d.UDN, USN: d.UDN},
		{NT: avmodel.DeviceTypeToUrnTypeString(d.Type), USN: d.UDN + "::" + avmodel.DeviceTypeToUrnTypeString(d.Type)},
	}
	for _, svc := range d.Services {
		urn := avmodel.ServiceTypeToUrnTypeString(svc.Type)
		entries = append(entries, AdvertisedEntry{NT: urn, USN: d.UDN + "::" + urn})
	}
	return entries
}

// JitteredReannounceInterval returns interval/2 with a uniform +/-25%
// jitter applied, per spec.md's device-role announce cadence.
func JitteredReannounceInterval(interval time.Duration) time.Duration {
	base := interval / 2
	spread := float64(base) * 0.25
	delta := (rand.Float64()*2 - 1) * spread
	return base + time.Duration(delta)
}
