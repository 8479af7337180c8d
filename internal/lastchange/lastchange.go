// Package lastchange coalesces per-instance service variable changes into
// the rate-limited LastChange event XML that GENA NOTIFY delivers,
// generalizing the ingest-then-flush shape of a batching aggregator to
// UPnP's single aggregate "evented state variable" rather than many
// discrete measurement records.
package lastchange

import (
	"strconv"
	"sync"
	"time"

	"github.com/upnpgo/avengine/internal/clock"
	"github.com/upnpgo/avengine/internal/logger"
	avmodel "github.com/upnpgo/avengine/internal/model"
	xmlu "github.com/upnpgo/avengine/internal/xmlutil"
)

// Sink receives the rendered LastChange event XML once the coalescing
// window closes, normally backed by a gena.Host's Notify.
type Sink func(data []byte)

// Aggregator batches AddChangedVariable calls for one service instance
// table into at-most-one flush per MinInterval, per spec.md's LastChange
// coalescing bound. A change that arrives inside the window stays pending
// until a caller sees DueForFlush report true and calls Flush; the
// Aggregator runs no timer of its own, so how soon after MinInterval a
// pending change is emitted depends on how often the caller polls.
type Aggregator struct {
	mu          sync.Mutex
	state       *avmodel.LastChangeState
	clock       clock.Clock
	metadataURN string
	sink        Sink
}

// NewAggregator builds an Aggregator that flushes through sink no more
// often than minInterval, rendering each batch under metadataURN (e.g.
// avmodel.ServiceTypeToUrnMetadataString(serviceType)) as the Event
// element's xmlns, per spec.md's per-service LastChange metadata
// namespace.
func NewAggregator(minInterval time.Duration, c clock.Clock, metadataURN string, sink Sink) *Aggregator {
	return &Aggregator{
		state:       avmodel.NewLastChangeState(minInterval),
		clock:       c,
		metadataURN: metadataURN,
		sink:        sink,
	}
}

// AddChangedVariable records a new value for v on the given instance.
// Position variables (RelativeTimePosition and friends) bypass LastChange
// entirely: they are not recorded, and AddChangedVariable returns false.
func (a *Aggregator) AddChangedVariable(instanceID uint32, v avmodel.ServiceVariable) bool {
	if avmodel.IsPositionVariable(v.Name) {
		logger.LastChangeLog.Debugf("ignoring position variable %s in LastChange aggregation", v.Name)
		return false
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.state.AddChangedVariable(instanceID, v)

	now := a.clock.Now()
	elapsed := now.Sub(a.state.LastFlushTime)
	if a.state.LastFlushTime.IsZero() || elapsed >= a.state.MinInterval {
		a.flushLocked(now)
		return true
	}
	// A flush is due once MinInterval has elapsed since LastFlushTime;
	// the caller (internal/scheduler) polls DueForFlush to trigger it.
	return false
}

// DueForFlush reports whether the coalescing window has elapsed and a
// pending batch is waiting, so a scheduler tick can call Flush.
func (a *Aggregator) DueForFlush(now time.Time) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state.Empty() {
		return false
	}
	return now.Sub(a.state.LastFlushTime) >= a.state.MinInterval
}

// Flush renders and emits the pending batch immediately, regardless of how
// much time has elapsed since the last flush. Returns false if there was
// nothing pending.
func (a *Aggregator) Flush() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state.Empty() {
		return false
	}
	a.flushLocked(a.clock.Now())
	return true
}

func (a *Aggregator) flushLocked(now time.Time) {
	batch := a.state.Drain()
	a.state.LastFlushTime = now
	data := Render(batch, a.metadataURN)
	if a.sink != nil {
		a.sink(data)
	}
}

// Render builds the LastChange event XML for a drained batch of per-instance
// variable changes:
//
//	<Event xmlns="urn:schemas-upnp-org:metadata-1-0/AVT/">
//	  <InstanceID val="0">
//	    <TransportState val="PLAYING"/>
//	  </InstanceID>
//	</Event>
func Render(batch map[uint32][]avmodel.ServiceVariable, metadataURN string) []byte {
	event := xmlu.NewElement("Event")
	event.SetAttr("xmlns", metadataURN)

	for instanceID, vars := range batch {
		instance := xmlu.NewElement("InstanceID")
		instance.SetAttr("val", strconv.FormatUint(uint64(instanceID), 10))
		for _, v := range vars {
			varElem := xmlu.NewElement(v.Name)
			varElem.SetAttr("val", v.Value)
			if v.Attributes != nil {
				v.Attributes.Each(func(name, value string) {
					if name != "val" {
						varElem.SetAttr(name, value)
					}
				})
			}
			instance.AddChild(varElem)
		}
		event.AddChild(instance)
	}

	return []byte(event.String())
}
