package gena

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/upnpgo/avengine/internal/clock"
	"github.com/upnpgo/avengine/internal/logger"
	avmodel "github.com/upnpgo/avengine/internal/model"
)

const maxConsecutiveDeliveryFailures = 2

// Host accepts GENA SUBSCRIBE/UNSUBSCRIBE requests for one service and
// delivers NOTIFYs to every active subscriber, tracking a per-subscriber
// sequence counter and dropping subscribers after repeated delivery
// failures, mirroring the northbound server's per-subscription state table
// generalized to push rather than pull delivery.
type Host struct {
	serviceID    string
	eventSubURL  string
	deliver      func(url string, headers http.Header, body []byte) (int, error)
	clock        clock.Clock
	defaultTimeout time.Duration

	mu   sync.Mutex
	subs map[string]*avmodel.ServerSubscription
}

// NewHost builds a Host for the service identified by serviceID, using
// deliver to perform the outgoing NOTIFY request (normally backed by
// httpx.Client.Perform).
func NewHost(serviceID string, defaultTimeout time.Duration, c clock.Clock, deliver func(url string, headers http.Header, body []byte) (int, error)) *Host {
	return &Host{
		serviceID:      serviceID,
		deliver:        deliver,
		clock:          c,
		defaultTimeout: defaultTimeout,
		subs:           make(map[string]*avmodel.ServerSubscription),
	}
}

// Subscribe registers a new subscriber at deliveryURL, returning the
// assigned SID and granted timeout. An empty deliveryURL (a SUBSCRIBE
// without CALLBACK) returns an error and registers nothing.
func (h *Host) Subscribe(deliveryURL string, requestedTimeout time.Duration) (sid string, timeout time.Duration, err error) {
	if deliveryURL == "" {
		return "", 0, fmt.Errorf("gena: SUBSCRIBE without CALLBACK")
	}
	timeout = requestedTimeout
	if timeout <= 0 {
		timeout = h.defaultTimeout
	}

	sid = "uuid:" + uuid.NewString()
	sub := &avmodel.ServerSubscription{
		SID:            sid,
		DeliveryURL:    deliveryURL,
		ExpirationTime: h.clock.Now().Add(timeout),
	}

	h.mu.Lock()
	h.subs[sid] = sub
	h.mu.Unlock()

	logger.GENALog.Infof("service=%s accepted subscription sid=%s delivery=%s timeout=%s", h.serviceID, sid, deliveryURL, timeout)
	return sid, timeout, nil
}

// Renew extends an existing subscriber's expiration. Renewing an unknown
// SID fails, per the GENA contract that RENEW must target a live
// subscription.
func (h *Host) Renew(sid string, requestedTimeout time.Duration) (time.Duration, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub, ok := h.subs[sid]
	if !ok {
		return 0, fmt.Errorf("gena: renew unknown sid %s", sid)
	}
	timeout := requestedTimeout
	if timeout <= 0 {
		timeout = h.defaultTimeout
	}
	sub.ExpirationTime = h.clock.Now().Add(timeout)
	return timeout, nil
}

// Unsubscribe removes a subscriber. Removing an already-unknown SID is a
// no-op, satisfying idempotent-unsubscribe.
func (h *Host) Unsubscribe(sid string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, sid)
}

// Sweep removes every subscriber whose expiration has passed, intended to
// be driven by internal/scheduler alongside the SSDP cache sweep.
func (h *Host) Sweep() {
	now := h.clock.Now()
	h.mu.Lock()
	defer h.mu.Unlock()
	for sid, sub := range h.subs {
		if sub.Expired(now) {
			delete(h.subs, sid)
		}
	}
}

// Notify delivers body to every active subscriber, assigning each its own
// next sequence number. A subscriber that fails delivery
// maxConsecutiveDeliveryFailures times in a row is dropped.
func (h *Host) Notify(headers http.Header, body []byte) {
	h.mu.Lock()
	var targets []*avmodel.ServerSubscription
	for _, sub := range h.subs {
		targets = append(targets, sub)
	}
	h.mu.Unlock()

	for _, sub := range targets {
		h.notifyOne(sub, headers, body)
	}
}

func (h *Host) notifyOne(sub *avmodel.ServerSubscription, headers http.Header, body []byte) {
	h.mu.Lock()
	seq := sub.NextSequence()
	h.mu.Unlock()

	perRequest := headers.Clone()
	if perRequest == nil {
		perRequest = http.Header{}
	}
	perRequest.Set("SID", sub.SID)
	perRequest.Set("SEQ", fmt.Sprintf("%d", seq))
	perRequest.Set("NT", "upnp:event")
	perRequest.Set("NTS", "upnp:propchange")

	status, err := h.deliver(sub.DeliveryURL, perRequest, body)

	h.mu.Lock()
	defer h.mu.Unlock()
	if err != nil || status != http.StatusOK {
		sub.ConsecutiveFails++
		logger.GENALog.Warnf("NOTIFY to sid=%s failed (%d consecutive): status=%d err=%v", sub.SID, sub.ConsecutiveFails, status, err)
		if sub.ConsecutiveFails >= maxConsecutiveDeliveryFailures {
			logger.GENALog.Warnf("dropping subscriber sid=%s after repeated delivery failures", sub.SID)
			delete(h.subs, sub.SID)
		}
		return
	}
	sub.ConsecutiveFails = 0
}

// SubscriberCount reports the number of currently tracked subscribers,
// used by tests and diagnostics.
func (h *Host) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// NotifySubscriber delivers body to exactly one subscriber, identified by
// sid, assigning it its own next sequence number. Used to push the initial
// full-state event a SUBSCRIBE response promises, separately from the
// broadcast Notify path. A sid unknown to this host is a no-op.
func (h *Host) NotifySubscriber(sid string, headers http.Header, body []byte) {
	h.mu.Lock()
	sub, ok := h.subs[sid]
	h.mu.Unlock()
	if !ok {
		return
	}
	h.notifyOne(sub, headers, body)
}
