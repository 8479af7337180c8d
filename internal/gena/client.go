// Package gena implements the GENA eventing exchange: SUBSCRIBE/RENEW/
// UNSUBSCRIBE on the control-point side (Client), SUBSCRIBE/UNSUBSCRIBE
// handling plus NOTIFY delivery on the device-host side (Host), and the
// NOTIFY receiver that feeds delivered events back to Client listeners
// (Receiver).
package gena

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/upnpgo/avengine/internal/clock"
	averrors "github.com/upnpgo/avengine/internal/errors"
	"github.com/upnpgo/avengine/internal/httpx"
	"github.com/upnpgo/avengine/internal/logger"
	avmodel "github.com/upnpgo/avengine/internal/model"
)

// Listener receives delivered SubscriptionEvents and is told when a
// subscription is lost (resync exhausted, or the publisher rejected a
// renewal outright).
type Listener interface {
	HandleEvent(evt avmodel.SubscriptionEvent)
	HandleSubscriptionLost(sid string, cause error)
}

// Client drives one or more outgoing GENA subscriptions: SUBSCRIBE against
// a publisher's event subscription URL, periodic RENEW before the timeout
// elapses, and UNSUBSCRIBE on demand. It mirrors the sbi package's
// subscribe/unsubscribe client shape, generalized from one UPF-EES
// relationship to an arbitrary number of SID-keyed subscriptions.
type Client struct {
	http      *httpx.Client
	callback  string // this process's NOTIFY delivery URL
	clock     clock.Clock
	mu        sync.Mutex
	subs      map[string]*avmodel.ClientSubscription
	listeners map[string]Listener
}

// NewClient builds a Client that delivers NOTIFYs to callbackURL (this
// process's own GENA Receiver endpoint).
func NewClient(httpClient *httpx.Client, callbackURL string, c clock.Clock) *Client {
	return &Client{
		http:      httpClient,
		callback:  callbackURL,
		clock:     c,
		subs:      make(map[string]*avmodel.ClientSubscription),
		listeners: make(map[string]Listener),
	}
}

// Subscribe issues SUBSCRIBE against publisherURL and registers listener to
// receive events delivered under the returned SID. timeout is the
// requested subscription duration; the publisher's actual grant (from the
// TIMEOUT response header) is recorded instead when present.
func (c *Client) Subscribe(ctx context.Context, publisherURL string, timeout time.Duration, listener Listener) (string, error) {
	headers := http.Header{}
	headers.Set("CALLBACK", "<"+c.callback+">")
	headers.Set("NT", "upnp:event")
	headers.Set("TIMEOUT", timeoutHeader(timeout))

	status, respHeaders, body, err := c.http.Perform(ctx, "SUBSCRIBE", publisherURL, headers, nil)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", averrors.InvalidResponse(nil, "SUBSCRIBE to %s returned status %d: %s", publisherURL, status, string(body))
	}

	sid := respHeaders.Get("SID")
	if sid == "" {
		return "", averrors.InvalidResponse(nil, "SUBSCRIBE to %s returned no SID", publisherURL)
	}
	granted := parseTimeoutHeader(respHeaders.Get("TIMEOUT"), timeout)

	sub := &avmodel.ClientSubscription{
		SID:             sid,
		PublisherURL:    publisherURL,
		Timeout:         granted,
		RenewalDeadline: c.clock.Now().Add(renewalDelay(granted)),
		State:           avmodel.ClientActive,
	}

	c.mu.Lock()
	c.subs[sid] = sub
	c.listeners[sid] = listener
	c.mu.Unlock()

	logger.GENALog.Infof("subscribed sid=%s publisher=%s timeout=%s", sid, publisherURL, granted)
	return sid, nil
}

// Renew issues RENEW for an existing SID, updating its renewal deadline on
// success. The publisher must echo the same SID back, per spec.md's
// renewal contract; a mismatched or missing SID fails the renewal.
func (c *Client) Renew(ctx context.Context, sid string) error {
	c.mu.Lock()
	sub, ok := c.subs[sid]
	c.mu.Unlock()
	if !ok {
		return averrors.SubscriptionLost(nil, "renew: unknown sid %s", sid)
	}

	headers := http.Header{}
	headers.Set("SID", sid)
	headers.Set("TIMEOUT", timeoutHeader(sub.Timeout))

	c.setState(sid, avmodel.ClientRenewing)

	status, respHeaders, body, err := c.http.Perform(ctx, "SUBSCRIBE", sub.PublisherURL, headers, nil)
	if err != nil {
		c.setState(sid, avmodel.ClientFailed)
		return err
	}
	if status != http.StatusOK || respHeaders.Get("SID") != sid {
		c.setState(sid, avmodel.ClientFailed)
		return averrors.InvalidResponse(nil, "RENEW for sid %s rejected: status %d body %s", sid, status, string(body))
	}

	granted := parseTimeoutHeader(respHeaders.Get("TIMEOUT"), sub.Timeout)

	c.mu.Lock()
	sub.Timeout = granted
	sub.RenewalDeadline = c.clock.Now().Add(renewalDelay(granted))
	sub.State = avmodel.ClientActive
	c.mu.Unlock()

	logger.GENALog.Debugf("renewed sid=%s timeout=%s", sid, granted)
	return nil
}

// RenewDue performs the scheduled renewal for sid: a single Renew attempt,
// and on failure one immediate retry, before declaring the subscription
// lost. The listener is told via HandleSubscriptionLost only once both
// attempts have failed.
func (c *Client) RenewDue(ctx context.Context, sid string) error {
	err := c.Renew(ctx, sid)
	if err == nil {
		return nil
	}

	logger.GENALog.Warnf("renew failed for sid=%s, retrying once: %v", sid, err)
	err = c.Renew(ctx, sid)
	if err == nil {
		return nil
	}

	c.mu.Lock()
	sub, ok := c.subs[sid]
	listener := c.listeners[sid]
	if ok {
		sub.State = avmodel.ClientFailed
	}
	c.mu.Unlock()

	lost := averrors.SubscriptionLost(err, "renew retry failed for sid %s", sid)
	if listener != nil {
		listener.HandleSubscriptionLost(sid, lost)
	}
	return lost
}

// renewalDelay returns when a renewal should be scheduled relative to a
// granted timeout: 80% of the way through, per spec.md's renewal cadence,
// so the renewal lands with margin before the publisher expires the
// subscription.
func renewalDelay(granted time.Duration) time.Duration {
	return time.Duration(float64(granted) * 0.8)
}

// Unsubscribe issues UNSUBSCRIBE for sid and removes it from the client's
// table regardless of the publisher's response, since a second UNSUBSCRIBE
// for an already-gone SID must be a harmless no-op.
func (c *Client) Unsubscribe(ctx context.Context, sid string) error {
	c.mu.Lock()
	sub, ok := c.subs[sid]
	c.mu.Unlock()
	if !ok {
		return nil
	}

	headers := http.Header{}
	headers.Set("SID", sid)

	_, _, _, err := c.http.Perform(ctx, "UNSUBSCRIBE", sub.PublisherURL, headers, nil)

	c.mu.Lock()
	delete(c.subs, sid)
	delete(c.listeners, sid)
	c.mu.Unlock()

	if err != nil {
		logger.GENALog.Warnf("UNSUBSCRIBE sid=%s returned error (treating subscription as closed anyway): %v", sid, err)
		return nil
	}
	return nil
}

// RenewalsDue returns the SIDs whose renewal deadline has passed now,
// intended to be polled by internal/scheduler.
func (c *Client) RenewalsDue(now time.Time) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var due []string
	for sid, sub := range c.subs {
		if sub.Terminal() {
			continue
		}
		if !sub.RenewalDeadline.After(now) {
			due = append(due, sid)
		}
	}
	return due
}

// Deliver routes an incoming NOTIFY body to the listener registered for
// sid, enforcing sequence monotonicity and triggering resubscribe-on-gap
// resync. An unknown SID is silently ignored, per spec.md's "NOTIFY with
// unknown SID is ignored" boundary.
func (c *Client) Deliver(ctx context.Context, sid string, seq uint32, data []byte) {
	c.mu.Lock()
	sub, ok := c.subs[sid]
	listener := c.listeners[sid]
	c.mu.Unlock()
	if !ok {
		logger.GENALog.Debugf("ignoring NOTIFY for unknown sid=%s", sid)
		return
	}

	gap := sub.LastSeenSeq != nil && !sequenceFollows(*sub.LastSeenSeq, seq)
	prev := sub.LastSeenSeq

	c.mu.Lock()
	next := seq
	sub.LastSeenSeq = &next
	c.mu.Unlock()

	if gap {
		logger.GENALog.Warnf("sequence gap on sid=%s (had %d, got %d), resyncing", sid, *prev, seq)
		c.resync(ctx, sid, sub, listener)
		return
	}

	if listener != nil {
		listener.HandleEvent(avmodel.SubscriptionEvent{SID: sid, Data: data, Sequence: seq})
	}
}

// resync unsubscribes and re-subscribes against the same publisher URL,
// per spec.md's resolution of the sequence-gap Open Question.
func (c *Client) resync(ctx context.Context, sid string, sub *avmodel.ClientSubscription, listener Listener) {
	publisherURL := sub.PublisherURL
	timeout := sub.Timeout

	_ = c.Unsubscribe(ctx, sid)

	newSID, err := c.Subscribe(ctx, publisherURL, timeout, listener)
	if err != nil {
		if listener != nil {
			listener.HandleSubscriptionLost(sid, err)
		}
		return
	}
	logger.GENALog.Infof("resynced sid=%s -> sid=%s", sid, newSID)
}

func (c *Client) setState(sid string, state avmodel.ClientSubscriptionState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if sub, ok := c.subs[sid]; ok {
		sub.State = state
	}
}

// sequenceFollows reports whether next is the expected successor to prev,
// honoring the "0 only for the initial notification" wraparound rule.
func sequenceFollows(prev, next uint32) bool {
	want := prev + 1
	if want == 0 {
		want = 1
	}
	return next == want
}

func timeoutHeader(d time.Duration) string {
	return fmt.Sprintf("Second-%d", int(d.Seconds()))
}

func parseTimeoutHeader(header string, fallback time.Duration) time.Duration {
	var seconds int
	if _, err := fmt.Sscanf(header, "Second-%d", &seconds); err != nil || seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}
