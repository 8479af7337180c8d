package gena

import (
	"io"
	"net/http"
	"strconv"

	"github.com/upnpgo/avengine/internal/logger"
)

// Receiver is the control-point-side HTTP handler for incoming NOTIFY
// requests, mirroring the southbound receiver's path-parse-then-forward
// shape: it extracts SID/SEQ from the GENA headers and hands the body to
// Client.Deliver, which enforces sequence ordering and SID validity.
type Receiver struct {
	client          *Client
	maxRequestBytes int64
}

// NewReceiver builds a Receiver that forwards delivered NOTIFYs to client.
func NewReceiver(client *Client) *Receiver {
	return &Receiver{client: client, maxRequestBytes: 1 << 20}
}

// ServeHTTP implements http.Handler for the NOTIFY method.
func (r *Receiver) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method != "NOTIFY" {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sid := req.Header.Get("SID")
	if sid == "" {
		logger.GENALog.Debugf("dropping NOTIFY without SID")
		http.Error(w, "missing SID", http.StatusBadRequest)
		return
	}

	seq, err := strconv.ParseUint(req.Header.Get("SEQ"), 10, 32)
	if err != nil {
		logger.GENALog.Debugf("dropping NOTIFY with malformed SEQ for sid=%s", sid)
		http.Error(w, "missing or malformed SEQ", http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(io.LimitReader(req.Body, r.maxRequestBytes))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	r.client.Deliver(req.Context(), sid, uint32(seq), body)
	w.WriteHeader(http.StatusOK)
}

// SubscriptionHandler is the device-host-side HTTP handler for SUBSCRIBE
// and UNSUBSCRIBE requests against a single service's event subscription
// URL.
type SubscriptionHandler struct {
	host        *Host
	onSubscribed func(sid string)
}

// NewSubscriptionHandler builds a handler that drives host for incoming
// SUBSCRIBE/RENEW/UNSUBSCRIBE requests.
func NewSubscriptionHandler(host *Host) *SubscriptionHandler {
	return &SubscriptionHandler{host: host}
}

// SetOnSubscribed registers a callback invoked, with the newly assigned
// SID, after a brand-new SUBSCRIBE is accepted (not on RENEW). The device
// host uses this to push the initial full-state NOTIFY the GENA contract
// requires a fresh subscription to receive.
func (h *SubscriptionHandler) SetOnSubscribed(f func(sid string)) {
	h.onSubscribed = f
}

// ServeHTTP implements http.Handler for the SUBSCRIBE and UNSUBSCRIBE
// methods.
func (h *SubscriptionHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	switch req.Method {
	case "SUBSCRIBE":
		h.handleSubscribe(w, req)
	case "UNSUBSCRIBE":
		h.handleUnsubscribe(w, req)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *SubscriptionHandler) handleSubscribe(w http.ResponseWriter, req *http.Request) {
	sid := req.Header.Get("SID")
	timeout := parseTimeoutHeader(req.Header.Get("TIMEOUT"), 0)

	if sid != "" {
		// RENEW: existing SID, no CALLBACK expected.
		granted, err := h.host.Renew(sid, timeout)
		if err != nil {
			http.Error(w, err.Error(), http.StatusPreconditionFailed)
			return
		}
		w.Header().Set("SID", sid)
		w.Header().Set("TIMEOUT", timeoutHeader(granted))
		w.WriteHeader(http.StatusOK)
		return
	}

	callback := extractCallback(req.Header.Get("CALLBACK"))
	newSID, granted, err := h.host.Subscribe(callback, timeout)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("SID", newSID)
	w.Header().Set("TIMEOUT", timeoutHeader(granted))
	w.WriteHeader(http.StatusOK)

	if h.onSubscribed != nil {
		h.onSubscribed(newSID)
	}
}

func (h *SubscriptionHandler) handleUnsubscribe(w http.ResponseWriter, req *http.Request) {
	sid := req.Header.Get("SID")
	if sid == "" {
		http.Error(w, "missing SID", http.StatusBadRequest)
		return
	}
	h.host.Unsubscribe(sid)
	w.WriteHeader(http.StatusOK)
}

// extractCallback strips the angle brackets from a CALLBACK header value
// such as "<http://10.0.0.5:4004/event>".
func extractCallback(header string) string {
	if len(header) >= 2 && header[0] == '<' && header[len(header)-1] == '>' {
		return header[1 : len(header)-1]
	}
	return header
}
