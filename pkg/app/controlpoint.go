package app

import (
	stdctx "context"
	"sync"
	"time"

	"github.com/upnpgo/avengine/internal/avclient"
	"github.com/upnpgo/avengine/internal/gena"
	"github.com/upnpgo/avengine/internal/httpx"
	"github.com/upnpgo/avengine/internal/logger"
	avmodel "github.com/upnpgo/avengine/internal/model"
	"github.com/upnpgo/avengine/internal/scpd"
	"github.com/upnpgo/avengine/internal/ssdp"
)

var _ ssdp.Listener = (*peerWatcher)(nil)

// subscribable is the subset of a concrete avclient service (AVTransport,
// RenderingControl, ConnectionManager, ContentDirectory) that
// peerWatcher needs: bind to a discovered device, load its SCPD, and
// subscribe for decoded variable-change events.
type subscribable interface {
	SetDevice(d avmodel.Device) bool
	LoadSCPD(ctx stdctx.Context)
	SubscribeForVariableChanges(ctx stdctx.Context, onChange avclient.VariableChangeHandler, onLost func(sid string, cause error)) (string, error)
	Unsubscribe(ctx stdctx.Context) error
}

// peerServices tracks the service clients built for one discovered peer
// device, so Disappeared can unsubscribe and drop them.
type peerServices struct {
	udn     string
	clients []subscribable
}

// peerWatcher realizes spec.md's control-point data flow end to end: on
// Discovered, download the peer's device description, build one service
// client per AV service it advertises, load its SCPD, and subscribe for
// variable-change events; on Disappeared, tear the subscriptions down. It
// implements ssdp.Listener and is registered with the shared Cache.
type peerWatcher struct {
	httpClient *httpx.Client
	genaClient *gena.Client
	onChange   func(udn string, tag avmodel.ServiceTag, instanceID uint32, vars map[string]string)

	mu    sync.Mutex
	peers map[string]*peerServices
}

func newPeerWatcher(httpClient *httpx.Client, genaClient *gena.Client, onChange func(udn string, tag avmodel.ServiceTag, instanceID uint32, vars map[string]string)) *peerWatcher {
	return &peerWatcher{
		httpClient: httpClient,
		genaClient: genaClient,
		onChange:   onChange,
		peers:      make(map[string]*peerServices),
	}
}

// Discovered implements ssdp.Listener. It does the network work in a
// goroutine, since ssdp.Cache requires listeners not to block.
func (w *peerWatcher) Discovered(d avmodel.Device) {
	go w.bind(d)
}

// Disappeared implements ssdp.Listener.
func (w *peerWatcher) Disappeared(udn string) {
	w.mu.Lock()
	peer, ok := w.peers[udn]
	delete(w.peers, udn)
	w.mu.Unlock()
	if !ok {
		return
	}

	ctx, cancel := stdctx.WithTimeout(stdctx.Background(), 5*time.Second)
	defer cancel()
	for _, client := range peer.clients {
		if err := client.Unsubscribe(ctx); err != nil {
			logger.ControlPointLog.Warnf("unsubscribe on departure of udn=%s failed: %v", udn, err)
		}
	}
}

// bind downloads udn's device description, builds a service client for
// every AV service it advertises, and subscribes each for variable-change
// events.
func (w *peerWatcher) bind(d avmodel.Device) {
	ctx, cancel := stdctx.WithTimeout(stdctx.Background(), 10*time.Second)
	defer cancel()

	status, body, err := w.httpClient.Get(ctx, d.BaseURL)
	if err != nil {
		logger.ControlPointLog.Warnf("failed to fetch device description for udn=%s at %s: %v", d.UDN, d.BaseURL, err)
		return
	}
	if status != 200 {
		logger.ControlPointLog.Warnf("device description fetch for udn=%s returned status %d", d.UDN, status)
		return
	}

	parsed, err := scpd.ParseDeviceDescription(body, d.BaseURL)
	if err != nil {
		logger.ControlPointLog.Warnf("failed to parse device description for udn=%s: %v", d.UDN, err)
		return
	}

	device := avmodel.Device{
		UDN:            parsed.UDN,
		FriendlyName:   parsed.FriendlyName,
		Type:           parsed.Type,
		BaseURL:        parsed.BaseURL,
		ExpirationTime: d.ExpirationTime,
		Services:       make(map[avmodel.ServiceTag]avmodel.Service, len(parsed.Services)),
	}
	for _, svc := range parsed.Services {
		resolved := svc
		if url, err := httpx.ResolveAgainst(parsed.BaseURL, svc.SCPDURL); err == nil {
			resolved.SCPDURL = url
		}
		if url, err := httpx.ResolveAgainst(parsed.BaseURL, svc.ControlURL); err == nil {
			resolved.ControlURL = url
		}
		if url, err := httpx.ResolveAgainst(parsed.BaseURL, svc.EventSubURL); err == nil {
			resolved.EventSubURL = url
		}
		device.Services[svc.Type.Tag] = resolved
	}

	peer := &peerServices{udn: d.UDN}
	for _, candidate := range w.buildClients() {
		if !candidate.SetDevice(device) {
			continue
		}
		candidate.LoadSCPD(ctx)

		tag := serviceTagOf(candidate)
		sid, err := candidate.SubscribeForVariableChanges(ctx,
			func(instanceID uint32, vars map[string]string) {
				if w.onChange != nil {
					w.onChange(d.UDN, tag, instanceID, vars)
				}
			},
			func(sid string, cause error) {
				logger.ControlPointLog.Warnf("subscription lost for udn=%s service=%s sid=%s: %v", d.UDN, tag, sid, cause)
			},
		)
		if err != nil {
			logger.ControlPointLog.Warnf("subscribe failed for udn=%s service=%s: %v", d.UDN, tag, err)
			continue
		}
		logger.ControlPointLog.Infof("subscribed to udn=%s service=%s sid=%s", d.UDN, tag, sid)
		peer.clients = append(peer.clients, candidate)
	}

	w.mu.Lock()
	w.peers[d.UDN] = peer
	w.mu.Unlock()
}

// buildClients returns one fresh client per known AV service type, each
// sharing the watcher's HTTP and GENA clients. SetDevice rejects the ones a
// given peer does not actually advertise.
func (w *peerWatcher) buildClients() []subscribable {
	return []subscribable{
		avclient.NewAVTransport(w.httpClient, w.genaClient),
		avclient.NewRenderingControl(w.httpClient, w.genaClient),
		avclient.NewConnectionManager(w.httpClient, w.genaClient),
		avclient.NewContentDirectory(w.httpClient, w.genaClient),
	}
}

func serviceTagOf(c subscribable) avmodel.ServiceTag {
	switch c.(type) {
	case *avclient.AVTransport:
		return avmodel.ServiceAVTransport
	case *avclient.RenderingControl:
		return avmodel.ServiceRenderingControl
	case *avclient.ConnectionManager:
		return avmodel.ServiceConnectionManager
	case *avclient.ContentDirectory:
		return avmodel.ServiceContentDirectory
	default:
		return avmodel.ServiceUnknown
	}
}
