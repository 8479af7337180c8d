// Package app wires together every internal/ component into a single
// running UPnP AV node: a hosted MediaRenderer device (AVTransport,
// RenderingControl, ConnectionManager, ContentDirectory) advertised over
// SSDP and reachable for SOAP control and GENA eventing, plus a control
// point that discovers other devices into a shared cache and, for each,
// downloads its description, builds a service client per advertised
// service, and subscribes for decoded variable-change events.
//
// The App implementation is intentionally small and procedural, so that
// cmd/upnpavd/main.go can simply create an App from the loaded Config and
// call Start/Stop without knowing internal details.
package app

import (
	stdctx "context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/upnpgo/avengine/internal/avhost"
	"github.com/upnpgo/avengine/internal/clock"
	avctx "github.com/upnpgo/avengine/internal/context"
	"github.com/upnpgo/avengine/internal/gena"
	"github.com/upnpgo/avengine/internal/httpx"
	"github.com/upnpgo/avengine/internal/lastchange"
	"github.com/upnpgo/avengine/internal/logger"
	avmodel "github.com/upnpgo/avengine/internal/model"
	"github.com/upnpgo/avengine/internal/scheduler"
	"github.com/upnpgo/avengine/internal/scpd"
	"github.com/upnpgo/avengine/internal/ssdp"
	"github.com/upnpgo/avengine/pkg/factory"
)

// App is the high-level interface implemented by the engine. It hides
// wiring, HTTP server startup, and scheduler lifecycle from cmd/upnpavd/main.go.
type App interface {
	// Start brings the whole engine online. It is expected to:
	//   - bind the device-host HTTP server (description/control/event)
	//   - build and publish the local device description and per-service SCPD
	//   - start the SSDP advertiser and control point
	//   - start the scheduler (cache sweep, re-announce, GENA sweeps, LastChange flush)
	Start(ctx stdctx.Context) error

	// Stop attempts a graceful shutdown:
	//   - mark shutdown requested
	//   - stop the scheduler
	//   - stop the SSDP advertiser (emits ssdp:byebye) and control point
	//   - shut down the HTTP server
	Stop(ctx stdctx.Context) error
}

// hostedService bundles everything app.Start needs to mount and schedule
// one service instance: its host, the gena publisher it notifies through,
// and the HTTP handler pair serving its control and event URLs.
type hostedService struct {
	tag         avmodel.ServiceTag
	serviceType avmodel.ServiceType
	host        *avhost.ServiceHost
	genaHost    *gena.Host
	subHandler  *gena.SubscriptionHandler
	scpdDoc     scpd.Document

	controlPath string
	eventPath   string
	scpdPath    string
}

// appImpl is the concrete implementation of App.
type appImpl struct {
	config *factory.Config

	clockSource clock.Clock
	httpClient  *httpx.Client

	cache        *ssdp.Cache
	transport    *ssdp.Transport
	controlPoint *ssdp.ControlPoint
	genaClient   *gena.Client
	peerWatcher  *peerWatcher

	runtimeContext avctx.RuntimeContext
	localDeviceUDN string

	avTransportHost       *avhost.AVTransportHost
	renderingControlHost  *avhost.RenderingControlHost
	connectionManagerHost *avhost.ConnectionManagerHost
	contentDirectoryHost  *avhost.ContentDirectoryHost

	services       []*hostedService
	lastChangeAggs []*lastchange.Aggregator

	httpServer *httpx.Server
	advertiser *ssdp.Advertiser
	sched      *scheduler.Scheduler

	startStopMutex sync.Mutex
	started        bool
}

// NewApp constructs a new App from a validated configuration. It builds
// every address-independent internal component but does not bind any
// network listener yet; that is handled by Start, once the HTTP server's
// actual bound address is known and can be folded into the device
// description and SSDP advertisements.
func NewApp(config *factory.Config) (App, error) {
	if config == nil {
		return nil, fmt.Errorf("config must not be nil")
	}

	if initError := logger.InitLog(config.Logging.Level, config.Logging.ReportCaller); initError != nil {
		logger.MainLog.Warnf("InitLog failed with level=%s, using fallback: %v", config.Logging.Level, initError)
	}

	logger.MainLog.Infof("starting UPnP AV engine on interface=%s", config.Identity.InterfaceName)

	clockSource := clock.RealClock{}
	httpClient := httpx.NewClient(httpx.DefaultClientOptions())

	cache := ssdp.NewCache(clockSource)

	transport, transportError := ssdp.NewTransport(config.Identity.InterfaceName)
	if transportError != nil {
		return nil, fmt.Errorf("failed to open SSDP transport: %w", transportError)
	}

	controlPoint := ssdp.NewControlPoint(transport, cache, clockSource)
	runtimeContext := avctx.NewRuntimeContext(cache)
	localDeviceUDN := avctx.NewDeviceUDN()

	app := &appImpl{
		config:         config,
		clockSource:    clockSource,
		httpClient:     httpClient,
		cache:          cache,
		transport:      transport,
		controlPoint:   controlPoint,
		runtimeContext: runtimeContext,
		localDeviceUDN: localDeviceUDN,
	}

	app.buildHostedServices()

	return app, nil
}

// deliverNotify adapts httpx.Client.Perform to the func(url, headers, body)
// (status, error) shape gena.Host expects for outgoing NOTIFY delivery.
func (app *appImpl) deliverNotify(targetURL string, headers http.Header, body []byte) (int, error) {
	ctx, cancel := stdctx.WithTimeout(stdctx.Background(), 10*time.Second)
	defer cancel()
	status, _, _, err := app.httpClient.Perform(ctx, "NOTIFY", targetURL, headers, body)
	return status, err
}

// subscriptionTimeoutFor resolves the configured GENA subscription default
// for tag, falling back to 1801s if the config map has no entry (defensive
// only; pkg/factory.applyDefaults always populates all four tags).
func (app *appImpl) subscriptionTimeoutFor(tag avmodel.ServiceTag) time.Duration {
	seconds, ok := app.config.GENA.SubscriptionTimeouts[tag.String()]
	if !ok || seconds <= 0 {
		seconds = 1801
	}
	return time.Duration(seconds) * time.Second
}

// buildHostedServices constructs the four concrete service hosts, their
// gena.Host publishers, LastChange aggregators (AVTransport and
// RenderingControl only, per spec), and SCPD documents. It does not touch
// the network; control/event URLs and the device description are finished
// in Start once the HTTP server's address is known.
func (app *appImpl) buildHostedServices() {
	avtType := avmodel.ServiceType{Tag: avmodel.ServiceAVTransport, Version: 1}
	rcsType := avmodel.ServiceType{Tag: avmodel.ServiceRenderingControl, Version: 1}
	cmsType := avmodel.ServiceType{Tag: avmodel.ServiceConnectionManager, Version: 1}
	cdsType := avmodel.ServiceType{Tag: avmodel.ServiceContentDirectory, Version: 1}

	avtGenaHost := gena.NewHost("AVTransport", app.subscriptionTimeoutFor(avmodel.ServiceAVTransport), app.clockSource, app.deliverNotify)
	rcsGenaHost := gena.NewHost("RenderingControl", app.subscriptionTimeoutFor(avmodel.ServiceRenderingControl), app.clockSource, app.deliverNotify)
	cmsGenaHost := gena.NewHost("ConnectionManager", app.subscriptionTimeoutFor(avmodel.ServiceConnectionManager), app.clockSource, app.deliverNotify)
	cdsGenaHost := gena.NewHost("ContentDirectory", app.subscriptionTimeoutFor(avmodel.ServiceContentDirectory), app.clockSource, app.deliverNotify)

	app.avTransportHost = avhost.NewAVTransportHost(avtGenaHost)
	app.renderingControlHost = avhost.NewRenderingControlHost(rcsGenaHost)
	app.connectionManagerHost = avhost.NewConnectionManagerHost(cmsGenaHost,
		[]string{"http-get:*:audio/mpeg:*", "http-get:*:video/mpeg:*"},
		nil,
	)
	app.contentDirectoryHost = avhost.NewContentDirectoryHost(cdsGenaHost)

	minInterval := app.config.LastChange.MinInterval.Duration
	avtAgg := lastchange.NewAggregator(minInterval, app.clockSource, avmodel.ServiceTypeToUrnMetadataString(avtType), app.avTransportHost.EmitLastChange)
	app.avTransportHost.RegisterInstanceAggregator(0, avtAgg)
	rcsAgg := lastchange.NewAggregator(minInterval, app.clockSource, avmodel.ServiceTypeToUrnMetadataString(rcsType), app.renderingControlHost.EmitLastChange)
	app.renderingControlHost.RegisterInstanceAggregator(0, rcsAgg)
	app.lastChangeAggs = []*lastchange.Aggregator{avtAgg, rcsAgg}

	app.services = []*hostedService{
		{
			tag: avmodel.ServiceAVTransport, serviceType: avtType,
			host: app.avTransportHost.ServiceHost, genaHost: avtGenaHost,
			subHandler: gena.NewSubscriptionHandler(avtGenaHost),
			scpdDoc:    avTransportSCPD(),
		},
		{
			tag: avmodel.ServiceRenderingControl, serviceType: rcsType,
			host: app.renderingControlHost.ServiceHost, genaHost: rcsGenaHost,
			subHandler: gena.NewSubscriptionHandler(rcsGenaHost),
			scpdDoc:    renderingControlSCPD(),
		},
		{
			tag: avmodel.ServiceConnectionManager, serviceType: cmsType,
			host: app.connectionManagerHost.ServiceHost, genaHost: cmsGenaHost,
			subHandler: gena.NewSubscriptionHandler(cmsGenaHost),
			scpdDoc:    connectionManagerSCPD(),
		},
		{
			tag: avmodel.ServiceContentDirectory, serviceType: cdsType,
			host: app.contentDirectoryHost.ServiceHost, genaHost: cdsGenaHost,
			subHandler: gena.NewSubscriptionHandler(cdsGenaHost),
			scpdDoc:    contentDirectorySCPD(),
		},
	}

	for _, svc := range app.services {
		lowerTag := svc.tag.String()
		svc.controlPath = "/control/" + lowerTag
		svc.eventPath = "/event/" + lowerTag
		svc.scpdPath = "/scpd/" + lowerTag + ".xml"

		// Capture svc by value in the closure argument, not by reference to
		// the loop variable, so each service's own GetSubscriptionResponse
		// and genaHost are the ones delivered.
		svc := svc
		svc.subHandler.SetOnSubscribed(func(sid string) {
			go svc.genaHost.NotifySubscriber(sid,
				http.Header{"Content-Type": {`text/xml; charset="utf-8"`}},
				svc.host.GetSubscriptionResponse())
		})
	}
}

// Start implements App.Start.
func (app *appImpl) Start(ctx stdctx.Context) error {
	app.startStopMutex.Lock()
	defer app.startStopMutex.Unlock()

	if app.started {
		logger.MainLog.Warn("App.Start called more than once; ignoring subsequent call")
		return nil
	}

	app.runtimeContext.SetShutdownRequested(ctx, false)

	host, err := resolveInterfaceIPv4(app.config.Identity.InterfaceName)
	if err != nil {
		return fmt.Errorf("failed to resolve advertise address: %w", err)
	}

	app.httpServer = httpx.NewServer(fmt.Sprintf("%s:%d", host, app.config.Identity.HTTPPort))
	if serveError := app.httpServer.Serve(); serveError != nil {
		return fmt.Errorf("failed to bind device-host HTTP server: %w", serveError)
	}
	baseURL := "http://" + app.httpServer.Addr()

	device := app.buildLocalDevice(baseURL)
	app.runtimeContext.SetLocalDevice(device)

	app.mountHTTPHandlers(baseURL, device)

	app.genaClient = gena.NewClient(app.httpClient, baseURL+"/clientevents", app.clockSource)
	app.httpServer.Handle("/clientevents", gena.NewReceiver(app.genaClient), "NOTIFY")
	app.peerWatcher = newPeerWatcher(app.httpClient, app.genaClient, app.handlePeerVariableChange)
	app.cache.AddListener(app.peerWatcher)

	location := baseURL + "/description/device.xml"
	app.advertiser = ssdp.NewAdvertiser(app.transport, location, "avengine/1.0 UPnP/1.0", ssdp.RootDeviceEntries(device), app.config.Discovery.AdvertiseInterval.Duration)
	app.advertiser.Start()
	app.controlPoint.Start()

	if searchError := app.controlPoint.Search(ssdp.SearchOptions{MX: app.config.Discovery.SSDPSearchMX}); searchError != nil {
		logger.MainLog.Warnf("initial M-SEARCH failed (continuing without it): %v", searchError)
	}

	app.sched = scheduler.NewScheduler(app.clockSource, time.Second)
	app.registerScheduledJobs()
	app.sched.Start()

	app.started = true
	logger.MainLog.Infof("UPnP AV engine started udn=%s location=%s", device.UDN, location)
	return nil
}

// Stop implements App.Stop.
func (app *appImpl) Stop(ctx stdctx.Context) error {
	app.startStopMutex.Lock()
	defer app.startStopMutex.Unlock()

	if !app.started {
		return nil
	}

	logger.MainLog.Infof("UPnP AV engine shutdown requested")
	app.runtimeContext.SetShutdownRequested(ctx, true)

	if app.sched != nil {
		app.sched.Stop()
	}
	if app.advertiser != nil {
		app.advertiser.Stop()
	}
	app.controlPoint.Stop()

	if app.httpServer != nil {
		if shutdownError := app.httpServer.Shutdown(ctx); shutdownError != nil {
			logger.MainLog.Warnf("HTTP server shutdown returned error: %v", shutdownError)
		}
	}

	app.started = false
	logger.MainLog.Infof("UPnP AV engine shutdown completed")
	return nil
}

// registerScheduledJobs wires the periodic housekeeping spec.md assigns to
// a single consolidated ticker: SSDP cache sweep, SSDP re-announce, GENA
// host expiry sweep per service, and LastChange due-flush per aggregator.
func (app *appImpl) registerScheduledJobs() {
	app.sched.AddJob("ssdp-cache-sweep", time.Second, func(now time.Time) {
		app.cache.Sweep()
	})

	reannounce := ssdp.JitteredReannounceInterval(app.config.Discovery.AdvertiseInterval.Duration)
	app.sched.AddJob("ssdp-reannounce", reannounce, func(now time.Time) {
		app.advertiser.Reannounce()
	})

	for _, svc := range app.services {
		svc := svc
		app.sched.AddJob("gena-sweep-"+svc.tag.String(), 5*time.Second, func(now time.Time) {
			svc.genaHost.Sweep()
		})
	}

	app.sched.AddJob("lastchange-flush", app.config.LastChange.MinInterval.Duration, func(now time.Time) {
		for _, agg := range app.lastChangeAggs {
			if agg.DueForFlush(now) {
				agg.Flush()
			}
		}
	})

	app.sched.AddJob("gena-client-renew", time.Second, func(now time.Time) {
		for _, sid := range app.genaClient.RenewalsDue(now) {
			ctx, cancel := stdctx.WithTimeout(stdctx.Background(), 10*time.Second)
			if err := app.genaClient.RenewDue(ctx, sid); err != nil {
				logger.MainLog.Warnf("renewal failed permanently for sid=%s: %v", sid, err)
			}
			cancel()
		}
	})
}

// handlePeerVariableChange is the control point's default reaction to a
// decoded variable-change event from a discovered peer: log it. Nothing in
// the engine yet persists or routes these events further.
func (app *appImpl) handlePeerVariableChange(udn string, tag avmodel.ServiceTag, instanceID uint32, vars map[string]string) {
	logger.ControlPointLog.Infof("peer variable change udn=%s service=%s instance=%d vars=%v", udn, tag, instanceID, vars)
}

// buildLocalDevice assembles this process's MediaRenderer device
// descriptor, with every URL resolved absolute against baseURL per
// spec.md's "absolute once resolved against <URLBase> or LOCATION" rule.
func (app *appImpl) buildLocalDevice(baseURL string) avmodel.Device {
	services := make(map[avmodel.ServiceTag]avmodel.Service, len(app.services))
	for _, svc := range app.services {
		services[svc.tag] = avmodel.Service{
			Type:        svc.serviceType,
			ServiceID:   avmodel.ServiceTypeToUrnIDString(svc.serviceType),
			ControlURL:  baseURL + svc.controlPath,
			EventSubURL: baseURL + svc.eventPath,
			SCPDURL:     baseURL + svc.scpdPath,
		}
	}

	return avmodel.Device{
		UDN:            app.localDeviceUDN,
		FriendlyName:   "avengine UPnP AV Reference Renderer",
		Type:           avmodel.DeviceType{Tag: avmodel.DeviceMediaRenderer, Version: 1},
		BaseURL:        baseURL,
		ExpirationTime: app.clockSource.Now().Add(app.config.Discovery.AdvertiseInterval.Duration * 2),
		Services:       services,
	}
}

// mountHTTPHandlers registers the description, per-service control, and
// per-service event endpoints on the bound HTTP server, and registers each
// service's control URL with the RuntimeContext so a future generic router
// could resolve it purely from a discovered avmodel.Device.
func (app *appImpl) mountHTTPHandlers(baseURL string, device avmodel.Device) {
	embedded := scpd.EmbeddedDevice{
		UDN:          device.UDN,
		FriendlyName: device.FriendlyName,
		Manufacturer: "avengine",
		ModelName:    "Reference Renderer",
		Type:         device.Type,
	}
	for _, svc := range app.services {
		embedded.Services = append(embedded.Services, device.Services[svc.tag])
	}
	descriptionXML := scpd.BuildDeviceDescription(baseURL, embedded)

	app.httpServer.Handle("/description/device.xml", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", `text/xml; charset="utf-8"`)
		w.Write(descriptionXML)
	}), "GET")

	for _, svc := range app.services {
		svcXML := svc.scpdDoc.Build()
		app.httpServer.Handle(svc.scpdPath, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", `text/xml; charset="utf-8"`)
			w.Write(svcXML)
		}), "GET")

		app.httpServer.Handle(svc.controlPath, avhost.NewControlHandler(svc.host), "POST")
		app.httpServer.Handle(svc.eventPath, svc.subHandler, "SUBSCRIBE", "UNSUBSCRIBE")

		app.runtimeContext.RegisterHostedService(svc.controlPath, svc.host)
	}
}

// resolveInterfaceIPv4 returns the first IPv4 address bound to the named
// interface, or loopback if interfaceName is empty, so the device
// description and SSDP advertisements carry a reachable host instead of
// the wildcard address the listener itself binds to.
func resolveInterfaceIPv4(interfaceName string) (string, error) {
	if interfaceName == "" {
		return "127.0.0.1", nil
	}

	iface, err := net.InterfaceByName(interfaceName)
	if err != nil {
		return "", fmt.Errorf("interface %q: %w", interfaceName, err)
	}
	addrs, err := iface.Addrs()
	if err != nil {
		return "", fmt.Errorf("interface %q addrs: %w", interfaceName, err)
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		ipv4 := ipNet.IP.To4()
		if ipv4 != nil {
			return ipv4.String(), nil
		}
	}
	return "", fmt.Errorf("interface %q has no IPv4 address", interfaceName)
}
