// Package context holds the in-memory runtime state shared by the control
// point and device host roles: the discovered-device cache, the local
// device's own identity, the set of locally hosted services reachable by
// control URL, and a shutdown flag.
//
// Note: this package is named "context", so the standard library package
// is aliased as stdctx to avoid a name collision.
package context

import (
	stdctx "context"
	"sync"

	"github.com/google/uuid"

	"github.com/upnpgo/avengine/internal/logger"
	avmodel "github.com/upnpgo/avengine/internal/model"
	"github.com/upnpgo/avengine/internal/ssdp"
)

// ActionDispatcher is the subset of avhost.ServiceHost that RuntimeContext
// needs in order to route an incoming SOAP request by control URL, without
// internal/context importing internal/avhost back.
type ActionDispatcher interface {
	OnAction(name string, args *avmodel.ArgumentList) (*avmodel.ArgumentList, error)
	ServiceType() avmodel.ServiceType
}

// HostedService binds a locally hosted service's control URL to the
// dispatcher that executes its actions.
type HostedService struct {
	ControlURL string
	Dispatcher ActionDispatcher
}

// RuntimeContext is the concurrency-safe, process-wide view of discovered
// remote devices and locally hosted services.
type RuntimeContext interface {
	// Cache returns the control point's discovered-device cache.
	Cache() *ssdp.Cache

	// LocalDevice returns this process's own hosted device descriptor, as
	// set by SetLocalDevice.
	LocalDevice() (avmodel.Device, bool)

	// SetLocalDevice records the device descriptor this process advertises
	// and hosts. NewDeviceUDN should be used to allocate its UDN.
	SetLocalDevice(d avmodel.Device)

	// RegisterHostedService binds controlURL to dispatcher so that an
	// incoming SOAP POST to that path can be routed to the right service
	// host.
	RegisterHostedService(controlURL string, dispatcher ActionDispatcher)

	// DispatcherForControlURL returns the dispatcher registered for
	// controlURL, if any.
	DispatcherForControlURL(controlURL string) (ActionDispatcher, bool)

	// SetShutdownRequested marks whether a graceful shutdown has been
	// requested.
	SetShutdownRequested(ctx stdctx.Context, requested bool)

	// IsShutdownRequested reports whether shutdown has been requested.
	IsShutdownRequested() bool
}

type runtimeContextImpl struct {
	cache *ssdp.Cache

	mutexForLocalDevice sync.RWMutex
	localDevice         avmodel.Device
	hasLocalDevice      bool

	mutexForHostedServices sync.RWMutex
	hostedServices         map[string]ActionDispatcher

	mutexForShutdown  sync.RWMutex
	shutdownRequested bool
}

// NewRuntimeContext creates a new, empty RuntimeContext backed by cache.
func NewRuntimeContext(cache *ssdp.Cache) RuntimeContext {
	return &runtimeContextImpl{
		cache:          cache,
		hostedServices: make(map[string]ActionDispatcher),
	}
}

// NewDeviceUDN allocates a fresh "uuid:<uuid>" UDN for a newly hosted
// device, the one piece of SID/UDN allocation the runtime context needs
// that the teacher's hand-rolled numeric counter could not express: UPnP
// requires UDNs in RFC 4122 form, not an incrementing integer.
func NewDeviceUDN() string {
	return avmodel.NewUDN(uuid.NewString())
}

func (runtime *runtimeContextImpl) Cache() *ssdp.Cache {
	return runtime.cache
}

func (runtime *runtimeContextImpl) LocalDevice() (avmodel.Device, bool) {
	runtime.mutexForLocalDevice.RLock()
	defer runtime.mutexForLocalDevice.RUnlock()
	return runtime.localDevice, runtime.hasLocalDevice
}

func (runtime *runtimeContextImpl) SetLocalDevice(d avmodel.Device) {
	runtime.mutexForLocalDevice.Lock()
	defer runtime.mutexForLocalDevice.Unlock()
	runtime.localDevice = d
	runtime.hasLocalDevice = true

	logger.ContextLog.Infof("local device set udn=%s friendlyName=%q", d.UDN, d.FriendlyName)
}

func (runtime *runtimeContextImpl) RegisterHostedService(controlURL string, dispatcher ActionDispatcher) {
	runtime.mutexForHostedServices.Lock()
	defer runtime.mutexForHostedServices.Unlock()
	runtime.hostedServices[controlURL] = dispatcher

	logger.ContextLog.Debugf("hosted service registered controlUrl=%s", controlURL)
}

func (runtime *runtimeContextImpl) DispatcherForControlURL(controlURL string) (ActionDispatcher, bool) {
	runtime.mutexForHostedServices.RLock()
	defer runtime.mutexForHostedServices.RUnlock()
	d, ok := runtime.hostedServices[controlURL]
	return d, ok
}

func (runtime *runtimeContextImpl) SetShutdownRequested(ctx stdctx.Context, requested bool) {
	runtime.mutexForShutdown.Lock()
	defer runtime.mutexForShutdown.Unlock()
	runtime.shutdownRequested = requested

	logger.ContextLog.Infof("shutdown requested=%t", requested)
}

func (runtime *runtimeContextImpl) IsShutdownRequested() bool {
	runtime.mutexForShutdown.RLock()
	defer runtime.mutexForShutdown.RUnlock()
	return runtime.shutdownRequested
}
