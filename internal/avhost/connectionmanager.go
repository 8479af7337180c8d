package avhost

import (
	"strings"

	averrors "github.com/upnpgo/avengine/internal/errors"
	"github.com/upnpgo/avengine/internal/gena"
	avmodel "github.com/upnpgo/avengine/internal/model"
)

// ConnectionManagerHost is the device-host-side ConnectionManager service:
// static protocol info plus one fixed connection with ID 0. It keeps no
// table of active connections; GetCurrentConnectionInfo returns the same
// fixed values for any ConnectionID.
type ConnectionManagerHost struct {
	*ServiceHost
	sourceProtocols []string
	sinkProtocols   []string
}

// NewConnectionManagerHost builds a ConnectionManagerHost advertising
// sourceProtocols/sinkProtocols (each e.g. "http-get:*:audio/mpeg:*").
func NewConnectionManagerHost(genaHost *gena.Host, sourceProtocols, sinkProtocols []string) *ConnectionManagerHost {
	h := &ConnectionManagerHost{
		ServiceHost:     NewServiceHost(avmodel.ServiceType{Tag: avmodel.ServiceConnectionManager, Version: 1}, genaHost),
		sourceProtocols: sourceProtocols,
		sinkProtocols:   sinkProtocols,
	}
	h.SetVariable("SourceProtocolInfo", strings.Join(sourceProtocols, ","))
	h.SetVariable("SinkProtocolInfo", strings.Join(sinkProtocols, ","))
	h.SetVariable("CurrentConnectionIDs", "0")
	h.RegisterAction("GetProtocolInfo", h.handleGetProtocolInfo)
	h.RegisterAction("GetCurrentConnectionIDs", h.handleGetCurrentConnectionIDs)
	h.RegisterAction("GetCurrentConnectionInfo", h.handleGetCurrentConnectionInfo)
	return h
}

func (h *ConnectionManagerHost) handleGetProtocolInfo(args *avmodel.ArgumentList) (*avmodel.ArgumentList, error) {
	resp := avmodel.NewArgumentList()
	resp.Add("Source", strings.Join(h.sourceProtocols, ","))
	resp.Add("Sink", strings.Join(h.sinkProtocols, ","))
	return resp, nil
}

func (h *ConnectionManagerHost) handleGetCurrentConnectionIDs(args *avmodel.ArgumentList) (*avmodel.ArgumentList, error) {
	resp := avmodel.NewArgumentList()
	ids, _ := h.GetVariable("CurrentConnectionIDs")
	resp.Add("ConnectionIDs", ids)
	return resp, nil
}

func (h *ConnectionManagerHost) handleGetCurrentConnectionInfo(args *avmodel.ArgumentList) (*avmodel.ArgumentList, error) {
	if _, ok := args.Get("ConnectionID"); !ok {
		return nil, averrors.UPnPError(402, "Invalid Args")
	}

	resp := avmodel.NewArgumentList()
	resp.Add("RcsID", "0")
	resp.Add("AVTransportID", "0")
	resp.Add("ProtocolInfo", "")
	resp.Add("PeerConnectionManager", "")
	resp.Add("PeerConnectionID", "-1")
	resp.Add("Direction", "Output")
	resp.Add("Status", "OK")
	return resp, nil
}
