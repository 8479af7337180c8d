package avhost

import (
	"strconv"

	averrors "github.com/upnpgo/avengine/internal/errors"
	"github.com/upnpgo/avengine/internal/gena"
	avmodel "github.com/upnpgo/avengine/internal/model"
)

// instanceState tracks one AVTransport logical instance's transport and
// media state, the device-host counterpart of what avclient.AVTransport's
// GetTransportInfo/GetMediaInfo/GetPositionInfo queries read back.
type instanceState struct {
	transportState  string
	transportStatus string
	speed           string
	currentURI      string
	currentURIMeta  string
	nextURI         string
	nextURIMeta     string
}

// AVTransportHost is the device-host-side AVTransport service: it accepts
// SetAVTransportURI/SetNextAVTransportURI/Play/Pause/Stop actions and
// reports transport, media and position state, routing every transport
// state change through SetInstanceVariable (LastChange). Seek, Next and
// Previous are not handled.
type AVTransportHost struct {
	*ServiceHost
	instances map[uint32]*instanceState
}

// NewAVTransportHost builds an AVTransportHost, registering its action
// handlers.
func NewAVTransportHost(genaHost *gena.Host) *AVTransportHost {
	h := &AVTransportHost{
		ServiceHost: NewServiceHost(avmodel.ServiceType{Tag: avmodel.ServiceAVTransport, Version: 1}, genaHost),
		instances:   make(map[uint32]*instanceState),
	}
	h.RegisterAction("SetAVTransportURI", h.handleSetAVTransportURI)
	h.RegisterAction("SetNextAVTransportURI", h.handleSetNextAVTransportURI)
	h.RegisterAction("Play", h.handlePlay)
	h.RegisterAction("Pause", h.handlePause)
	h.RegisterAction("Stop", h.handleStop)
	h.RegisterAction("GetTransportInfo", h.handleGetTransportInfo)
	h.RegisterAction("GetMediaInfo", h.handleGetMediaInfo)
	h.RegisterAction("GetPositionInfo", h.handleGetPositionInfo)
	return h
}

func (h *AVTransportHost) instance(id uint32) *instanceState {
	s, ok := h.instances[id]
	if !ok {
		s = &instanceState{transportState: "NO_MEDIA_PRESENT", transportStatus: "OK", speed: "1"}
		h.instances[id] = s
	}
	return s
}

func (h *AVTransportHost) setTransportState(instanceID uint32, state string) {
	s := h.instance(instanceID)
	s.transportState = state
	h.SetInstanceVariable(instanceID, avmodel.NewServiceVariable("TransportState", state))
}

func (h *AVTransportHost) handleSetAVTransportURI(args *avmodel.ArgumentList) (*avmodel.ArgumentList, error) {
	instanceID, uri, meta, err := instanceURIArgs(args, "CurrentURI", "CurrentURIMetaData")
	if err != nil {
		return nil, err
	}
	s := h.instance(instanceID)
	s.currentURI, s.currentURIMeta = uri, meta
	h.setTransportState(instanceID, "STOPPED")
	return avmodel.NewArgumentList(), nil
}

func (h *AVTransportHost) handleSetNextAVTransportURI(args *avmodel.ArgumentList) (*avmodel.ArgumentList, error) {
	instanceID, uri, meta, err := instanceURIArgs(args, "NextURI", "NextURIMetaData")
	if err != nil {
		return nil, err
	}
	s := h.instance(instanceID)
	s.nextURI, s.nextURIMeta = uri, meta
	return avmodel.NewArgumentList(), nil
}

func (h *AVTransportHost) handlePlay(args *avmodel.ArgumentList) (*avmodel.ArgumentList, error) {
	instanceID, err := requireInstanceID(args)
	if err != nil {
		return nil, err
	}
	s := h.instance(instanceID)
	if s.currentURI == "" {
		return nil, averrors.UPnPError(702, "No content found in media item")
	}
	if speed, ok := args.Get("Speed"); ok && speed != "" {
		s.speed = speed
	}
	h.setTransportState(instanceID, "PLAYING")
	return avmodel.NewArgumentList(), nil
}

func (h *AVTransportHost) handlePause(args *avmodel.ArgumentList) (*avmodel.ArgumentList, error) {
	instanceID, err := requireInstanceID(args)
	if err != nil {
		return nil, err
	}
	s := h.instance(instanceID)
	if s.transportState != "PLAYING" {
		return nil, averrors.UPnPError(701, "Playback transition not supported at this moment")
	}
	h.setTransportState(instanceID, "PAUSED_PLAYBACK")
	return avmodel.NewArgumentList(), nil
}

func (h *AVTransportHost) handleStop(args *avmodel.ArgumentList) (*avmodel.ArgumentList, error) {
	instanceID, err := requireInstanceID(args)
	if err != nil {
		return nil, err
	}
	h.setTransportState(instanceID, "STOPPED")
	return avmodel.NewArgumentList(), nil
}

func (h *AVTransportHost) handleGetTransportInfo(args *avmodel.ArgumentList) (*avmodel.ArgumentList, error) {
	instanceID, err := requireInstanceID(args)
	if err != nil {
		return nil, err
	}
	s := h.instance(instanceID)
	resp := avmodel.NewArgumentList()
	resp.Add("CurrentTransportState", s.transportState)
	resp.Add("CurrentTransportStatus", s.transportStatus)
	resp.Add("CurrentSpeed", s.speed)
	return resp, nil
}

func (h *AVTransportHost) handleGetMediaInfo(args *avmodel.ArgumentList) (*avmodel.ArgumentList, error) {
	instanceID, err := requireInstanceID(args)
	if err != nil {
		return nil, err
	}
	s := h.instance(instanceID)
	resp := avmodel.NewArgumentList()
	resp.Add("NrTracks", "1")
	resp.Add("MediaDuration", "")
	resp.Add("CurrentURI", s.currentURI)
	resp.Add("CurrentURIMetaData", s.currentURIMeta)
	resp.Add("NextURI", s.nextURI)
	resp.Add("NextURIMetaData", s.nextURIMeta)
	resp.Add("PlayMedium", "NETWORK")
	return resp, nil
}

func (h *AVTransportHost) handleGetPositionInfo(args *avmodel.ArgumentList) (*avmodel.ArgumentList, error) {
	instanceID, err := requireInstanceID(args)
	if err != nil {
		return nil, err
	}
	s := h.instance(instanceID)
	resp := avmodel.NewArgumentList()
	resp.Add("Track", "1")
	resp.Add("TrackDuration", "")
	resp.Add("TrackMetaData", s.currentURIMeta)
	resp.Add("TrackURI", s.currentURI)
	resp.Add("RelTime", "00:00:00")
	resp.Add("AbsTime", "00:00:00")
	resp.Add("RelCount", "0")
	resp.Add("AbsCount", "0")
	return resp, nil
}

func requireInstanceID(args *avmodel.ArgumentList) (uint32, error) {
	v, ok := args.Get("InstanceID")
	if !ok {
		return 0, averrors.UPnPError(718, "Invalid instance id")
	}
	id, _ := strconv.ParseUint(v, 10, 32)
	return uint32(id), nil
}

func instanceURIArgs(args *avmodel.ArgumentList, uriKey, metaKey string) (uint32, string, string, error) {
	instanceID, err := requireInstanceID(args)
	if err != nil {
		return 0, "", "", err
	}
	uri, _ := args.Get(uriKey)
	meta, _ := args.Get(metaKey)
	return instanceID, uri, meta, nil
}
