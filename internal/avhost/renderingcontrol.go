package avhost

import (
	"strconv"

	averrors "github.com/upnpgo/avengine/internal/errors"
	"github.com/upnpgo/avengine/internal/gena"
	avmodel "github.com/upnpgo/avengine/internal/model"
)

type channelState struct {
	volume uint16
	mute   bool
}

// RenderingControlHost is the device-host-side RenderingControl service:
// per-instance, per-channel volume and mute state.
type RenderingControlHost struct {
	*ServiceHost
	channels map[uint32]map[string]*channelState
}

// NewRenderingControlHost builds a RenderingControlHost.
func NewRenderingControlHost(genaHost *gena.Host) *RenderingControlHost {
	h := &RenderingControlHost{
		ServiceHost: NewServiceHost(avmodel.ServiceType{Tag: avmodel.ServiceRenderingControl, Version: 1}, genaHost),
		channels:    make(map[uint32]map[string]*channelState),
	}
	h.RegisterAction("SetVolume", h.handleSetVolume)
	h.RegisterAction("GetVolume", h.handleGetVolume)
	h.RegisterAction("SetMute", h.handleSetMute)
	h.RegisterAction("GetMute", h.handleGetMute)
	return h
}

func (h *RenderingControlHost) channel(instanceID uint32, name string) *channelState {
	if h.channels[instanceID] == nil {
		h.channels[instanceID] = make(map[string]*channelState)
	}
	ch, ok := h.channels[instanceID][name]
	if !ok {
		ch = &channelState{volume: 50}
		h.channels[instanceID][name] = ch
	}
	return ch
}

func (h *RenderingControlHost) handleSetVolume(args *avmodel.ArgumentList) (*avmodel.ArgumentList, error) {
	instanceID, channel, err := requireInstanceAndChannel(args)
	if err != nil {
		return nil, err
	}
	desired, ok := args.Get("DesiredVolume")
	if !ok {
		return nil, averrors.UPnPError(402, "Invalid Args")
	}
	v, _ := strconv.ParseUint(desired, 10, 16)
	ch := h.channel(instanceID, channel)
	ch.volume = uint16(v)
	h.SetInstanceVariable(instanceID, avmodel.NewServiceVariable("Volume_"+channel, desired))
	return avmodel.NewArgumentList(), nil
}

func (h *RenderingControlHost) handleGetVolume(args *avmodel.ArgumentList) (*avmodel.ArgumentList, error) {
	instanceID, channel, err := requireInstanceAndChannel(args)
	if err != nil {
		return nil, err
	}
	ch := h.channel(instanceID, channel)
	resp := avmodel.NewArgumentList()
	resp.Add("CurrentVolume", strconv.FormatUint(uint64(ch.volume), 10))
	return resp, nil
}

func (h *RenderingControlHost) handleSetMute(args *avmodel.ArgumentList) (*avmodel.ArgumentList, error) {
	instanceID, channel, err := requireInstanceAndChannel(args)
	if err != nil {
		return nil, err
	}
	desired, ok := args.Get("DesiredMute")
	if !ok {
		return nil, averrors.UPnPError(402, "Invalid Args")
	}
	mute := desired == "1" || desired == "true"
	ch := h.channel(instanceID, channel)
	ch.mute = mute
	h.SetInstanceVariable(instanceID, avmodel.NewServiceVariable("Mute_"+channel, desired))
	return avmodel.NewArgumentList(), nil
}

func (h *RenderingControlHost) handleGetMute(args *avmodel.ArgumentList) (*avmodel.ArgumentList, error) {
	instanceID, channel, err := requireInstanceAndChannel(args)
	if err != nil {
		return nil, err
	}
	ch := h.channel(instanceID, channel)
	resp := avmodel.NewArgumentList()
	if ch.mute {
		resp.Add("CurrentMute", "1")
	} else {
		resp.Add("CurrentMute", "0")
	}
	return resp, nil
}

func requireInstanceAndChannel(args *avmodel.ArgumentList) (uint32, string, error) {
	instanceID, err := requireInstanceID(args)
	if err != nil {
		return 0, "", err
	}
	channel, ok := args.Get("Channel")
	if !ok || channel == "" {
		channel = "Master"
	}
	return instanceID, channel, nil
}
