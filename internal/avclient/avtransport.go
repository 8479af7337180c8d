package avclient

import (
	"context"
	"fmt"
	"strconv"
	"time"

	averrors "github.com/upnpgo/avengine/internal/errors"
	"github.com/upnpgo/avengine/internal/gena"
	"github.com/upnpgo/avengine/internal/httpx"
	avmodel "github.com/upnpgo/avengine/internal/model"
)

// avTransportFaults maps AVTransport's service-specific UPnP error codes
// (701-718) to their defined fault strings.
var avTransportFaults = map[int]string{
	701: "Playback transition not supported at this moment",
	702: "No content found in media item",
	703: "The media could not be read",
	704: "Storage format not supported by the device",
	705: "The device is locked",
	706: "Error when writing media",
	707: "Media is not writable",
	708: "Format is not supported for recording",
	709: "The media is full",
	710: "Seek mode is not supported",
	711: "Illegal seek target",
	712: "Play mode is not supported",
	713: "Record quality is not supported",
	714: "Unsupported MIME-type",
	715: "Resource is already being played",
	716: "Resource not found",
	717: "Play speed not supported",
	718: "Invalid instance id",
}

// AVTransportTraits supplies the AVTransport service's subscription
// timeout and fault-code table.
type AVTransportTraits struct{}

func (AVTransportTraits) Tag() avmodel.ServiceTag { return avmodel.ServiceAVTransport }

// SubscriptionTimeout matches the reference client's fixed 1801s grant
// request for AVTransport eventing.
func (AVTransportTraits) SubscriptionTimeout() time.Duration { return 1801 * time.Second }

// HandleUPnPResult translates a SOAP fault's UPnP error code into an
// averrors.UPnPError, preferring the AVTransport-specific fault text
// (701-718) over the server's own description when one is defined.
func (AVTransportTraits) HandleUPnPResult(code int, defaultMessage string) error {
	if msg, ok := avTransportFaults[code]; ok {
		return averrors.UPnPError(code, msg)
	}
	if defaultMessage != "" {
		return averrors.UPnPError(code, defaultMessage)
	}
	return averrors.UPnPError(code, fmt.Sprintf("unrecognized UPnP error code %d", code))
}

// AVTransport is the control-point-side AVTransport service client: SOAP
// action invocation plus LastChange eventing for one instance.
type AVTransport struct {
	*ServiceClient
}

// NewAVTransport builds an AVTransport client using httpClient for SOAP
// POSTs and genaClient for eventing.
func NewAVTransport(httpClient *httpx.Client, genaClient *gena.Client) *AVTransport {
	return &AVTransport{ServiceClient: NewServiceClient(AVTransportTraits{}, httpClient, genaClient)}
}

// SetAVTransportURI sets the media to be controlled on the given instance.
func (c *AVTransport) SetAVTransportURI(ctx context.Context, instanceID uint32, uri, uriMetaData string) error {
	_, err := c.ExecuteAction(ctx, "SetAVTransportURI", [][2]string{
		{"InstanceID", instanceStr(instanceID)},
		{"CurrentURI", uri},
		{"CurrentURIMetaData", uriMetaData},
	})
	return err
}

// SetNextAVTransportURI queues the next media item for gapless playback.
func (c *AVTransport) SetNextAVTransportURI(ctx context.Context, instanceID uint32, uri, uriMetaData string) error {
	_, err := c.ExecuteAction(ctx, "SetNextAVTransportURI", [][2]string{
		{"InstanceID", instanceStr(instanceID)},
		{"NextURI", uri},
		{"NextURIMetaData", uriMetaData},
	})
	return err
}

// Play starts playback at the given speed ("1" is normal speed).
func (c *AVTransport) Play(ctx context.Context, instanceID uint32, speed string) error {
	if speed == "" {
		speed = "1"
	}
	_, err := c.ExecuteAction(ctx, "Play", [][2]string{
		{"InstanceID", instanceStr(instanceID)},
		{"Speed", speed},
	})
	return err
}

// Pause pauses playback on the given instance.
func (c *AVTransport) Pause(ctx context.Context, instanceID uint32) error {
	_, err := c.ExecuteAction(ctx, "Pause", [][2]string{{"InstanceID", instanceStr(instanceID)}})
	return err
}

// Stop halts playback on the given instance.
func (c *AVTransport) Stop(ctx context.Context, instanceID uint32) error {
	_, err := c.ExecuteAction(ctx, "Stop", [][2]string{{"InstanceID", instanceStr(instanceID)}})
	return err
}

// Next advances to the next track, if the current media supports it.
func (c *AVTransport) Next(ctx context.Context, instanceID uint32) error {
	_, err := c.ExecuteAction(ctx, "Next", [][2]string{{"InstanceID", instanceStr(instanceID)}})
	return err
}

// Previous returns to the previous track, if the current media supports it.
func (c *AVTransport) Previous(ctx context.Context, instanceID uint32) error {
	_, err := c.ExecuteAction(ctx, "Previous", [][2]string{{"InstanceID", instanceStr(instanceID)}})
	return err
}

// SeekMode identifies the unit Target is expressed in for Seek.
type SeekMode string

const (
	SeekTrackNr    SeekMode = "TRACK_NR"
	SeekAbsTime    SeekMode = "ABS_TIME"
	SeekRelTime    SeekMode = "REL_TIME"
	SeekAbsCount   SeekMode = "ABS_COUNT"
	SeekRelCount   SeekMode = "REL_COUNT"
	SeekChannelFreq SeekMode = "CHANNEL_FREQ"
)

// Seek moves playback position to target, interpreted per mode.
func (c *AVTransport) Seek(ctx context.Context, instanceID uint32, mode SeekMode, target string) error {
	_, err := c.ExecuteAction(ctx, "Seek", [][2]string{
		{"InstanceID", instanceStr(instanceID)},
		{"Unit", string(mode)},
		{"Target", target},
	})
	return err
}

// PositionInfo is the parsed GetPositionInfo response.
type PositionInfo struct {
	Track         uint32
	TrackDuration string
	TrackMetaData string
	TrackURI      string
	RelativeTime  string
	AbsoluteTime  string
	RelativeCount int32
	AbsoluteCount int32
}

// GetPositionInfo queries the current playback position.
func (c *AVTransport) GetPositionInfo(ctx context.Context, instanceID uint32) (PositionInfo, error) {
	args, err := c.ExecuteAction(ctx, "GetPositionInfo", [][2]string{{"InstanceID", instanceStr(instanceID)}})
	if err != nil {
		return PositionInfo{}, err
	}
	track, _ := args.Get("Track")
	relCount, _ := args.Get("RelCount")
	absCount, _ := args.Get("AbsCount")
	trackDuration, _ := args.Get("TrackDuration")
	trackMetaData, _ := args.Get("TrackMetaData")
	trackURI, _ := args.Get("TrackURI")
	relTime, _ := args.Get("RelTime")
	absTime, _ := args.Get("AbsTime")
	return PositionInfo{
		Track:         parseUint32(track),
		TrackDuration: trackDuration,
		TrackMetaData: trackMetaData,
		TrackURI:      trackURI,
		RelativeTime:  relTime,
		AbsoluteTime:  absTime,
		RelativeCount: parseInt32(relCount),
		AbsoluteCount: parseInt32(absCount),
	}, nil
}

// TransportInfo is the parsed GetTransportInfo response.
type TransportInfo struct {
	CurrentTransportState  string
	CurrentTransportStatus string
	CurrentSpeed           string
}

// GetTransportInfo queries the transport's current state, status, and speed.
func (c *AVTransport) GetTransportInfo(ctx context.Context, instanceID uint32) (TransportInfo, error) {
	args, err := c.ExecuteAction(ctx, "GetTransportInfo", [][2]string{{"InstanceID", instanceStr(instanceID)}})
	if err != nil {
		return TransportInfo{}, err
	}
	state, _ := args.Get("CurrentTransportState")
	status, _ := args.Get("CurrentTransportStatus")
	speed, _ := args.Get("CurrentSpeed")
	return TransportInfo{CurrentTransportState: state, CurrentTransportStatus: status, CurrentSpeed: speed}, nil
}

// MediaInfo is the parsed GetMediaInfo response.
type MediaInfo struct {
	NumberOfTracks      uint32
	MediaDuration       string
	CurrentURI          string
	CurrentURIMetaData  string
	NextURI             string
	NextURIMetaData     string
	PlayMedium          string
}

// GetMediaInfo queries metadata about the currently loaded media.
func (c *AVTransport) GetMediaInfo(ctx context.Context, instanceID uint32) (MediaInfo, error) {
	args, err := c.ExecuteAction(ctx, "GetMediaInfo", [][2]string{{"InstanceID", instanceStr(instanceID)}})
	if err != nil {
		return MediaInfo{}, err
	}
	tracks, _ := args.Get("NrTracks")
	duration, _ := args.Get("MediaDuration")
	curURI, _ := args.Get("CurrentURI")
	curMeta, _ := args.Get("CurrentURIMetaData")
	nextURI, _ := args.Get("NextURI")
	nextMeta, _ := args.Get("NextURIMetaData")
	medium, _ := args.Get("PlayMedium")
	return MediaInfo{
		NumberOfTracks:     parseUint32(tracks),
		MediaDuration:      duration,
		CurrentURI:         curURI,
		CurrentURIMetaData: curMeta,
		NextURI:            nextURI,
		NextURIMetaData:    nextMeta,
		PlayMedium:         medium,
	}, nil
}

func instanceStr(instanceID uint32) string {
	return strconv.FormatUint(uint64(instanceID), 10)
}

func parseUint32(s string) uint32 {
	v, _ := strconv.ParseUint(s, 10, 32)
	return uint32(v)
}

func parseInt32(s string) int32 {
	v, _ := strconv.ParseInt(s, 10, 32)
	return int32(v)
}
