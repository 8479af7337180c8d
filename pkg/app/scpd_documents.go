package app

import "github.com/upnpgo/avengine/internal/scpd"

// The four SCPD documents below list exactly the actions internal/avhost's
// concrete hosts register, so a control point calling
// avclient.ServiceClient.LoadSCPD against this device sees a
// supportedActions set that matches what the control handler will actually
// accept. Their argument lists are partial: several handlers return
// out-arguments (e.g. GetMediaInfo's NrTracks, Browse's NumberReturned)
// that the documents do not list.

func avTransportSCPD() scpd.Document {
	instanceArg := scpd.ArgumentDescriptor{Name: "InstanceID", Direction: scpd.DirectionIn, RelatedStateVariable: "A_ARG_TYPE_InstanceID"}
	return scpd.Document{
		Actions: []scpd.ActionDescriptor{
			{Name: "SetAVTransportURI", Arguments: []scpd.ArgumentDescriptor{
				instanceArg,
				{Name: "CurrentURI", Direction: scpd.DirectionIn, RelatedStateVariable: "AVTransportURI"},
				{Name: "CurrentURIMetaData", Direction: scpd.DirectionIn, RelatedStateVariable: "AVTransportURIMetaData"},
			}},
			{Name: "SetNextAVTransportURI", Arguments: []scpd.ArgumentDescriptor{
				instanceArg,
				{Name: "NextURI", Direction: scpd.DirectionIn, RelatedStateVariable: "NextAVTransportURI"},
				{Name: "NextURIMetaData", Direction: scpd.DirectionIn, RelatedStateVariable: "NextAVTransportURIMetaData"},
			}},
			{Name: "Play", Arguments: []scpd.ArgumentDescriptor{
				instanceArg,
				{Name: "Speed", Direction: scpd.DirectionIn, RelatedStateVariable: "TransportPlaySpeed"},
			}},
			{Name: "Pause", Arguments: []scpd.ArgumentDescriptor{instanceArg}},
			{Name: "Stop", Arguments: []scpd.ArgumentDescriptor{instanceArg}},
			{Name: "GetTransportInfo", Arguments: []scpd.ArgumentDescriptor{
				instanceArg,
				{Name: "CurrentTransportState", Direction: scpd.DirectionOut, RelatedStateVariable: "TransportState"},
				{Name: "CurrentTransportStatus", Direction: scpd.DirectionOut, RelatedStateVariable: "TransportStatus"},
				{Name: "CurrentSpeed", Direction: scpd.DirectionOut, RelatedStateVariable: "TransportPlaySpeed"},
			}},
			{Name: "GetMediaInfo", Arguments: []scpd.ArgumentDescriptor{
				instanceArg,
				{Name: "CurrentURI", Direction: scpd.DirectionOut, RelatedStateVariable: "AVTransportURI"},
			}},
			{Name: "GetPositionInfo", Arguments: []scpd.ArgumentDescriptor{
				instanceArg,
				{Name: "TrackURI", Direction: scpd.DirectionOut, RelatedStateVariable: "CurrentTrackURI"},
				{Name: "RelTime", Direction: scpd.DirectionOut, RelatedStateVariable: "RelativeTimePosition"},
			}},
		},
		Variables: []scpd.StateVariableDescriptor{
			{Name: "LastChange", DataType: "string", SendEvents: true},
			{Name: "TransportState", DataType: "string", SendEvents: false, AllowedVals: []string{"STOPPED", "PLAYING", "PAUSED_PLAYBACK", "TRANSITIONING", "NO_MEDIA_PRESENT"}},
			{Name: "TransportStatus", DataType: "string", SendEvents: false},
			{Name: "TransportPlaySpeed", DataType: "string", SendEvents: false},
			{Name: "AVTransportURI", DataType: "string", SendEvents: false},
			{Name: "AVTransportURIMetaData", DataType: "string", SendEvents: false},
			{Name: "NextAVTransportURI", DataType: "string", SendEvents: false},
			{Name: "NextAVTransportURIMetaData", DataType: "string", SendEvents: false},
			{Name: "CurrentTrackURI", DataType: "string", SendEvents: false},
			{Name: "RelativeTimePosition", DataType: "string", SendEvents: false},
			{Name: "A_ARG_TYPE_InstanceID", DataType: "ui4", SendEvents: false},
		},
	}
}

func renderingControlSCPD() scpd.Document {
	instanceArg := scpd.ArgumentDescriptor{Name: "InstanceID", Direction: scpd.DirectionIn, RelatedStateVariable: "A_ARG_TYPE_InstanceID"}
	channelArg := scpd.ArgumentDescriptor{Name: "Channel", Direction: scpd.DirectionIn, RelatedStateVariable: "A_ARG_TYPE_Channel"}
	return scpd.Document{
		Actions: []scpd.ActionDescriptor{
			{Name: "SetVolume", Arguments: []scpd.ArgumentDescriptor{
				instanceArg, channelArg,
				{Name: "DesiredVolume", Direction: scpd.DirectionIn, RelatedStateVariable: "Volume"},
			}},
			{Name: "GetVolume", Arguments: []scpd.ArgumentDescriptor{
				instanceArg, channelArg,
				{Name: "CurrentVolume", Direction: scpd.DirectionOut, RelatedStateVariable: "Volume"},
			}},
			{Name: "SetMute", Arguments: []scpd.ArgumentDescriptor{
				instanceArg, channelArg,
				{Name: "DesiredMute", Direction: scpd.DirectionIn, RelatedStateVariable: "Mute"},
			}},
			{Name: "GetMute", Arguments: []scpd.ArgumentDescriptor{
				instanceArg, channelArg,
				{Name: "CurrentMute", Direction: scpd.DirectionOut, RelatedStateVariable: "Mute"},
			}},
		},
		Variables: []scpd.StateVariableDescriptor{
			{Name: "LastChange", DataType: "string", SendEvents: true},
			{Name: "Volume", DataType: "ui2", SendEvents: false},
			{Name: "Mute", DataType: "boolean", SendEvents: false},
			{Name: "A_ARG_TYPE_InstanceID", DataType: "ui4", SendEvents: false},
			{Name: "A_ARG_TYPE_Channel", DataType: "string", SendEvents: false},
		},
	}
}

func connectionManagerSCPD() scpd.Document {
	return scpd.Document{
		Actions: []scpd.ActionDescriptor{
			{Name: "GetProtocolInfo", Arguments: []scpd.ArgumentDescriptor{
				{Name: "Source", Direction: scpd.DirectionOut, RelatedStateVariable: "SourceProtocolInfo"},
				{Name: "Sink", Direction: scpd.DirectionOut, RelatedStateVariable: "SinkProtocolInfo"},
			}},
			{Name: "GetCurrentConnectionIDs", Arguments: []scpd.ArgumentDescriptor{
				{Name: "ConnectionIDs", Direction: scpd.DirectionOut, RelatedStateVariable: "CurrentConnectionIDs"},
			}},
			{Name: "GetCurrentConnectionInfo", Arguments: []scpd.ArgumentDescriptor{
				{Name: "ConnectionID", Direction: scpd.DirectionIn, RelatedStateVariable: "A_ARG_TYPE_ConnectionID"},
				{Name: "Status", Direction: scpd.DirectionOut, RelatedStateVariable: "A_ARG_TYPE_ConnectionStatus"},
			}},
		},
		Variables: []scpd.StateVariableDescriptor{
			{Name: "SourceProtocolInfo", DataType: "string", SendEvents: true},
			{Name: "SinkProtocolInfo", DataType: "string", SendEvents: true},
			{Name: "CurrentConnectionIDs", DataType: "string", SendEvents: true},
			{Name: "A_ARG_TYPE_ConnectionID", DataType: "i4", SendEvents: false},
			{Name: "A_ARG_TYPE_ConnectionStatus", DataType: "string", SendEvents: false},
		},
	}
}

func contentDirectorySCPD() scpd.Document {
	return scpd.Document{
		Actions: []scpd.ActionDescriptor{
			{Name: "Browse", Arguments: []scpd.ArgumentDescriptor{
				{Name: "ObjectID", Direction: scpd.DirectionIn, RelatedStateVariable: "A_ARG_TYPE_ObjectID"},
				{Name: "BrowseFlag", Direction: scpd.DirectionIn, RelatedStateVariable: "A_ARG_TYPE_BrowseFlag"},
				{Name: "Result", Direction: scpd.DirectionOut, RelatedStateVariable: "A_ARG_TYPE_Result"},
				{Name: "UpdateID", Direction: scpd.DirectionOut, RelatedStateVariable: "A_ARG_TYPE_UpdateID"},
			}},
			{Name: "Search", Arguments: []scpd.ArgumentDescriptor{
				{Name: "ContainerID", Direction: scpd.DirectionIn, RelatedStateVariable: "A_ARG_TYPE_ObjectID"},
				{Name: "SearchCriteria", Direction: scpd.DirectionIn, RelatedStateVariable: "A_ARG_TYPE_SearchCriteria"},
				{Name: "Result", Direction: scpd.DirectionOut, RelatedStateVariable: "A_ARG_TYPE_Result"},
			}},
			{Name: "GetSearchCapabilities", Arguments: []scpd.ArgumentDescriptor{
				{Name: "SearchCaps", Direction: scpd.DirectionOut, RelatedStateVariable: "SearchCapabilities"},
			}},
		},
		Variables: []scpd.StateVariableDescriptor{
			{Name: "SystemUpdateID", DataType: "ui4", SendEvents: true},
			{Name: "SearchCapabilities", DataType: "string", SendEvents: false},
			{Name: "A_ARG_TYPE_ObjectID", DataType: "string", SendEvents: false},
			{Name: "A_ARG_TYPE_BrowseFlag", DataType: "string", SendEvents: false},
			{Name: "A_ARG_TYPE_SearchCriteria", DataType: "string", SendEvents: false},
			{Name: "A_ARG_TYPE_Result", DataType: "string", SendEvents: false},
			{Name: "A_ARG_TYPE_UpdateID", DataType: "ui4", SendEvents: false},
		},
	}
}
