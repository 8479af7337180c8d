package avhost

import (
	"strconv"

	averrors "github.com/upnpgo/avengine/internal/errors"
	"github.com/upnpgo/avengine/internal/gena"
	avmodel "github.com/upnpgo/avengine/internal/model"
)

// ContentObject is one entry a ContentDirectoryHost can serve from its
// in-memory object store, either a container (IsContainer) or an item.
type ContentObject struct {
	ID           string
	ParentID     string
	Title        string
	Class        string
	IsContainer  bool
	DIDLFragment string // the rendered <container>/<item> element text
}

// ContentDirectoryHost is the device-host-side ContentDirectory service: a
// minimal in-memory object tree supporting Browse and Search. Search
// returns the container's direct children; SearchCriteria is not
// evaluated, and neither action applies StartingIndex/RequestedCount.
type ContentDirectoryHost struct {
	*ServiceHost
	objects  map[string]ContentObject
	children map[string][]string
	updateID uint32
}

// NewContentDirectoryHost builds an empty ContentDirectoryHost rooted at
// object "0", the conventional ContentDirectory root container ID.
func NewContentDirectoryHost(genaHost *gena.Host) *ContentDirectoryHost {
	h := &ContentDirectoryHost{
		ServiceHost: NewServiceHost(avmodel.ServiceType{Tag: avmodel.ServiceContentDirectory, Version: 1}, genaHost),
		objects:     make(map[string]ContentObject),
		children:    make(map[string][]string),
	}
	h.objects["0"] = ContentObject{ID: "0", Title: "root", IsContainer: true}
	h.RegisterAction("Browse", h.handleBrowse)
	h.RegisterAction("Search", h.handleSearch)
	h.RegisterAction("GetSearchCapabilities", h.handleGetSearchCapabilities)
	return h
}

// AddObject inserts obj under its ParentID and bumps SystemUpdateID.
func (h *ContentDirectoryHost) AddObject(obj ContentObject) {
	h.objects[obj.ID] = obj
	h.children[obj.ParentID] = append(h.children[obj.ParentID], obj.ID)
	h.updateID++
	h.SetVariable("SystemUpdateID", strconv.FormatUint(uint64(h.updateID), 10))
}

func (h *ContentDirectoryHost) handleBrowse(args *avmodel.ArgumentList) (*avmodel.ArgumentList, error) {
	objectID, _ := args.Get("ObjectID")
	if objectID == "" {
		objectID = "0"
	}
	browseFlag, _ := args.Get("BrowseFlag")

	obj, ok := h.objects[objectID]
	if !ok {
		return nil, averrors.UPnPError(701, "No such object")
	}

	resp := avmodel.NewArgumentList()
	if browseFlag == "BrowseMetadata" {
		resp.Add("Result", obj.DIDLFragment)
		resp.Add("NumberReturned", "1")
		resp.Add("TotalMatches", "1")
		resp.Add("UpdateID", strconv.FormatUint(uint64(h.updateID), 10))
		return resp, nil
	}

	childIDs := h.children[objectID]
	var fragment string
	for _, id := range childIDs {
		fragment += h.objects[id].DIDLFragment
	}
	resp.Add("Result", fragment)
	resp.Add("NumberReturned", strconv.Itoa(len(childIDs)))
	resp.Add("TotalMatches", strconv.Itoa(len(childIDs)))
	resp.Add("UpdateID", strconv.FormatUint(uint64(h.updateID), 10))
	return resp, nil
}

func (h *ContentDirectoryHost) handleSearch(args *avmodel.ArgumentList) (*avmodel.ArgumentList, error) {
	containerID, _ := args.Get("ContainerID")
	if containerID == "" {
		containerID = "0"
	}
	if _, ok := h.objects[containerID]; !ok {
		return nil, averrors.UPnPError(701, "No such container")
	}

	var fragment string
	var count int
	for _, id := range h.children[containerID] {
		fragment += h.objects[id].DIDLFragment
		count++
	}

	resp := avmodel.NewArgumentList()
	resp.Add("Result", fragment)
	resp.Add("NumberReturned", strconv.Itoa(count))
	resp.Add("TotalMatches", strconv.Itoa(count))
	resp.Add("UpdateID", strconv.FormatUint(uint64(h.updateID), 10))
	return resp, nil
}

func (h *ContentDirectoryHost) handleGetSearchCapabilities(args *avmodel.ArgumentList) (*avmodel.ArgumentList, error) {
	resp := avmodel.NewArgumentList()
	resp.Add("SearchCaps", "dc:title,upnp:class")
	return resp, nil
}
