package avclient

import (
	"context"
	"time"

	averrors "github.com/upnpgo/avengine/internal/errors"
	"github.com/upnpgo/avengine/internal/gena"
	"github.com/upnpgo/avengine/internal/httpx"
	avmodel "github.com/upnpgo/avengine/internal/model"
)

// ContentDirectoryTraits supplies the ContentDirectory service's
// subscription timeout and fault handling.
type ContentDirectoryTraits struct{}

func (ContentDirectoryTraits) Tag() avmodel.ServiceTag { return avmodel.ServiceContentDirectory }

func (ContentDirectoryTraits) SubscriptionTimeout() time.Duration { return 1801 * time.Second }

func (ContentDirectoryTraits) HandleUPnPResult(code int, defaultMessage string) error {
	return averrors.UPnPError(code, defaultMessage)
}

// ContentDirectory is the control-point-side ContentDirectory service
// client: object browse/search against a media server's content tree.
type ContentDirectory struct {
	*ServiceClient
}

// NewContentDirectory builds a ContentDirectory client.
func NewContentDirectory(httpClient *httpx.Client, genaClient *gena.Client) *ContentDirectory {
	return &ContentDirectory{ServiceClient: NewServiceClient(ContentDirectoryTraits{}, httpClient, genaClient)}
}

// BrowseResult is the parsed Browse response: a DIDL-Lite result fragment
// plus the paging counters needed to request further pages.
type BrowseResult struct {
	Result         string
	NumberReturned uint32
	TotalMatches   uint32
	UpdateID       uint32
}

// Browse lists or retrieves metadata for objectID, per the BrowseFlag
// ("BrowseDirectChildren" or "BrowseMetadata") and paging parameters.
func (c *ContentDirectory) Browse(ctx context.Context, objectID, browseFlag, filter string, startingIndex, requestedCount uint32, sortCriteria string) (BrowseResult, error) {
	args, err := c.ExecuteAction(ctx, "Browse", [][2]string{
		{"ObjectID", objectID},
		{"BrowseFlag", browseFlag},
		{"Filter", filter},
		{"StartingIndex", instanceStr(startingIndex)},
		{"RequestedCount", instanceStr(requestedCount)},
		{"SortCriteria", sortCriteria},
	})
	if err != nil {
		return BrowseResult{}, err
	}
	result, _ := args.Get("Result")
	numReturned, _ := args.Get("NumberReturned")
	totalMatches, _ := args.Get("TotalMatches")
	updateID, _ := args.Get("UpdateID")
	return BrowseResult{
		Result:         result,
		NumberReturned: parseUint32(numReturned),
		TotalMatches:   parseUint32(totalMatches),
		UpdateID:       parseUint32(updateID),
	}, nil
}

// Search queries containerID's subtree using a ContentDirectory search
// expression, returning the same paging shape as Browse.
func (c *ContentDirectory) Search(ctx context.Context, containerID, searchCriteria, filter string, startingIndex, requestedCount uint32, sortCriteria string) (BrowseResult, error) {
	args, err := c.ExecuteAction(ctx, "Search", [][2]string{
		{"ContainerID", containerID},
		{"SearchCriteria", searchCriteria},
		{"Filter", filter},
		{"StartingIndex", instanceStr(startingIndex)},
		{"RequestedCount", instanceStr(requestedCount)},
		{"SortCriteria", sortCriteria},
	})
	if err != nil {
		return BrowseResult{}, err
	}
	result, _ := args.Get("Result")
	numReturned, _ := args.Get("NumberReturned")
	totalMatches, _ := args.Get("TotalMatches")
	updateID, _ := args.Get("UpdateID")
	return BrowseResult{
		Result:         result,
		NumberReturned: parseUint32(numReturned),
		TotalMatches:   parseUint32(totalMatches),
		UpdateID:       parseUint32(updateID),
	}, nil
}

// GetSearchCapabilities reports the properties that can appear in a Search
// criteria expression.
func (c *ContentDirectory) GetSearchCapabilities(ctx context.Context) (string, error) {
	args, err := c.ExecuteAction(ctx, "GetSearchCapabilities", nil)
	if err != nil {
		return "", err
	}
	caps, _ := args.Get("SearchCaps")
	return caps, nil
}
