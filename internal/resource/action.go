package resource

import "github.com/watchstate/core/internal/types"

// RequestedAction is the ResourcesRequested action of spec.md §4.3: plan
// req against addons and (re)populate the matching cells.
type RequestedAction struct {
	Request AggrRequest
	Addons  []types.Descriptor
	Force   bool
}

// ResultAction is the ResourceRequestResult action: settle the cell whose
// request equals Request.
type ResultAction struct {
	Request  types.ResourceRequest
	Response types.ResourceResponse
	Err      error
}

// Apply folds either action kind into the bucket. toFetch is non-nil only
// for a RequestedAction, naming the requests the caller must still dispatch
// to a transport.
func Apply(b Bucket, action any) (next Bucket, toFetch []types.ResourceRequest) {
	switch a := action.(type) {
	case RequestedAction:
		return b.Requested(a.Addons, a.Request, a.Force)
	case ResultAction:
		return b.Settled(a.Request, a.Response, a.Err), nil
	default:
		return b, nil
	}
}
