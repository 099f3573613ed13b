package resource

import (
	"strconv"

	"github.com/watchstate/core/internal/types"
)

// Content is the Loadable every cell tracks (spec.md §4.3).
type Content = types.Loadable[types.ResourceResponse, types.ResourceError]

// Cell is one ResourceLoadable<T>: a single in-flight or settled request.
// Content is nil until the first fetch for this request is initiated.
type Cell struct {
	Request types.ResourceRequest
	Content *Content
}

// Bucket is the ordered vector of cells backing one model's resource list.
// Pagination of the same logical request is modelled as additional cells
// appended to the vector, not as mutation of an existing cell (spec.md
// §4.3 "A catalog page uses SKIP_EXTRA_PROP...").
type Bucket []Cell

func (b Bucket) indexOf(req types.ResourceRequest) int {
	for i, c := range b {
		if c.Request.Equal(req) {
			return i
		}
	}
	return -1
}

// Requested applies a ResourcesRequested action: expand req against addons
// via Plan, and for each resulting request either reuse an existing Ready
// cell (when force is false and the request already settled) or (re)enter
// it as Loading. Returns the updated bucket and the subset of requests that
// still need to be fetched.
func (b Bucket) Requested(addons []types.Descriptor, req AggrRequest, force bool) (Bucket, []types.ResourceRequest) {
	planned := Plan(addons, req)
	out := make(Bucket, len(b))
	copy(out, b)

	var toFetch []types.ResourceRequest
	for _, preq := range planned {
		if i := out.indexOf(preq); i >= 0 {
			if !force && out[i].Content != nil && out[i].Content.IsReady() {
				continue
			}
			loading := types.Loading[types.ResourceResponse, types.ResourceError]()
			out[i].Content = &loading
			toFetch = append(toFetch, preq)
			continue
		}
		loading := types.Loading[types.ResourceResponse, types.ResourceError]()
		out = append(out, Cell{Request: preq, Content: &loading})
		toFetch = append(toFetch, preq)
	}
	return out, toFetch
}

// Settled applies a ResourceRequestResult: the pending cell matching req
// (by request equality) transitions to Ready or Err. A result with no
// matching cell is a no-op, matching the "stale replies are discarded"
// ordering rule of spec.md §5.
func (b Bucket) Settled(req types.ResourceRequest, resp types.ResourceResponse, fetchErr error) Bucket {
	i := b.indexOf(req)
	if i < 0 {
		return b
	}
	out := make(Bucket, len(b))
	copy(out, b)

	var content Content
	if fetchErr != nil {
		content = types.Err[types.ResourceResponse, types.ResourceError](types.ResourceError{
			Kind:    types.ResourceErrTransport,
			Message: fetchErr.Error(),
		})
	} else {
		content = types.Ready[types.ResourceResponse, types.ResourceError](resp)
	}
	out[i].Content = &content
	return out
}

// NextPage appends a new cell for req with SkipExtraName incremented by
// pageSize, implementing the pagination rule of spec.md §4.3.
func (b Bucket) NextPage(req types.ResourceRequest, pageSize int) (Bucket, types.ResourceRequest) {
	skip := 0
	if s, ok := req.Path.Get(types.SkipExtraName); ok {
		skip, _ = strconv.Atoi(s)
	}
	nextPath := req.Path.WithExtra(types.SkipExtraName, strconv.Itoa(skip+pageSize))
	nextReq := types.ResourceRequest{Base: req.Base, Path: nextPath}

	loading := types.Loading[types.ResourceResponse, types.ResourceError]()
	out := make(Bucket, len(b), len(b)+1)
	copy(out, b)
	out = append(out, Cell{Request: nextReq, Content: &loading})
	return out, nextReq
}
