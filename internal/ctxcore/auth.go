package ctxcore

import (
	"context"
	"fmt"

	"github.com/watchstate/core/internal/types"
)

// OfficialAddons is the fallback addon set installed when a freshly
// authenticated profile's addonCollectionGet call fails (spec.md §4.4).
// The host wires its real catalogue in at startup; this is only consulted
// if no override was supplied.
var OfficialAddons []types.Descriptor

type authResult struct {
	Key  string     `json:"key"`
	User types.User `json:"user"`
}

type addonCollectionResult struct {
	Addons []types.Descriptor `json:"addons"`
}

type datastoreGetResult struct {
	Items map[string]types.LibraryItem `json:"items"`
}

// Authenticate runs the three-call login sequence of spec.md §4.4:
// 1. the endpoint selected by req.Kind,
// 2. addonCollectionGet with the returned authKey,
// 3. datastoreGet(libraryItem, all=true).
//
// On any step-1 failure the context returns to Ready unchanged and the
// error is reported to the caller (CtxAuthResult's failure path). A
// step-2 failure still completes authentication, installing
// OfficialAddons with AddonsLocked=true per spec.md's explicit fallback; a
// step-3 failure still completes it too, with an empty library.
func Authenticate(ctx context.Context, api APIClient, prev Ctx, req types.AuthRequest) (Ctx, error) {
	loading := prev
	loading.Status = Loading(req)

	var auth authResult
	if err := api.Call(ctx, req.Endpoint(), "", req.Payload(), &auth); err != nil {
		prev.Status = Ready()
		return prev, fmt.Errorf("authenticate: %w", err)
	}

	profile := types.Profile{
		Auth:         &types.Auth{Key: auth.Key, User: auth.User},
		Settings:     prev.Profile.Settings,
		AddonsLocked: false,
	}
	if profile.Settings == (types.Settings{}) {
		profile.Settings = types.DefaultSettings()
	}

	var addonsResp addonCollectionResult
	if err := api.Call(ctx, "addonCollectionGet", auth.Key, nil, &addonsResp); err != nil {
		profile.Addons = OfficialAddons
		profile.AddonsLocked = true
	} else {
		profile.Addons = addonsResp.Addons
	}

	uid := auth.User.ID
	library := types.NewLibraryBucket(&uid)
	var items datastoreGetResult
	if err := api.Call(ctx, "datastoreGet", auth.Key, map[string]any{"collection": "libraryItem", "all": true}, &items); err == nil {
		library.Merge(items.Items)
	}

	next := prev
	next.Profile = profile
	next.Library = library
	next.Status = Ready()
	return next, nil
}

// Logout best-effort calls the logout endpoint (if currently authenticated)
// then resets profile and library to defaults, keeping officialAddons
// installed for the freshly anonymous session (spec.md §4.4).
func Logout(ctx context.Context, api APIClient, prev Ctx, officialAddons []types.Descriptor) Ctx {
	if prev.Profile.Auth != nil {
		_ = api.Call(ctx, "logout", prev.Profile.Auth.Key, nil, nil)
	}
	next := prev
	next.Profile = types.DefaultProfile(officialAddons)
	next.Library = types.NewLibraryBucket(nil)
	next.Status = Ready()
	return next
}
