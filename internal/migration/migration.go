// Package migration runs the forward-only storage schema migration a shell
// executes once at boot, before ctxcore.Init reads anything back out
// (spec.md §4.10). It is grounded on the teacher's
// internal/config/migrate.go (steps keyed by version, refusing an
// unsupported jump) and internal/config/deprecations.go (key rename/add
// steps over a loosely-typed document), generalised from a config-reload
// check to a storage-backed step table that a shell runs before Ctx boot
// continues.
package migration

import (
	"context"
	"fmt"

	"github.com/watchstate/core/internal/ctxcore"
	"github.com/watchstate/core/internal/env"
)

// CurrentVersion is the schema version a freshly migrated store ends up
// at. types.DefaultSettings documents the shape this version settles on.
const CurrentVersion = 7

// step applies one version bump. Steps see the profile document as a raw
// map rather than types.Profile, since earlier versions may carry keys (or
// key spellings) the current types package no longer knows about.
type step struct {
	from, to int
	apply    func(ctx context.Context, s env.Storage) error
}

var steps = []step{
	{0, 1, step0to1},
	{1, 2, step1to2},
	{2, 3, step2to3},
	{3, 4, step3to4},
	{4, 5, step4to5},
	{5, 6, step5to6},
	{6, 7, step6to7},
}

// Run walks every step strictly greater than the stored version, writing
// the new version marker immediately after each step succeeds so an
// interrupted migration resumes exactly where it left off rather than
// re-running already-applied steps (spec.md §4.10 "crash-resumable").
//
// A stored version above CurrentVersion means this binary is older than
// whatever last wrote the store; that is fatal rather than silently
// ignored, since running against a newer schema risks corrupting fields
// this version doesn't understand.
func Run(ctx context.Context, s env.Storage) error {
	version := 0
	if _, err := s.GetStorage(ctx, ctxcore.KeySchemaVersion, &version); err != nil {
		return env.SchemaUpgradeErr(fmt.Errorf("read schema version: %w", err))
	}

	if version > CurrentVersion {
		return env.SchemaDowngradeErr(version, CurrentVersion)
	}

	for _, st := range steps {
		if st.from < version {
			continue
		}
		if err := st.apply(ctx, s); err != nil {
			return env.SchemaUpgradeErr(fmt.Errorf("step %d -> %d: %w", st.from, st.to, err))
		}
		if err := s.SetStorage(ctx, ctxcore.KeySchemaVersion, st.to); err != nil {
			return env.SchemaUpgradeErr(fmt.Errorf("persist version %d: %w", st.to, err))
		}
		version = st.to
	}
	return nil
}

// loadProfile reads the profile document as an untyped map, returning
// (nil, false, nil) when no profile has ever been written yet — most
// settings steps are then a no-op, since DefaultSettings already produces
// the version-7 shape for a profile created fresh.
func loadProfile(ctx context.Context, s env.Storage) (map[string]any, bool, error) {
	var doc map[string]any
	found, err := s.GetStorage(ctx, ctxcore.KeyProfile, &doc)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	return doc, true, nil
}

func saveProfile(ctx context.Context, s env.Storage, doc map[string]any) error {
	return s.SetStorage(ctx, ctxcore.KeyProfile, doc)
}

// settingsOf returns the profile's "settings" sub-document, creating an
// empty one in place if absent.
func settingsOf(doc map[string]any) map[string]any {
	raw, ok := doc["settings"]
	if !ok {
		settings := map[string]any{}
		doc["settings"] = settings
		return settings
	}
	settings, ok := raw.(map[string]any)
	if !ok {
		settings = map[string]any{}
		doc["settings"] = settings
	}
	return settings
}

// step0to1 nukes the profile and library buckets outright: the session
// they describe predates a key shape this client no longer parses, so the
// client starts over as an anonymous profile with an empty library rather
// than carry forward data it cannot safely interpret.
func step0to1(ctx context.Context, s env.Storage) error {
	for _, key := range []string{ctxcore.KeyProfile, ctxcore.KeyLibrary, ctxcore.KeyLibraryRecent} {
		if err := s.SetStorage(ctx, key, nil); err != nil {
			return err
		}
	}
	return nil
}

// legacySettingsRenames maps the snake_case settings keys a version-1
// profile was written with to the camelCase names every later version
// uses.
var legacySettingsRenames = map[string]string{
	"interface_language":   "interfaceLanguage",
	"streaming_server_url": "streamingServerUrl",
}

func step1to2(ctx context.Context, s env.Storage) error {
	doc, found, err := loadProfile(ctx, s)
	if err != nil || !found {
		return err
	}
	settings := settingsOf(doc)
	for oldKey, newKey := range legacySettingsRenames {
		if v, ok := settings[oldKey]; ok {
			settings[newKey] = v
			delete(settings, oldKey)
		}
	}
	return saveProfile(ctx, s, doc)
}

func addIfMissing(settings map[string]any, key string, value any) {
	if _, ok := settings[key]; !ok {
		settings[key] = value
	}
}

func step2to3(ctx context.Context, s env.Storage) error {
	doc, found, err := loadProfile(ctx, s)
	if err != nil || !found {
		return err
	}
	addIfMissing(settingsOf(doc), "streamingServerWarningDismissed", nil)
	return saveProfile(ctx, s, doc)
}

func step3to4(ctx context.Context, s env.Storage) error {
	doc, found, err := loadProfile(ctx, s)
	if err != nil || !found {
		return err
	}
	addIfMissing(settingsOf(doc), "seekTimeDuration", 20000)
	return saveProfile(ctx, s, doc)
}

func step4to5(ctx context.Context, s env.Storage) error {
	doc, found, err := loadProfile(ctx, s)
	if err != nil || !found {
		return err
	}
	settings := settingsOf(doc)
	addIfMissing(settings, "audioLanguage", "eng")
	addIfMissing(settings, "audioPassthrough", false)
	return saveProfile(ctx, s, doc)
}

// step5to6 folds the old boolean playInExternalPlayer switch into the
// playerType enum every later version reads, and seeds the two settings
// introduced alongside it.
func step5to6(ctx context.Context, s env.Storage) error {
	doc, found, err := loadProfile(ctx, s)
	if err != nil || !found {
		return err
	}
	settings := settingsOf(doc)
	if v, ok := settings["playInExternalPlayer"]; ok {
		if external, _ := v.(bool); external {
			settings["playerType"] = "external"
		} else {
			settings["playerType"] = nil
		}
		delete(settings, "playInExternalPlayer")
	}
	addIfMissing(settings, "autoFrameRateMatching", false)
	addIfMissing(settings, "nextVideoNotificationDuration", 35000)
	return saveProfile(ctx, s, doc)
}

// step6to7 replaces the boolean autoFrameRateMatching toggle with the
// three-way frameRateMatchingStrategy enum (types.FrameRateMatchingStrategy):
// every profile lands on the conservative "FrameRateOnly" default regardless
// of its prior boolean value.
func step6to7(ctx context.Context, s env.Storage) error {
	doc, found, err := loadProfile(ctx, s)
	if err != nil || !found {
		return err
	}
	settings := settingsOf(doc)
	delete(settings, "autoFrameRateMatching")
	settings["frameRateMatchingStrategy"] = "FrameRateOnly"
	return saveProfile(ctx, s, doc)
}
