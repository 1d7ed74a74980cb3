// Package runtime holds helpers shared by the pipeline stages: context
// validation, artifact state checks, and metadata assembly.
package runtime

import (
	"fmt"
	"strings"

	"github.com/kingrea/chalkline/internal/artifact"
	"github.com/kingrea/chalkline/internal/module"
)

// MetadataOption customizes the metadata written for an artifact.
type MetadataOption func(*artifact.Metadata)

// WithInputs records the upstream artifact identifiers in metadata.
func WithInputs(refs ...artifact.ArtifactRef) MetadataOption {
	return func(meta *artifact.Metadata) {
		if len(refs) == 0 {
			return
		}
		ids := make([]string, 0, len(refs))
		for _, ref := range refs {
			if ref.ID != "" {
				ids = append(ids, ref.ID)
			}
		}
		if len(ids) > 0 {
			meta.Inputs = ids
		}
	}
}

// WithNote records an arbitrary note key/value pair.
func WithNote(key, value string) MetadataOption {
	return func(meta *artifact.Metadata) {
		if strings.TrimSpace(key) == "" || strings.TrimSpace(value) == "" {
			return
		}
		if meta.Notes == nil {
			meta.Notes = map[string]string{}
		}
		meta.Notes[key] = value
	}
}

// WithChecksum records a content fingerprint.
func WithChecksum(value string) MetadataOption {
	return func(meta *artifact.Metadata) {
		if strings.TrimSpace(value) != "" {
			meta.Checksum = value
		}
	}
}

// Metadata assembles artifact metadata for a stage, applying any options.
func Metadata(ctx *module.ModuleContext, moduleID, version string, ref artifact.ArtifactRef, opts ...MetadataOption) artifact.Metadata {
	meta := artifact.Metadata{
		ArtifactID: ref.ID,
		ModuleID:   moduleID,
		Version:    version,
	}
	if ctx != nil {
		meta.Run = ctx.RunID
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&meta)
		}
	}
	return meta
}

// ValidateContext ensures stages receive a usable context.
func ValidateContext(moduleID string, ctx *module.ModuleContext) error {
	if ctx == nil {
		return fmt.Errorf("%s: context is nil", moduleID)
	}
	if ctx.Config == nil {
		return fmt.Errorf("%s: config is required", moduleID)
	}
	if ctx.Pipeline == nil {
		return fmt.Errorf("%s: pipeline is required", moduleID)
	}
	if ctx.Artifacts == nil {
		return fmt.Errorf("%s: artifact store is required", moduleID)
	}
	return nil
}

// ArtifactReady reports whether an artifact is present and valid on disk.
// Check reports invalid artifacts with an accompanying error; here a
// corrupted artifact just means not-ready, so the state is inspected before
// the error and only StateError ends up fatal.
func ArtifactReady(ctx *module.ModuleContext, moduleID string, ref artifact.ArtifactRef) (bool, error) {
	result, err := ctx.Artifacts.Check(ref)
	switch result.State {
	case artifact.StateReady:
		return true, nil
	case artifact.StateMissing, artifact.StateInvalid:
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: check %s: %w", moduleID, ref.ID, err)
	}
	if result.Err != nil {
		return false, fmt.Errorf("%s: %s: %w", moduleID, ref.ID, result.Err)
	}
	return false, nil
}

// MissingInput returns the name of the first input artifact that is not
// READY, or "" when all inputs are satisfied.
func MissingInput(ctx *module.ModuleContext, moduleID string, refs []artifact.ArtifactRef) (string, error) {
	for _, ref := range refs {
		ready, err := ArtifactReady(ctx, moduleID, ref)
		if err != nil {
			return "", err
		}
		if !ready {
			return ref.Name, nil
		}
	}
	return "", nil
}
