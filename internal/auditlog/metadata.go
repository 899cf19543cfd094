package auditlog

import "context"

// Resource types recorded in the audit log.
const (
	ResourceDetector = "detector"
	ResourceMapping  = "mapping"
	ResourcePlan     = "plan"
)

// Metadata describes what a command acted on. Commands attach it to their
// context; the root command reads it back when writing the entry.
type Metadata struct {
	ModelService string
	ResourceType string
	ResourceID   string
	ResourceName string

	// Record asks for an entry for this run even when the command is not
	// always audited.
	Record bool
}

type metadataKey struct{}

// WithMetadata returns a context carrying meta. Empty fields keep the values
// already attached to ctx.
func WithMetadata(ctx context.Context, meta Metadata) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	prev := MetadataFromContext(ctx)
	return context.WithValue(ctx, metadataKey{}, Metadata{
		ModelService: orElse(meta.ModelService, prev.ModelService),
		ResourceType: orElse(meta.ResourceType, prev.ResourceType),
		ResourceID:   orElse(meta.ResourceID, prev.ResourceID),
		ResourceName: orElse(meta.ResourceName, prev.ResourceName),
		Record:       meta.Record || prev.Record,
	})
}

// MetadataFromContext returns the metadata attached to ctx, if any.
func MetadataFromContext(ctx context.Context) Metadata {
	if ctx == nil {
		return Metadata{}
	}
	meta, _ := ctx.Value(metadataKey{}).(Metadata)
	return meta
}

func orElse(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
