package reporting

import (
	"context"
	"maps"
	"time"
)

type reportingMetaContextKey struct{}

type ReportingMeta struct {
	tags      map[string]string
	extras    map[string]string
	userID    string
	startedAt time.Time
}

// Return a copy of the meta stored in the context, safe to modify
func MetaFromContext(ctx context.Context) ReportingMeta {
	meta, ok := ctx.Value(reportingMetaContextKey{}).(ReportingMeta)
	if !ok {
		return ReportingMeta{
			tags:   map[string]string{},
			extras: map[string]string{},
		}
	}

	meta.tags = maps.Clone(meta.tags)
	meta.extras = maps.Clone(meta.extras)
	return meta
}

func (m ReportingMeta) withContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, reportingMetaContextKey{}, m)
}

func setStartedAtInContext(ctx context.Context, startedAt time.Time) context.Context {
	meta := MetaFromContext(ctx)
	meta.startedAt = startedAt
	return meta.withContext(ctx)
}

func AddExtrasToContext(ctx context.Context, extras map[string]string) context.Context {
	meta := MetaFromContext(ctx)
	maps.Copy(meta.extras, extras)
	return meta.withContext(ctx)
}

func AddTagsToContext(ctx context.Context, tags map[string]string) context.Context {
	meta := MetaFromContext(ctx)
	maps.Copy(meta.tags, tags)
	return meta.withContext(ctx)
}

func SetUserIDInContext(ctx context.Context, userID string) context.Context {
	meta := MetaFromContext(ctx)
	meta.userID = userID
	return meta.withContext(ctx)
}

func (m ReportingMeta) UserID() string {
	return m.userID
}
