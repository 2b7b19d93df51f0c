package telemetry

import (
	"context"
	"log/slog"
)

// RequestInfo identifies the request a log line belongs to. The request ID
// is set when the request enters the server; the user and tenant are filled
// in once authentication has run, so the struct is shared by pointer.
type RequestInfo struct {
	ID       string
	UserID   string
	TenantID string
}

type requestInfoKey struct{}

// WithRequestInfo returns a copy of ctx carrying info.
func WithRequestInfo(ctx context.Context, info *RequestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, info)
}

// RequestInfoFrom returns the request info in ctx, or nil.
func RequestInfoFrom(ctx context.Context) *RequestInfo {
	info, _ := ctx.Value(requestInfoKey{}).(*RequestInfo)
	return info
}

// contextHandler adds request attributes to records logged with a context.
type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if info := RequestInfoFrom(ctx); info != nil {
		if info.ID != "" {
			r.AddAttrs(slog.String("request_id", info.ID))
		}
		if info.UserID != "" {
			r.AddAttrs(slog.String("user_id", info.UserID))
		}
		if info.TenantID != "" {
			r.AddAttrs(slog.String("tenant_id", info.TenantID))
		}
	}
	return h.Handler.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{h.Handler.WithGroup(name)}
}
