package kit

import "context"

type contextKey string

const (
	TransportKey contextKey = "kit_transport" // "http", "mcp_quic", "mcp"
	RequestIDKey contextKey = "kit_request_id"
	DictsKey     contextKey = "kit_dicts"
)

func WithTransport(ctx context.Context, t string) context.Context {
	return context.WithValue(ctx, TransportKey, t)
}
func GetTransport(ctx context.Context) string {
	if v, ok := ctx.Value(TransportKey).(string); ok {
		return v
	}
	return "http"
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}
func GetRequestID(ctx context.Context) string {
	v, _ := ctx.Value(RequestIDKey).(string)
	return v
}

// WithDicts records the dictionary filter a request asked for, for logging.
func WithDicts(ctx context.Context, dicts []string) context.Context {
	return context.WithValue(ctx, DictsKey, dicts)
}
func GetDicts(ctx context.Context) []string {
	v, _ := ctx.Value(DictsKey).([]string)
	return v
}
