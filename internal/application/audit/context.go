package audit

import "context"

type requestInfoKey struct{}

// RequestInfo is the client metadata stamped on audit entries
type RequestInfo struct {
	IP        string
	UserAgent string
}

// WithRequestInfo stores client metadata for entries recorded during the request
func WithRequestInfo(ctx context.Context, ip, userAgent string) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, RequestInfo{IP: ip, UserAgent: userAgent})
}

// RequestInfoFrom returns the client metadata stored in ctx, if any
func RequestInfoFrom(ctx context.Context) RequestInfo {
	info, _ := ctx.Value(requestInfoKey{}).(RequestInfo)
	return info
}
