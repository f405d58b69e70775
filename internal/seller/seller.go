package seller

import (
	"context"
	"net"
	"net/http"
	"strings"
)

type contextKey string

const sellerContextKey contextKey = "seller.id"

// Resolver resolves seller identifiers from HTTP requests using either a
// header or the request subdomain. Seller-scoped reports and payout listings
// use the resolved id to bound their criteria.
type Resolver struct {
	HeaderName string
	RootDomain string
}

// NewResolver returns a resolver for the given header name and root domain.
// An empty header name defaults to "X-Seller-ID".
func NewResolver(headerName, rootDomain string) *Resolver {
	if headerName == "" {
		headerName = "X-Seller-ID"
	}
	return &Resolver{
		HeaderName: headerName,
		RootDomain: strings.ToLower(strings.TrimSpace(rootDomain)),
	}
}

// Middleware resolves the seller from the request and injects it into the
// context passed downstream. Requests without a resolvable seller pass
// through unscoped.
func (r *Resolver) Middleware(next http.Handler) http.Handler {
	if r == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if sellerID := r.Resolve(req); sellerID != "" {
			req = req.WithContext(WithSeller(req.Context(), sellerID))
		}
		next.ServeHTTP(w, req)
	})
}

// Resolve finds the seller identifier from the configured header or the
// request subdomain.
func (r *Resolver) Resolve(req *http.Request) string {
	if r == nil || req == nil {
		return ""
	}
	if sellerID := strings.TrimSpace(req.Header.Get(r.HeaderName)); sellerID != "" {
		return sellerID
	}
	host := hostWithoutPort(req.Host)
	if host == "" {
		return ""
	}
	return strings.TrimSpace(r.subdomainFromHost(host))
}

func (r *Resolver) subdomainFromHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return ""
	}
	if r.RootDomain != "" {
		if host == r.RootDomain {
			return ""
		}
		suffix := "." + r.RootDomain
		if !strings.HasSuffix(host, suffix) {
			return ""
		}
		host = strings.TrimSuffix(host, suffix)
	}
	parts := strings.Split(host, ".")
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

func hostWithoutPort(hostport string) string {
	hostport = strings.TrimSpace(hostport)
	if hostport == "" {
		return ""
	}
	if strings.HasPrefix(hostport, "[") {
		if idx := strings.Index(hostport, "]"); idx != -1 {
			if host := hostport[1:idx]; host != "" {
				return host
			}
		}
	}
	if h, _, err := net.SplitHostPort(hostport); err == nil {
		return h
	}
	if idx := strings.Index(hostport, ":"); idx != -1 && strings.Count(hostport, ":") == 1 {
		return hostport[:idx]
	}
	return hostport
}

// WithSeller stores the seller identifier inside the context.
func WithSeller(ctx context.Context, sellerID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, sellerContextKey, sellerID)
}

// FromContext extracts the seller identifier from the context if available.
func FromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	sellerID, ok := ctx.Value(sellerContextKey).(string)
	if !ok {
		return "", false
	}
	sellerID = strings.TrimSpace(sellerID)
	if sellerID == "" {
		return "", false
	}
	return sellerID, true
}

// PrefixKey namespaces a cache or queue key per seller.
func PrefixKey(sellerID, key string) string {
	if sellerID == "" {
		return key
	}
	return sellerID + ":" + key
}
