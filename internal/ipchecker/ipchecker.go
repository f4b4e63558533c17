// Package ipchecker gates handlers that must only be reachable from a
// trusted network. The client address is taken from the X-Real-IP header
// set by the fronting proxy and matched against a configured CIDR.
package ipchecker

import (
	"fmt"
	"net"
	"net/http"
)

// IPChecker holds the trusted subnet. A nil subnet means no network is
// trusted and every request is rejected.
type IPChecker struct {
	trustedSubnet *net.IPNet
}

// New parses the trusted subnet in CIDR notation. An empty value is
// allowed and produces a checker that trusts nothing.
func New(trustedSubnetCIDR string) (*IPChecker, error) {
	if trustedSubnetCIDR == "" {
		return &IPChecker{}, nil
	}

	_, subnet, err := net.ParseCIDR(trustedSubnetCIDR)
	if err != nil {
		return nil, fmt.Errorf("in internal/ipchecker/New(): error while `net.ParseCIDR()` calling: %w", err)
	}

	return &IPChecker{trustedSubnet: subnet}, nil
}

// IsTrustedRequest reports whether the request's X-Real-IP header names
// an address inside the trusted subnet.
func (c *IPChecker) IsTrustedRequest(request *http.Request) bool {
	if c.trustedSubnet == nil {
		return false
	}

	clientIP := net.ParseIP(request.Header.Get("X-Real-IP"))
	if clientIP == nil {
		return false
	}

	return c.trustedSubnet.Contains(clientIP)
}

// RequireTrusted is the middleware form of the check: requests from
// outside the trusted subnet get 403 and never reach the handler.
func (c *IPChecker) RequireTrusted(h http.Handler) http.Handler {
	return http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
		if !c.IsTrustedRequest(request) {
			http.Error(response, "access is allowed from the trusted subnet only", http.StatusForbidden)
			return
		}

		h.ServeHTTP(response, request)
	})
}
