// Package reqgraph models the live request graph that the template engine's
// list/request resolver (tmpl.ResolveRequest / tmpl.ResolveList) walks: a
// request, its parent, its outer request, and any proxy/CoA/disconnect
// sub-request, each owning a set of attribute lists.
//
// A Request is owned by exactly one worker goroutine at a time; nothing here
// synchronizes concurrent access to a single Request's lists, matching the
// engine's "one request, one worker" scheduling model.
package reqgraph

import "github.com/google/uuid"

// Pair is a single attribute instance held in a list: a dictionary-attribute
// name, an optional tag, and its typed value rendered as a string (the
// engine's cursor only needs to match and iterate pairs; value typing is
// handled by the datum package at cast time).
type Pair struct {
	Name  string
	Tag   int // -1 means untagged
	Value string
}

// AttrList is an ordered collection of pairs, matching insertion order per
// spec.md's ordering guarantee for cursor iteration.
type AttrList struct {
	Pairs []Pair
}

// Append adds a pair to the end of the list, preserving insertion order.
func (l *AttrList) Append(p Pair) {
	l.Pairs = append(l.Pairs, p)
}

// ProxyCode identifies the packet code governing whether CoA/Disconnect
// sub-lists are present on a ProxyRequest, mirroring the original engine's
// "list presence depends on packet code" precondition.
type ProxyCode int

const (
	ProxyCodeNone ProxyCode = iota
	ProxyCodeAccessRequest
	ProxyCodeCoARequest
	ProxyCodeDisconnectRequest
)

// ProxyRequest is the proxied sub-request reachable via the Proxy qualifier,
// and the carrier for CoA/Disconnect list presence.
type ProxyRequest struct {
	Code    ProxyCode
	Request AttrList
	Reply   AttrList
}

// Request is one node in the request graph. Control is always present
// (never nil) per spec.md §8's boundary property; the rest may be absent.
type Request struct {
	ID uuid.UUID

	Parent *Request
	Outer  *Request
	Proxy  *ProxyRequest

	Packet  AttrList // "request" list
	Reply   AttrList
	Control AttrList
	State   AttrList
}

// New creates a Request with a fresh correlation ID and empty lists.
func New() *Request {
	return &Request{ID: uuid.New()}
}

// WithParent attaches a parent request (used by the Parent/Outer qualifiers).
func (r *Request) WithParent(parent *Request) *Request {
	r.Parent = parent
	return r
}

// WithOuter attaches an outer request (used by the Outer qualifier when it
// differs from Parent, e.g. a tunneled EAP sub-request).
func (r *Request) WithOuter(outer *Request) *Request {
	r.Outer = outer
	return r
}

// WithProxy attaches a proxy sub-request.
func (r *Request) WithProxy(proxy *ProxyRequest) *Request {
	r.Proxy = proxy
	return r
}
