package tmpl

import "github.com/l0p7/tmplengine/internal/reqgraph"

// ResolveRequest implements the Request-qualifier half of the C5
// list/request resolver (spec.md §5): it walks the request graph from req
// along the given qualifier and returns the request node that owns the
// target list. RequestProxy is not resolvable to a *reqgraph.Request (the
// proxy sub-request has no Parent/Outer/Proxy/State of its own) — callers
// that need a proxy list must go through ResolveList, which handles the
// Proxy qualifier directly.
func ResolveRequest(req *reqgraph.Request, ref RequestRef) (*reqgraph.Request, error) {
	if req == nil {
		return nil, ErrNoContext
	}
	switch ref {
	case RequestCurrent:
		return req, nil
	case RequestParent:
		if req.Parent == nil {
			return nil, ErrNoContext
		}
		return req.Parent, nil
	case RequestOuter:
		if req.Outer == nil {
			return nil, ErrNoContext
		}
		return req.Outer, nil
	default:
		return nil, ErrNoContext
	}
}

// ResolveList implements the List-qualifier half of the C5 resolver: given
// the request/list qualifiers recorded on an attribute reference, it returns
// the concrete AttrList the cursor should iterate, or ErrNoList when the
// qualifier names a list that does not exist in this context (e.g. "coa"
// against a proxy sub-request that is not a CoA-Request).
func ResolveList(req *reqgraph.Request, requestRef RequestRef, listRef ListRef) (*reqgraph.AttrList, error) {
	if requestRef == RequestProxy {
		if req == nil || req.Proxy == nil {
			return nil, ErrNoContext
		}
		return resolveProxyList(req.Proxy, listRef)
	}

	target, err := ResolveRequest(req, requestRef)
	if err != nil {
		return nil, err
	}

	switch listRef {
	case ListRequest:
		return &target.Packet, nil
	case ListReply:
		return &target.Reply, nil
	case ListControl:
		return &target.Control, nil
	case ListState:
		return &target.State, nil
	case ListProxyRequest, ListProxyReply, ListCoa, ListCoaReply, ListDm, ListDmReply:
		return resolveProxyList(target.Proxy, listRef)
	default:
		return nil, ErrNoList
	}
}

func resolveProxyList(proxy *reqgraph.ProxyRequest, listRef ListRef) (*reqgraph.AttrList, error) {
	if proxy == nil {
		return nil, ErrNoList
	}
	switch listRef {
	case ListRequest, ListProxyRequest:
		return &proxy.Request, nil
	case ListReply, ListProxyReply:
		return &proxy.Reply, nil
	case ListCoa:
		if proxy.Code != reqgraph.ProxyCodeCoARequest {
			return nil, ErrNoList
		}
		return &proxy.Request, nil
	case ListCoaReply:
		if proxy.Code != reqgraph.ProxyCodeCoARequest {
			return nil, ErrNoList
		}
		return &proxy.Reply, nil
	case ListDm:
		if proxy.Code != reqgraph.ProxyCodeDisconnectRequest {
			return nil, ErrNoList
		}
		return &proxy.Request, nil
	case ListDmReply:
		if proxy.Code != reqgraph.ProxyCodeDisconnectRequest {
			return nil, ErrNoList
		}
		return &proxy.Reply, nil
	default:
		return nil, ErrNoList
	}
}

// ResolveAllocCtx resolves the list an assignment operator (":=", "+=")
// should append a CastToPair result to — identical rules to ResolveList,
// named separately because spec.md §5 treats allocation resolution as its
// own operation with its own failure mode (ErrAllocFailed rather than
// ErrNoList) at the call site. Neither DefineUnknown nor DefineUndefined
// touch a list themselves; both only promote a template's dict_attr in
// place, leaving the actual write into a list to whatever assignment
// operator calls CastToPair and then ResolveAllocCtx in sequence.
func ResolveAllocCtx(req *reqgraph.Request, requestRef RequestRef, listRef ListRef) (*reqgraph.AttrList, error) {
	list, err := ResolveList(req, requestRef, listRef)
	if err != nil {
		return nil, ErrAllocFailed
	}
	return list, nil
}

// ResolvePacket is a convenience wrapper returning the "request" list of the
// request reached by ref, the common case of reading the original packet's
// attributes regardless of which sub-list a template ultimately wants.
func ResolvePacket(req *reqgraph.Request, ref RequestRef) (*reqgraph.AttrList, error) {
	return ResolveList(req, ref, ListRequest)
}
