package tmpl

import (
	"testing"

	"github.com/l0p7/tmplengine/internal/reqgraph"
)

func TestResolveRequestCurrent(t *testing.T) {
	req := testRequest()
	got, err := ResolveRequest(req, RequestCurrent)
	if err != nil || got != req {
		t.Fatalf("ResolveRequest(Current) = %v, %v", got, err)
	}
}

func TestResolveRequestParentMissing(t *testing.T) {
	req := testRequest()
	if _, err := ResolveRequest(req, RequestParent); err != ErrNoContext {
		t.Fatalf("err = %v, want ErrNoContext", err)
	}
}

func TestResolveRequestParentPresent(t *testing.T) {
	parent := testRequest()
	child := reqgraph.New().WithParent(parent)
	got, err := ResolveRequest(child, RequestParent)
	if err != nil || got != parent {
		t.Fatalf("ResolveRequest(Parent) = %v, %v", got, err)
	}
}

func TestResolveListBasic(t *testing.T) {
	req := testRequest()
	list, err := ResolveList(req, RequestCurrent, ListReply)
	if err != nil {
		t.Fatalf("ResolveList: %v", err)
	}
	if list != &req.Reply {
		t.Fatal("ResolveList(Reply) did not return the request's Reply list")
	}
}

func TestResolveListProxyNoProxy(t *testing.T) {
	req := testRequest()
	if _, err := ResolveList(req, RequestProxy, ListProxyRequest); err != ErrNoContext {
		t.Fatalf("err = %v, want ErrNoContext", err)
	}
}

func TestResolveListProxyRequestReply(t *testing.T) {
	req := testRequest()
	req.Proxy = &reqgraph.ProxyRequest{Code: reqgraph.ProxyCodeAccessRequest}
	req.Proxy.Request.Append(reqgraph.Pair{Name: "User-Name", Value: "proxied"})

	list, err := ResolveList(req, RequestProxy, ListProxyRequest)
	if err != nil {
		t.Fatalf("ResolveList: %v", err)
	}
	if list != &req.Proxy.Request {
		t.Fatal("ResolveList(Proxy, ProxyRequest) did not return proxy.Request")
	}
}

func TestResolveListCoaGatedByPacketCode(t *testing.T) {
	req := testRequest()
	req.Proxy = &reqgraph.ProxyRequest{Code: reqgraph.ProxyCodeAccessRequest}

	if _, err := ResolveList(req, RequestProxy, ListCoa); err != ErrNoList {
		t.Fatalf("err = %v, want ErrNoList for a non-CoA proxy packet", err)
	}

	req.Proxy.Code = reqgraph.ProxyCodeCoARequest
	list, err := ResolveList(req, RequestProxy, ListCoa)
	if err != nil || list != &req.Proxy.Request {
		t.Fatalf("ResolveList(Proxy, Coa) = %v, %v, want proxy.Request", list, err)
	}
}

func TestResolveAllocCtxWrapsFailure(t *testing.T) {
	req := testRequest()
	if _, err := ResolveAllocCtx(req, RequestProxy, ListProxyRequest); err != ErrAllocFailed {
		t.Fatalf("err = %v, want ErrAllocFailed", err)
	}
}
