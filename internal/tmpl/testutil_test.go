package tmpl

import (
	"github.com/l0p7/tmplengine/internal/datum"
	"github.com/l0p7/tmplengine/internal/dictionary"
	"github.com/l0p7/tmplengine/internal/reqgraph"
)

func testDictionary() *dictionary.Dictionary {
	d := dictionary.New()
	must := func(def dictionary.AttrDef) {
		if err := d.Define(def); err != nil {
			panic(err)
		}
	}
	must(dictionary.AttrDef{Name: "User-Name", OID: []int{1}, Type: datum.String})
	must(dictionary.AttrDef{Name: "Framed-IP-Address", OID: []int{8}, Type: datum.IPAddr})
	must(dictionary.AttrDef{Name: "Tunnel-Password", OID: []int{69}, Type: datum.String, HasTag: true})
	must(dictionary.AttrDef{Name: "NAS-Port", OID: []int{5}, Type: datum.Integer})
	return d
}

func testRequest() *reqgraph.Request {
	req := reqgraph.New()
	req.Packet.Append(reqgraph.Pair{Name: "User-Name", Tag: -1, Value: "bob"})
	req.Packet.Append(reqgraph.Pair{Name: "Tunnel-Password", Tag: 1, Value: "secret1"})
	req.Packet.Append(reqgraph.Pair{Name: "Tunnel-Password", Tag: 2, Value: "secret2"})
	req.Reply.Append(reqgraph.Pair{Name: "Framed-IP-Address", Tag: -1, Value: "192.0.2.1"})
	req.Control.Append(reqgraph.Pair{Name: "NAS-Port", Tag: -1, Value: "1"})
	return req
}
