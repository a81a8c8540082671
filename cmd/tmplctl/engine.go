package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/l0p7/tmplengine/internal/dictionary"
	"github.com/l0p7/tmplengine/internal/metrics"
	"github.com/l0p7/tmplengine/internal/reqgraph"
	"github.com/l0p7/tmplengine/internal/tmpl"
)

// engine implements server.ExpandHTTP, fronting the parse/verify/expand
// pipeline with the debug HTTP surface described in SPEC_FULL.md §16.
type engine struct {
	dict        *dictionary.Dictionary
	recorder    *metrics.Recorder
	execTimeout time.Duration
}

func (e *engine) ServeHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}

func (e *engine) ServeMetrics(w http.ResponseWriter, r *http.Request) {
	e.recorder.Handler().ServeHTTP(w, r)
}

// expandRequestBody is the wire shape POST /v1/expand accepts: one template
// in its original quoting, plus an optional request-graph fixture to expand
// against. Without a request, the response reports only the parsed
// canonical form.
type expandRequestBody struct {
	Template string            `json:"template"`
	Quote    string            `json:"quote"`
	Request  *reqgraph.Request `json:"request"`
}

type expandResponseBody struct {
	Kind      string `json:"kind"`
	Canonical string `json:"canonical"`
	Value     string `json:"value,omitempty"`
	Error     string `json:"error,omitempty"`
}

var quoteNames = map[string]tmpl.Quote{
	"bare":   tmpl.QuoteBare,
	"single": tmpl.QuoteSingle,
	"double": tmpl.QuoteDouble,
	"back":   tmpl.QuoteBack,
	"regex":  tmpl.QuoteRegex,
}

func (e *engine) ServeExpand(w http.ResponseWriter, r *http.Request) {
	var body expandRequestBody
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeExpandError(w, http.StatusBadRequest, err.Error())
		return
	}

	quote, ok := quoteNames[body.Quote]
	if body.Quote == "" {
		quote = tmpl.QuoteBare
	} else if !ok {
		writeExpandError(w, http.StatusBadRequest, "unknown quote: "+body.Quote)
		return
	}

	t, err := tmpl.FromString(e.dict, body.Template, quote, tmpl.RequestCurrent, tmpl.ListRequest, true, true)
	if err != nil {
		e.recorder.ObserveParse(quote.String(), "error")
		writeExpandError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := tmpl.Verify(t); err != nil {
		e.recorder.ObserveParse(t.Kind().String(), "invalid")
		writeExpandError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	e.recorder.ObserveParse(t.Kind().String(), "ok")

	resp := expandResponseBody{Kind: t.Kind().String(), Canonical: tmpl.Print(t)}

	if body.Request != nil {
		ctx := r.Context()
		var cancel context.CancelFunc
		if e.execTimeout > 0 {
			ctx, cancel = context.WithTimeout(ctx, e.execTimeout)
			defer cancel()
		}
		start := time.Now()
		v, err := tmpl.Expand(ctx, t, body.Request, e.dict)
		if t.Kind() == tmpl.KindExec {
			outcome := "ok"
			if err != nil {
				outcome = "error"
			}
			e.recorder.ObserveExec(outcome, time.Since(start))
		}
		if err != nil {
			writeExpandError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		resp.Value = v.String()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func writeExpandError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(expandResponseBody{Error: msg})
}
