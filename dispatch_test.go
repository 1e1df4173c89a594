package monknet

import (
	"testing"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestDispatchSpans(t *testing.T) {
	var srec recorder

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	server := startServer(t, defaultTestConf().config(t), srec.handler(), WithTracerProvider(tp))
	c := dialRaw(t, server.LocalAddr())

	good := NewMessage(TypePlayerPosition, "1,2")
	c.send(good)
	c.expectAck(good.Token)

	c.send(NewMessage(TypePlayerPosition, "NaN,Inf"))

	waitFor(t, "spans", func() bool { return len(sr.Ended()) == 2 })

	spans := sr.Ended()
	for i, want := range []codes.Code{codes.Unset, codes.Error} {
		span := spans[i]

		if span.Name() != "monknet.dispatch" {
			t.Errorf("span %d name = %q", i, span.Name())
		}
		if span.SpanKind() != trace.SpanKindConsumer {
			t.Errorf("span %d kind = %v", i, span.SpanKind())
		}
		if span.Status().Code != want {
			t.Errorf("span %d status = %v, want %v", i, span.Status().Code, want)
		}

		var typ string
		for _, kv := range span.Attributes() {
			if kv.Key == "monknet.type" {
				typ = kv.Value.AsString()
			}
		}
		if typ != TypePlayerPosition {
			t.Errorf("span %d monknet.type = %q", i, typ)
		}
	}

	if len(spans[1].Events()) == 0 {
		t.Error("parse error not recorded on the span")
	}

	if _, ok := findErr[*ParseError](srec.reported()); !ok {
		t.Errorf("reported %v, want a ParseError", srec.reported())
	}
	if p, _ := server.Peer(c.addr()); p.Position != (Vec2{1, 2}) {
		t.Errorf("position = %v after a non-finite update", p.Position)
	}
}
