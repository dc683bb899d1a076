// Package server implements the websocket event bridge for a form controller.
//
// The bridge is an event producer like the terminal UI: remote clients send
// raw field events, the bridge publishes them on the bus the controller is
// subscribed to, and every resulting change is pushed back to all clients as
// a full snapshot. The controller itself performs no I/O.
//
// # Routes
//
//	/events   websocket
//	/state    GET, current snapshot
//	/version  GET, build information
//
// # Wire Format
//
// Clients send one event per text message:
//
//	{"type":"input","name":"name","value":"Ann","target":"input"}
//	{"type":"focusout","name":"name"}
//
// The bridge answers with state messages, the first one sent on connect:
//
//	{"type":"state","state":{"revision":0,"step":0,"values":{...},"touched":{...},"errors":{...},"has_form_field_error":false}}
//
// Events that fail to decode or lack a known type and field name are answered
// with {"type":"error","error":"..."} to that client only.
//
// # Usage Example
//
//	bus := events.NewBus()
//	ctrl, _ := def.NewController(bus)
//	srv, err := server.New(server.Config{Addr: ":8765"}, ctrl, bus)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	// Start blocks until ctx is cancelled
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// Each client has one reader (the HTTP handler goroutine) and one writer
// goroutine. Broadcasts never block: a client whose buffer is full is
// dropped.
package server
