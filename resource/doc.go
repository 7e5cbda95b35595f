// Package resource provides the host-side handle table.
//
// The host hands the guest opaque integer handles for requests, responses,
// bodies and log endpoints. A Table maps each handle to the Go value behind
// it and the Kind it was issued with:
//
//	table := resource.NewTable()
//
//	h := table.Insert(resource.KindBody, body)
//
//	b, ok := resource.Lookup[*Body](table, h, resource.KindBody)
//
//	table.Remove(h)
//
// A handle presented with the wrong kind, or after removal, is not found.
// Freed slots are reused under a new generation, so a handle the guest has
// given up never reaches the entry that replaced it.
//
// # Observers
//
// Observers see every insert and removal:
//
//	table.Subscribe(resource.ObserverFunc(func(e resource.Event) {
//	    if e.Type == resource.EventCreated {
//	        live.WithLabelValues(e.Kind.String()).Inc()
//	    }
//	}))
//
// Values implementing Dropper are released when removed or when the table
// is closed.
package resource
