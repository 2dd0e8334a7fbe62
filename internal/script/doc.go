// Package script runs YAML scripts against a reactive document.
//
// A script names an initial state (inline or a source), a set of watchers
// and a list of mutation steps. Each watcher is an effect reading some
// paths; after every step the runner reports which watchers re-ran and
// which warnings were reported.
//
//	state:
//	  count: 0
//	  items: [a, b]
//	watch:
//	  - name: total
//	    paths: [count]
//	  - name: list
//	    paths: [items]
//	steps:
//	  - op: assign
//	    path: count
//	    value: 1
//	    expect: [total]
//	  - op: push
//	    path: items
//	    values: [c]
//	    expect: [list]
//	  - op: set
//	    path: extra
//	    value: 1
//	    warnings: [W003]
//
// Operations: assign, set, delete, push, pop, shift, unshift, splice, sort,
// reverse and toggle-observing. assign writes through the property itself;
// set and delete go through observer.Set and observer.Del.
package script
