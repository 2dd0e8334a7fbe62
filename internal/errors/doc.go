// Package errors provides coded, structured diagnostics for the observer
// runtime and its tooling.
//
// The core never fails a call. Refusals and invalid inputs are turned into
// an *Error, reported as a warning, and the operation falls back to a
// defined behavior. The CLI and loaders return the same type as ordinary
// errors.
//
// # Error Categories
//
//   - runtime: invalid targets passed to the mutation API
//   - policy: refused root-level additions and deletions
//   - config: configuration file errors
//   - document: document loading and path resolution
//   - cli: command-line and script errors
//
// # Usage
//
//	err := errors.New("W003").
//	    WithDetail(`key "title"`)
//
//	fmt.Println(err.Format())
//	// Output:
//	// WARN W003: Avoid adding reactive properties to a managed instance or its root data at runtime
//	//
//	//   key "title"
//	//
//	//   Hint: Declare the property upfront in the root data.
package errors
