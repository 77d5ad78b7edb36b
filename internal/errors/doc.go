// Package errors provides coded, structured errors for the prop module.
//
// Every failure surfaced by the collection, conversion, reactor and config
// layers carries a short code (e.g. "E001") that maps to a registered
// template with a message, a longer explanation and a category. Errors can
// wrap an underlying cause, so errors.Is and errors.As keep working against
// the sentinel values exported by each package.
//
// # Error Categories
//
//   - lookup: a named property does not exist
//   - type: a property was requested through the wrong static type
//   - conversion: text could not be parsed into a value
//   - reactor: the dispatcher was used in the wrong lifecycle state
//   - config: configuration files could not be read or are invalid
//   - http: a request to the property server failed
//
// # Usage
//
//	err := errors.New("E001").
//	    WithDetail(`no property named "retries"`).
//	    Wrap(propset.ErrNotFound)
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E001: Property not found
//	//
//	//   no property named "retries"
//	//
//	//   Hint: Check the property name or Define it first
package errors
