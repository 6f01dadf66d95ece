// Package converter implements the templating of resting scripts.
//
// Any string inside a value tree may embed placeholders of the form
// {namespace.segment[.segment...]}, where segments use letters, digits, '_'
// and '-'. Two namespaces exist:
//   - environment: variables of the current run ({environment.user.id})
//   - history: previous exchanges ({history.login.json.token}, {history.last.status})
//
// A segment that parses as an integer indexes an array; anything else is an
// object key. Resolved values are substituted in their string form.
package converter
