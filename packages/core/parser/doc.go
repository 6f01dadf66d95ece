// Package parser loads resting scripts.
//
// A script is a YAML (or JSON) document with an optional environment mapping
// and a list of steps. Each step describes one HTTP request and the tests to
// run after it:
//
//	environment:
//	  host: api.local
//	steps:
//	  - label: login
//	    method: POST
//	    url: http://{environment.host}/login
//	    json: {user: ada}
//	    tests:
//	      - status: 200
//	      - update_environment: {token: "{history.login.json.token}"}
//
// Documents are checked against an embedded JSON schema before the AST is
// built. Mapping order is preserved everywhere.
package parser
