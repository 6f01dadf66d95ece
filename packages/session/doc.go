// Package session performs the HTTP exchanges of one resting run.
//
// A Session binds an http.Client to the run's History: every response is
// registered under the step label before it is handed back, and printed
// when a Printer is configured.
package session
