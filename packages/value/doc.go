// Package value models the JSON-like documents that flow through a resting
// script: the seed environment, request bodies, test arguments and parsed
// response bodies.
//
// A Value is one of Null, Bool, Number, Int, String, Array or *Object. Objects
// keep their keys in insertion order so that templated bodies are sent and
// printed in the order they were written. Integer literals decode to Int so
// that ids wider than a float64 mantissa survive a round trip.
package value
