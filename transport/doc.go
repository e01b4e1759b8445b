// Package transport performs the credential requests of the login engine.
//
// Every request is a GET whose JSON object body is returned as a map. Responses with a status
// of 300 or above, bodies that are not a JSON object, and transport failures all surface as
// [ErrNoData]; the engine classifies them as unknown errors.
package transport
