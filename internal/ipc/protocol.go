// Package ipc carries page actions from short-lived CLI invocations to the
// open page over a unix socket, one newline-delimited JSON exchange per
// connection.
package ipc

import "github.com/rbright/arogya/internal/viewmodel"

type Request struct {
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

type Response struct {
	OK      bool                `json:"ok"`
	State   string              `json:"state,omitempty"`
	Message string              `json:"message,omitempty"`
	Error   string              `json:"error,omitempty"`
	View    *viewmodel.Snapshot `json:"view,omitempty"`
}

// Failure builds an error response.
func Failure(err error) Response {
	return Response{OK: false, Error: err.Error()}
}
