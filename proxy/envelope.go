package proxy

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jonwraymond/catalogops/storeerr"
)

// Envelope is the body of every proxy response.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *ErrorBody      `json:"error,omitempty"`
}

// ErrorBody describes a failed call.
type ErrorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// StatusRequest is the body of POST /v1/items/{id}/status.
type StatusRequest struct {
	Transition string `json:"transition"`
}

// LikeRequest is the body of POST /v1/items/{id}/likes.
type LikeRequest struct {
	UserID string `json:"userId"`
}

// CreateResponse is the data of a successful POST /v1/items.
type CreateResponse struct {
	ID string `json:"id"`
}

// HTTPStatus maps an error kind to a response status. A missing table on a
// read is not an error at this layer; see Server.
func HTTPStatus(kind storeerr.Kind) int {
	switch kind {
	case storeerr.NotFound:
		return http.StatusNotFound
	case storeerr.ResourceMissing, storeerr.Network:
		return http.StatusServiceUnavailable
	case storeerr.CredentialsInvalid:
		return http.StatusUnauthorized
	case storeerr.Validation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// kindForStatus is used when a response has no envelope, e.g. from an
// intermediary.
func kindForStatus(code int) storeerr.Kind {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return storeerr.CredentialsInvalid
	case code == http.StatusNotFound:
		return storeerr.NotFound
	case code == http.StatusBadRequest:
		return storeerr.Validation
	case code == http.StatusTooManyRequests,
		code == http.StatusBadGateway,
		code == http.StatusServiceUnavailable,
		code == http.StatusGatewayTimeout:
		return storeerr.Network
	default:
		return storeerr.Unknown
	}
}

// toError rebuilds the server's StoreError on the client side.
func (b *ErrorBody) toError(op string) *storeerr.StoreError {
	return storeerr.New(storeerr.ParseKind(b.Kind), op, errors.New(b.Message))
}

func writeEnvelope(w http.ResponseWriter, code int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(env)
}

func writeData(w http.ResponseWriter, code int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		writeError(w, storeerr.ClassifyOp("encode", err))
		return
	}
	writeEnvelope(w, code, Envelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, se *storeerr.StoreError) {
	writeErrorStatus(w, HTTPStatus(se.Kind), se)
}

// writeErrorStatus reports se to the caller. Server faults carry a generic
// message; their cause is logged by the server and never leaves the process.
func writeErrorStatus(w http.ResponseWriter, code int, se *storeerr.StoreError) {
	msg := se.Kind.String()
	switch {
	case code >= http.StatusInternalServerError || se.Kind == storeerr.Unknown:
		msg = publicMessage(se.Kind)
	case se.Err != nil:
		msg = se.Err.Error()
	}
	writeEnvelope(w, code, Envelope{Error: &ErrorBody{Kind: se.Kind.String(), Message: msg}})
}

func publicMessage(kind storeerr.Kind) string {
	switch kind {
	case storeerr.Network:
		return "store unavailable"
	case storeerr.ResourceMissing:
		return "store table missing"
	default:
		return "internal error"
	}
}
