package rpc

import (
	"io"

	"github.com/wok-dev/wok/internal/op"
)

// Handler answers the requests a connection may send after a
// successful handshake. The daemon implements it over its storage and
// merge engine; tests may implement it directly.
type Handler interface {
	Status() *StatusResp
	Query(tag QueryTag) (QueryResultPayload, error)
	Mutate(o op.Op) (*MutateResult, error)
}

// ServeConn runs the per-connection protocol state machine: Hello must
// be first, version-checked against daemonVersion; then at most one
// further request is answered before the caller closes the connection.
// It reports whether the peer sent Shutdown so the caller can begin an
// orderly stop.
func ServeConn(rw io.ReadWriter, daemonVersion string, h Handler) (shutdown bool, err error) {
	req, err := ReadRequest(rw)
	if err != nil {
		_ = WriteResponse(rw, NewProtocolErrorResp(err.Error()))
		return false, err
	}

	hello, ok := req.(*Hello)
	if !ok {
		return false, WriteResponse(rw, NewBadHandshake())
	}
	if hello.Version != daemonVersion {
		// Keep the connection open: a mismatched client is expected to
		// follow up with Shutdown so it can respawn a matching daemon.
		if err := WriteResponse(rw, NewVersionMismatch(daemonVersion, hello.Version)); err != nil {
			return false, err
		}
		req, err = ReadRequest(rw)
		if err != nil {
			if err == io.EOF {
				return false, nil
			}
			return false, err
		}
		if _, ok := req.(*ShutdownReq); !ok {
			return false, WriteResponse(rw, NewBadHandshake())
		}
		if err := WriteResponse(rw, NewShutdownAck()); err != nil {
			return true, err
		}
		return true, nil
	}
	if err := WriteResponse(rw, NewReady()); err != nil {
		return false, err
	}

	req, err = ReadRequest(rw)
	if err != nil {
		if err == io.EOF {
			return false, nil
		}
		_ = WriteResponse(rw, NewProtocolErrorResp(err.Error()))
		return false, err
	}

	switch r := req.(type) {
	case *Ping:
		return false, WriteResponse(rw, NewPong())
	case *StatusReq:
		return false, WriteResponse(rw, h.Status())
	case *ShutdownReq:
		if err := WriteResponse(rw, NewShutdownAck()); err != nil {
			return true, err
		}
		return true, nil
	case *Query:
		result, err := h.Query(r.Tag)
		if err != nil {
			return false, WriteResponse(rw, ToErrorResp(err))
		}
		return false, WriteResponse(rw, NewQueryResult(result))
	case *Mutate:
		result, err := h.Mutate(r.Op)
		if err != nil {
			return false, WriteResponse(rw, ToErrorResp(err))
		}
		return false, WriteResponse(rw, result)
	default:
		return false, WriteResponse(rw, NewBadHandshake())
	}
}
