package rpc

import (
	"encoding/json"
	"fmt"

	"github.com/wok-dev/wok/internal/op"
)

// ProtocolVersion is compared as an exact-match byte string against
// the client's Hello.Version; there is no semver parsing at this layer.
const ProtocolVersion = "1"

// RequestKind discriminates Request variants on the wire via a "type" field.
type RequestKind string

const (
	RequestKindHello    RequestKind = "hello"
	RequestKindPing     RequestKind = "ping"
	RequestKindStatus   RequestKind = "status"
	RequestKindShutdown RequestKind = "shutdown"
	RequestKindQuery    RequestKind = "query"
	RequestKindMutate   RequestKind = "mutate"
)

// Request is implemented by every request variant a connection may send.
type Request interface {
	RequestKind() RequestKind
}

// Hello must be the first message on a connection.
type Hello struct {
	Type    RequestKind `json:"type"`
	Version string      `json:"version"`
}

func NewHello(version string) *Hello { return &Hello{Type: RequestKindHello, Version: version} }
func (r *Hello) RequestKind() RequestKind { return RequestKindHello }

// Ping is a health probe.
type Ping struct {
	Type RequestKind `json:"type"`
}

func NewPing() *Ping { return &Ping{Type: RequestKindPing} }
func (r *Ping) RequestKind() RequestKind { return RequestKindPing }

// StatusReq asks for daemon metadata.
type StatusReq struct {
	Type RequestKind `json:"type"`
}

func NewStatusReq() *StatusReq { return &StatusReq{Type: RequestKindStatus} }
func (r *StatusReq) RequestKind() RequestKind { return RequestKindStatus }

// ShutdownReq asks the daemon to stop in an orderly fashion.
type ShutdownReq struct {
	Type RequestKind `json:"type"`
}

func NewShutdownReq() *ShutdownReq { return &ShutdownReq{Type: RequestKindShutdown} }
func (r *ShutdownReq) RequestKind() RequestKind { return RequestKindShutdown }

// Query wraps one typed read.
type Query struct {
	Type RequestKind `json:"type"`
	Tag  QueryTag    `json:"tag"`
}

func NewQuery(tag QueryTag) *Query { return &Query{Type: RequestKindQuery, Tag: tag} }
func (r *Query) RequestKind() RequestKind { return RequestKindQuery }

type queryEnvelope struct {
	Type RequestKind     `json:"type"`
	Tag  json.RawMessage `json:"tag"`
}

func (q Query) MarshalJSON() ([]byte, error) {
	tagJSON, err := marshalQueryTag(q.Tag)
	if err != nil {
		return nil, err
	}
	return json.Marshal(queryEnvelope{Type: RequestKindQuery, Tag: tagJSON})
}

func (q *Query) UnmarshalJSON(data []byte) error {
	var env queryEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("rpc: %w", err)
	}
	tag, err := unmarshalQueryTag(env.Tag)
	if err != nil {
		return err
	}
	q.Type = RequestKindQuery
	q.Tag = tag
	return nil
}

// Mutate wraps one operation to apply. If Op.ID is the zero Hlc, the
// daemon stamps it with now(); otherwise the daemon observes the given
// id before applying it.
type Mutate struct {
	Type RequestKind `json:"type"`
	Op   op.Op       `json:"op"`
}

func NewMutate(o op.Op) *Mutate { return &Mutate{Type: RequestKindMutate, Op: o} }
func (r *Mutate) RequestKind() RequestKind { return RequestKindMutate }

func newRequest(k RequestKind) (Request, error) {
	switch k {
	case RequestKindHello:
		return &Hello{}, nil
	case RequestKindPing:
		return &Ping{}, nil
	case RequestKindStatus:
		return &StatusReq{}, nil
	case RequestKindShutdown:
		return &ShutdownReq{}, nil
	case RequestKindQuery:
		return &Query{}, nil
	case RequestKindMutate:
		return &Mutate{}, nil
	default:
		return nil, fmt.Errorf("rpc: unknown request type %q", k)
	}
}

// EncodeRequest renders r as the JSON body of a frame.
func EncodeRequest(r Request) ([]byte, error) {
	return json.Marshal(r)
}

// DecodeRequest dispatches on the top-level "type" field to the
// concrete request struct.
func DecodeRequest(data []byte) (Request, error) {
	var tag struct {
		Type RequestKind `json:"type"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return nil, fmt.Errorf("rpc: missing request type: %w", err)
	}
	r, err := newRequest(tag.Type)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("rpc: decoding %s request: %w", tag.Type, err)
	}
	return r, nil
}

// ResponseKind discriminates Response variants on the wire.
type ResponseKind string

const (
	ResponseKindReady           ResponseKind = "ready"
	ResponseKindPong            ResponseKind = "pong"
	ResponseKindStatus          ResponseKind = "status"
	ResponseKindShutdownAck     ResponseKind = "shutdown_ack"
	ResponseKindQueryResult     ResponseKind = "query_result"
	ResponseKindMutateResult    ResponseKind = "mutate_result"
	ResponseKindError           ResponseKind = "error"
	ResponseKindBadHandshake    ResponseKind = "bad_handshake"
	ResponseKindVersionMismatch ResponseKind = "version_mismatch"
	ResponseKindProtocolError   ResponseKind = "protocol_error"
)

// Response is implemented by every response variant the daemon may send.
type Response interface {
	ResponseKind() ResponseKind
}

// Ready is the positive answer to a well-versioned Hello.
type Ready struct {
	Type ResponseKind `json:"type"`
}

func NewReady() *Ready { return &Ready{Type: ResponseKindReady} }
func (r *Ready) ResponseKind() ResponseKind { return ResponseKindReady }

// Pong answers Ping.
type Pong struct {
	Type ResponseKind `json:"type"`
}

func NewPong() *Pong { return &Pong{Type: ResponseKindPong} }
func (r *Pong) ResponseKind() ResponseKind { return ResponseKindPong }

// StatusResp answers StatusReq with daemon metadata.
type StatusResp struct {
	Type    ResponseKind `json:"type"`
	Version string       `json:"version"`
	PID     int          `json:"pid"`
	DBPath  string       `json:"db_path"`
}

func NewStatusResp(version string, pid int, dbPath string) *StatusResp {
	return &StatusResp{Type: ResponseKindStatus, Version: version, PID: pid, DBPath: dbPath}
}
func (r *StatusResp) ResponseKind() ResponseKind { return ResponseKindStatus }

// ShutdownAck answers ShutdownReq; the daemon closes the connection
// and exits 0 immediately after sending it.
type ShutdownAck struct {
	Type ResponseKind `json:"type"`
}

func NewShutdownAck() *ShutdownAck { return &ShutdownAck{Type: ResponseKindShutdownAck} }
func (r *ShutdownAck) ResponseKind() ResponseKind { return ResponseKindShutdownAck }

// QueryResult answers Query; Result names the precise variant queried
// so decoding is deterministic.
type QueryResult struct {
	Type   ResponseKind       `json:"type"`
	Result QueryResultPayload `json:"result"`
}

func NewQueryResult(result QueryResultPayload) *QueryResult {
	return &QueryResult{Type: ResponseKindQueryResult, Result: result}
}
func (r *QueryResult) ResponseKind() ResponseKind { return ResponseKindQueryResult }

type queryResultEnvelope struct {
	Type   ResponseKind    `json:"type"`
	Result json.RawMessage `json:"result"`
}

func (r QueryResult) MarshalJSON() ([]byte, error) {
	resultJSON, err := marshalQueryResultPayload(r.Result)
	if err != nil {
		return nil, err
	}
	return json.Marshal(queryResultEnvelope{Type: ResponseKindQueryResult, Result: resultJSON})
}

func (r *QueryResult) UnmarshalJSON(data []byte) error {
	var env queryResultEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("rpc: %w", err)
	}
	result, err := unmarshalQueryResultPayload(env.Result)
	if err != nil {
		return err
	}
	r.Type = ResponseKindQueryResult
	r.Result = result
	return nil
}

// MutateResult answers Mutate with the merge engine's outcome kind
// rendered as its wire string.
type MutateResult struct {
	Type    ResponseKind `json:"type"`
	Outcome string       `json:"outcome"`
	Reason  string       `json:"reason,omitempty"`
	ID      string       `json:"id,omitempty"`
}

func NewMutateResult(outcome, reason, id string) *MutateResult {
	return &MutateResult{Type: ResponseKindMutateResult, Outcome: outcome, Reason: reason, ID: id}
}
func (r *MutateResult) ResponseKind() ResponseKind { return ResponseKindMutateResult }

// ErrorResp is the negative counterpart to any request.
type ErrorResp struct {
	Type    ResponseKind `json:"type"`
	Kind    string       `json:"kind"`
	Message string       `json:"message"`
}

func NewErrorResp(kind, message string) *ErrorResp {
	return &ErrorResp{Type: ResponseKindError, Kind: kind, Message: message}
}
func (r *ErrorResp) ResponseKind() ResponseKind { return ResponseKindError }

// BadHandshake is returned when a request other than Hello arrives
// first on a connection.
type BadHandshake struct {
	Type ResponseKind `json:"type"`
}

func NewBadHandshake() *BadHandshake { return &BadHandshake{Type: ResponseKindBadHandshake} }
func (r *BadHandshake) ResponseKind() ResponseKind { return ResponseKindBadHandshake }

// VersionMismatch is returned from Hello when the client and daemon
// protocol versions differ; the client is expected to Shutdown the
// daemon and spawn a fresh one.
type VersionMismatch struct {
	Type   ResponseKind `json:"type"`
	Daemon string       `json:"daemon"`
	Client string       `json:"client"`
}

func NewVersionMismatch(daemon, client string) *VersionMismatch {
	return &VersionMismatch{Type: ResponseKindVersionMismatch, Daemon: daemon, Client: client}
}
func (r *VersionMismatch) ResponseKind() ResponseKind { return ResponseKindVersionMismatch }

// ProtocolErrorResp is returned for malformed JSON; the connection is
// dropped after it is sent.
type ProtocolErrorResp struct {
	Type    ResponseKind `json:"type"`
	Message string       `json:"message"`
}

func NewProtocolErrorResp(message string) *ProtocolErrorResp {
	return &ProtocolErrorResp{Type: ResponseKindProtocolError, Message: message}
}
func (r *ProtocolErrorResp) ResponseKind() ResponseKind { return ResponseKindProtocolError }

func newResponse(k ResponseKind) (Response, error) {
	switch k {
	case ResponseKindReady:
		return &Ready{}, nil
	case ResponseKindPong:
		return &Pong{}, nil
	case ResponseKindStatus:
		return &StatusResp{}, nil
	case ResponseKindShutdownAck:
		return &ShutdownAck{}, nil
	case ResponseKindQueryResult:
		return &QueryResult{}, nil
	case ResponseKindMutateResult:
		return &MutateResult{}, nil
	case ResponseKindError:
		return &ErrorResp{}, nil
	case ResponseKindBadHandshake:
		return &BadHandshake{}, nil
	case ResponseKindVersionMismatch:
		return &VersionMismatch{}, nil
	case ResponseKindProtocolError:
		return &ProtocolErrorResp{}, nil
	default:
		return nil, fmt.Errorf("rpc: unknown response type %q", k)
	}
}

// EncodeResponse renders r as the JSON body of a frame.
func EncodeResponse(r Response) ([]byte, error) {
	return json.Marshal(r)
}

// DecodeResponse dispatches on the top-level "type" field to the
// concrete response struct.
func DecodeResponse(data []byte) (Response, error) {
	var tag struct {
		Type ResponseKind `json:"type"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return nil, fmt.Errorf("rpc: missing response type: %w", err)
	}
	r, err := newResponse(tag.Type)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("rpc: decoding %s response: %w", tag.Type, err)
	}
	return r, nil
}
