package rpc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"net"
	"testing"

	"github.com/wok-dev/wok/internal/hlc"
	"github.com/wok-dev/wok/internal/op"
	"github.com/wok-dev/wok/internal/storage"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte(`{"type":"ping"}`)

	if err := WriteFrame(&buf, payload); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	got, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("ReadFrame = %q, want %q", got, payload)
	}
}

func TestFrameRoundTripEmptyPayload(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, nil); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	got, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("ReadFrame = %q, want empty", got)
	}
}

func TestReadFrameRejectsOversizedPrefix(t *testing.T) {
	var buf bytes.Buffer
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], MaxFrameSize+1)
	buf.Write(lenBuf[:])

	_, err := ReadFrame(&buf)
	if !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("err = %v, want ErrFrameTooLarge", err)
	}
}

func TestRequestRoundTripAllVariants(t *testing.T) {
	requests := []Request{
		NewHello("1"),
		NewPing(),
		NewStatusReq(),
		NewShutdownReq(),
		NewQuery(NewGetIssue("p-a1")),
		NewQuery(NewListIssues(storage.ListFilter{Status: "todo"})),
		NewQuery(NewGetLabels([]string{"p-a1", "p-b2"})),
		NewQuery(NewGetBlocked()),
		NewQuery(NewGetEvents("p-a1")),
		NewMutate(op.Op{
			ID:      hlc.Hlc{WallMS: 10, Counter: 0, Node: 1},
			Payload: op.NewSetTitle("p-a1", "t"),
		}),
	}

	for _, req := range requests {
		data, err := EncodeRequest(req)
		if err != nil {
			t.Fatalf("%s: encode: %v", req.RequestKind(), err)
		}
		got, err := DecodeRequest(data)
		if err != nil {
			t.Fatalf("%s: decode: %v", req.RequestKind(), err)
		}
		if got.RequestKind() != req.RequestKind() {
			t.Fatalf("kind mismatch: got %s want %s", got.RequestKind(), req.RequestKind())
		}
	}
}

func TestQueryTagSurvivesRoundTrip(t *testing.T) {
	data, err := EncodeRequest(NewQuery(NewGetEvents("p-a1b2")))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeRequest(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	q, ok := got.(*Query)
	if !ok {
		t.Fatalf("decoded %T, want *Query", got)
	}
	tag, ok := q.Tag.(*GetEvents)
	if !ok {
		t.Fatalf("tag = %T, want *GetEvents", q.Tag)
	}
	if tag.IssueID != "p-a1b2" {
		t.Fatalf("tag.IssueID = %q", tag.IssueID)
	}
}

func TestResponseRoundTripQueryResult(t *testing.T) {
	issue := &storage.Issue{ID: "p-a1", Type: "task", Title: "t", Status: "todo"}
	data, err := EncodeResponse(NewQueryResult(NewIssueResult(issue)))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeResponse(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	qr, ok := got.(*QueryResult)
	if !ok {
		t.Fatalf("decoded %T, want *QueryResult", got)
	}
	ir, ok := qr.Result.(*IssueResult)
	if !ok {
		t.Fatalf("result = %T, want *IssueResult", qr.Result)
	}
	if ir.Issue == nil || ir.Issue.ID != "p-a1" {
		t.Fatalf("issue = %+v", ir.Issue)
	}
}

func TestDecodeRequestRejectsUnknownType(t *testing.T) {
	if _, err := DecodeRequest([]byte(`{"type":"bogus"}`)); err == nil {
		t.Fatal("expected error for unknown request type")
	}
}

// stubHandler answers every Query with an empty issues listing and every
// Mutate with an applied result.
type stubHandler struct{}

func (stubHandler) Status() *StatusResp {
	return NewStatusResp("1", 1234, "/tmp/issues.db")
}

func (stubHandler) Query(tag QueryTag) (QueryResultPayload, error) {
	return NewIssuesResult(nil), nil
}

func (stubHandler) Mutate(o op.Op) (*MutateResult, error) {
	return NewMutateResult("applied", "", o.ID.String()), nil
}

// serve runs ServeConn on one end of an in-memory pipe and reports its
// results on channels so test assertions stay on the main goroutine.
func serve(t *testing.T, version string) (client net.Conn, shutdownCh chan bool) {
	t.Helper()
	server, clientConn := net.Pipe()
	shutdownCh = make(chan bool, 1)
	go func() {
		defer server.Close()
		stop, _ := ServeConn(server, version, stubHandler{})
		shutdownCh <- stop
	}()
	t.Cleanup(func() { clientConn.Close() })
	return clientConn, shutdownCh
}

func TestServeConnHandshakeThenPing(t *testing.T) {
	conn, _ := serve(t, "1")

	if err := WriteRequest(conn, NewHello("1")); err != nil {
		t.Fatalf("write hello: %v", err)
	}
	resp, err := ReadResponse(conn)
	if err != nil {
		t.Fatalf("read handshake response: %v", err)
	}
	if _, ok := resp.(*Ready); !ok {
		t.Fatalf("handshake response = %T, want *Ready", resp)
	}

	if err := WriteRequest(conn, NewPing()); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	resp, err = ReadResponse(conn)
	if err != nil {
		t.Fatalf("read ping response: %v", err)
	}
	if _, ok := resp.(*Pong); !ok {
		t.Fatalf("ping response = %T, want *Pong", resp)
	}
}

func TestServeConnRejectsNonHelloFirst(t *testing.T) {
	conn, _ := serve(t, "1")

	if err := WriteRequest(conn, NewPing()); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	resp, err := ReadResponse(conn)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	if _, ok := resp.(*BadHandshake); !ok {
		t.Fatalf("response = %T, want *BadHandshake", resp)
	}
}

func TestServeConnVersionMismatchAllowsShutdown(t *testing.T) {
	conn, shutdownCh := serve(t, "1")

	if err := WriteRequest(conn, NewHello("2")); err != nil {
		t.Fatalf("write hello: %v", err)
	}
	resp, err := ReadResponse(conn)
	if err != nil {
		t.Fatalf("read handshake response: %v", err)
	}
	mm, ok := resp.(*VersionMismatch)
	if !ok {
		t.Fatalf("response = %T, want *VersionMismatch", resp)
	}
	if mm.Daemon != "1" || mm.Client != "2" {
		t.Fatalf("mismatch = %+v", mm)
	}

	if err := WriteRequest(conn, NewShutdownReq()); err != nil {
		t.Fatalf("write shutdown: %v", err)
	}
	resp, err = ReadResponse(conn)
	if err != nil {
		t.Fatalf("read shutdown response: %v", err)
	}
	if _, ok := resp.(*ShutdownAck); !ok {
		t.Fatalf("response = %T, want *ShutdownAck", resp)
	}
	if stop := <-shutdownCh; !stop {
		t.Fatal("ServeConn should report shutdown after mismatch + Shutdown")
	}
}

func TestServeConnMutate(t *testing.T) {
	conn, _ := serve(t, "1")

	if err := WriteRequest(conn, NewHello("1")); err != nil {
		t.Fatalf("write hello: %v", err)
	}
	if _, err := ReadResponse(conn); err != nil {
		t.Fatalf("read ready: %v", err)
	}

	o := op.Op{ID: hlc.Hlc{WallMS: 5, Counter: 0, Node: 1}, Payload: op.NewAddLabel("p-a1", "urgent")}
	if err := WriteRequest(conn, NewMutate(o)); err != nil {
		t.Fatalf("write mutate: %v", err)
	}
	resp, err := ReadResponse(conn)
	if err != nil {
		t.Fatalf("read mutate response: %v", err)
	}
	mr, ok := resp.(*MutateResult)
	if !ok {
		t.Fatalf("response = %T, want *MutateResult", resp)
	}
	if mr.Outcome != "applied" || mr.ID != "5-0-1" {
		t.Fatalf("result = %+v", mr)
	}
}
