package rpc

import (
	"fmt"
	"io"
)

// WriteRequest frames and writes r.
func WriteRequest(w io.Writer, r Request) error {
	body, err := EncodeRequest(r)
	if err != nil {
		return fmt.Errorf("rpc: encode request: %w", err)
	}
	return WriteFrame(w, body)
}

// ReadRequest reads one frame and decodes it as a Request. Malformed
// JSON surfaces as an error the caller should answer with
// ProtocolErrorResp before dropping the connection.
func ReadRequest(r io.Reader) (Request, error) {
	body, err := ReadFrame(r)
	if err != nil {
		return nil, err
	}
	return DecodeRequest(body)
}

// WriteResponse frames and writes r.
func WriteResponse(w io.Writer, r Response) error {
	body, err := EncodeResponse(r)
	if err != nil {
		return fmt.Errorf("rpc: encode response: %w", err)
	}
	return WriteFrame(w, body)
}

// ReadResponse reads one frame and decodes it as a Response.
func ReadResponse(r io.Reader) (Response, error) {
	body, err := ReadFrame(r)
	if err != nil {
		return nil, err
	}
	return DecodeResponse(body)
}
