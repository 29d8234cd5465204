package rpc

import (
	"errors"

	"github.com/wok-dev/wok/internal/wokerr"
)

// ToErrorResp renders err as the wire Error{kind, message} shape. A
// *wokerr.Error contributes its Kind; any other
// error is reported under wokerr.KindIPC since it surfaced on the
// connection path rather than a classified domain failure.
func ToErrorResp(err error) *ErrorResp {
	var werr *wokerr.Error
	if errors.As(err, &werr) {
		return NewErrorResp(string(werr.Kind), werr.Error())
	}
	return NewErrorResp(string(wokerr.KindIPC), err.Error())
}
