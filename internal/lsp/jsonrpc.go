package lsp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/textproto"
	"strconv"
)

// maxMessageSize bounds a single JSON-RPC payload.
const maxMessageSize = 64 << 20

const headerContentLength = "Content-Length"

var errMissingContentLength = errors.New("missing Content-Length header")

// readMessage reads one base-protocol frame: MIME style headers, a blank
// line, then Content-Length bytes of JSON. Headers other than
// Content-Length are ignored.
func readMessage(r *bufio.Reader) ([]byte, error) {
	header, err := textproto.NewReader(r).ReadMIMEHeader()
	if err != nil {
		return nil, err
	}
	raw := header.Get(headerContentLength)
	if raw == "" {
		return nil, errMissingContentLength
	}
	n, err := strconv.Atoi(raw)
	switch {
	case err != nil:
		return nil, fmt.Errorf("invalid %s: %w", headerContentLength, err)
	case n < 0 || n > maxMessageSize:
		return nil, fmt.Errorf("invalid %s %d", headerContentLength, n)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func writeMessage(w io.Writer, payload []byte) error {
	frame := make([]byte, 0, len(payload)+32)
	frame = append(frame, headerContentLength+": "...)
	frame = strconv.AppendInt(frame, int64(len(payload)), 10)
	frame = append(frame, "\r\n\r\n"...)
	frame = append(frame, payload...)
	_, err := w.Write(frame)
	return err
}
