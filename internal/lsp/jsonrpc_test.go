package lsp

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestFramingRoundTrip(t *testing.T) {
	msgs := []string{
		`{"jsonrpc":"2.0","method":"one"}`,
		`{"jsonrpc":"2.0","method":"두"}`,
	}
	var buf bytes.Buffer
	for _, m := range msgs {
		if err := writeMessage(&buf, []byte(m)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if !strings.HasPrefix(buf.String(), "Content-Length: 32\r\n\r\n{") {
		t.Fatalf("unexpected frame %q", buf.String())
	}

	r := bufio.NewReader(&buf)
	for _, want := range msgs {
		got, err := readMessage(r)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if string(got) != want {
			t.Fatalf("got %s, want %s", got, want)
		}
	}
	if _, err := readMessage(r); !errors.Is(err, io.EOF) {
		t.Fatalf("drained stream must report EOF, got %v", err)
	}
}

func TestReadMessageHeaders(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    string
		wantErr error
	}{
		{"extra header and lower case", "Content-Type: application/vscode-jsonrpc; charset=utf-8\r\ncontent-length: 2\r\n\r\n{}", "{}", nil},
		{"missing length", "X-Other: 1\r\n\r\n{}", "", errMissingContentLength},
		{"not a number", "Content-Length: abc\r\n\r\n", "", nil},
		{"too large", "Content-Length: 999999999999\r\n\r\n", "", nil},
		{"short body", "Content-Length: 10\r\n\r\n{}", "", io.ErrUnexpectedEOF},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := readMessage(bufio.NewReader(strings.NewReader(tc.in)))
			if tc.want != "" {
				if err != nil || string(got) != tc.want {
					t.Fatalf("got %q, %v", got, err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected an error")
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}
