package diagfmt

import (
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"greenlens/internal/diag"
	"greenlens/internal/source"
)

// Msgpack writes the JSON output structure in MessagePack encoding.
func Msgpack(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts JSONOpts) error {
	return msgpack.NewEncoder(w).Encode(BuildDiagnosticsOutput(bag, fs, opts))
}

// DecodeMsgpack reads an output written by Msgpack.
func DecodeMsgpack(r io.Reader) (DiagnosticsOutput, error) {
	var out DiagnosticsOutput
	err := msgpack.NewDecoder(r).Decode(&out)
	return out, err
}
