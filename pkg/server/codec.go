package server

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// errMalformed marks a request that could not be decoded but after which the
// stream is still usable.
var errMalformed = errors.New("malformed request")

// Codec frames requests and responses on the wire.
type Codec interface {
	// Decode reads the next request. io.EOF ends the stream; errors wrapping
	// errMalformed skip one request.
	Decode(req *Request) error
	Encode(v any) error
}

type jsonCodec struct {
	reader *bufio.Reader
	writer io.Writer
}

// NewJSONCodec reads and writes one JSON document per line.
func NewJSONCodec(r io.Reader, w io.Writer) Codec {
	return &jsonCodec{reader: bufio.NewReader(r), writer: w}
}

func (c *jsonCodec) Decode(req *Request) error {
	for {
		line, err := c.reader.ReadString('\n')
		line = strings.TrimSpace(line)
		if line == "" {
			if err != nil {
				return err
			}
			continue
		}
		*req = Request{}
		if uerr := json.Unmarshal([]byte(line), req); uerr != nil {
			return fmt.Errorf("%w: %w", errMalformed, uerr)
		}
		return nil
	}
}

func (c *jsonCodec) Encode(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = c.writer.Write(data)
	return err
}

type msgpackCodec struct {
	dec *msgpack.Decoder
	enc *msgpack.Encoder
}

// NewMsgpackCodec reads and writes a stream of msgpack maps. A request that
// fails to decode leaves the stream unsynchronised and ends it.
func NewMsgpackCodec(r io.Reader, w io.Writer) Codec {
	enc := msgpack.NewEncoder(w)
	enc.SetOmitEmpty(true)
	return &msgpackCodec{
		dec: msgpack.NewDecoder(bufio.NewReader(r)),
		enc: enc,
	}
}

func (c *msgpackCodec) Decode(req *Request) error {
	*req = Request{}
	return c.dec.Decode(req)
}

func (c *msgpackCodec) Encode(v any) error {
	return c.enc.Encode(v)
}
