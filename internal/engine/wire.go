package engine

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/san-kum/nbodylab/internal/dynamo"
)

// message is the JSON shape shared by every command and frame:
//
//	{"type":"init","bodies":[...],"params":{"G":1,"eps":0.01,"dt":0.001,"method":"leapfrog"}}
//	{"type":"updateParams","params":{"dt":0.002}}
//	{"type":"replaceBodies","bodies":[...]}
//	{"type":"play","playing":false}
//	{"type":"step","steps":10}
type message struct {
	Type    string          `json:"type"`
	Bodies  []dynamo.Body   `json:"bodies,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Playing *bool           `json:"playing,omitempty"`
	Steps   *int            `json:"steps,omitempty"`
}

// DecodeCommand parses one JSON command message. Messages that match none
// of the five command shapes fail with dynamo.ErrUnknownCommand.
func DecodeCommand(data []byte) (Command, error) {
	var m message
	if err := strictUnmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", dynamo.ErrUnknownCommand, err)
	}
	switch m.Type {
	case "init":
		if m.Bodies == nil || isNull(m.Params) {
			return nil, fmt.Errorf("%w: init needs bodies and params", dynamo.ErrUnknownCommand)
		}
		p := dynamo.DefaultParams()
		if err := strictUnmarshal(m.Params, &p); err != nil {
			return nil, fmt.Errorf("%w: init params: %v", dynamo.ErrUnknownCommand, err)
		}
		return Initialize{Bodies: m.Bodies, Params: p}, nil

	case "updateParams":
		if isNull(m.Params) {
			return nil, fmt.Errorf("%w: updateParams needs params", dynamo.ErrUnknownCommand)
		}
		var patch dynamo.PartialParams
		if err := strictUnmarshal(m.Params, &patch); err != nil {
			return nil, fmt.Errorf("%w: updateParams params: %v", dynamo.ErrUnknownCommand, err)
		}
		return UpdateParameters{Params: patch}, nil

	case "replaceBodies":
		if m.Bodies == nil {
			return nil, fmt.Errorf("%w: replaceBodies needs bodies", dynamo.ErrUnknownCommand)
		}
		return ReplaceBodies{Bodies: m.Bodies}, nil

	case "play":
		if m.Playing == nil {
			return nil, fmt.Errorf("%w: play needs playing", dynamo.ErrUnknownCommand)
		}
		return SetPlaying{Playing: *m.Playing}, nil

	case "step":
		s := Step{Count: 1}
		if m.Steps != nil {
			if *m.Steps < 1 {
				return nil, fmt.Errorf("%w: got %d", dynamo.ErrInvalidStepCount, *m.Steps)
			}
			s.Count = *m.Steps
		}
		return s, nil

	default:
		return nil, fmt.Errorf("%w: %q", dynamo.ErrUnknownCommand, m.Type)
	}
}

// EncodeCommand is the inverse of DecodeCommand.
func EncodeCommand(cmd Command) ([]byte, error) {
	m := map[string]any{}
	switch c := cmd.(type) {
	case Initialize:
		m["bodies"], m["params"] = nonNil(c.Bodies), c.Params
	case UpdateParameters:
		m["params"] = c.Params
	case ReplaceBodies:
		m["bodies"] = nonNil(c.Bodies)
	case SetPlaying:
		m["playing"] = c.Playing
	case Step:
		m["steps"] = c.steps()
	default:
		return nil, fmt.Errorf("%w: %T", dynamo.ErrUnknownCommand, cmd)
	}
	m["type"] = cmd.Name()
	return json.Marshal(m)
}

// EncodeFrame renders f as a {"type":"frame",...} message.
func EncodeFrame(f dynamo.Frame) ([]byte, error) {
	return json.Marshal(struct {
		Type      string          `json:"type"`
		Positions []float64       `json:"positions"`
		Energies  dynamo.Energies `json:"energies"`
	}{"frame", nonNilFloats(f.Positions), f.Energies})
}

// strictUnmarshal decodes exactly one JSON value with no unknown fields and
// nothing but whitespace after it.
func strictUnmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after JSON value")
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	return raw == nil || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func nonNil(b []dynamo.Body) []dynamo.Body {
	if b == nil {
		return []dynamo.Body{}
	}
	return b
}

func nonNilFloats(f []float64) []float64 {
	if f == nil {
		return []float64{}
	}
	return f
}
