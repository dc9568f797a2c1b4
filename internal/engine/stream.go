package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/mitchellh/mapstructure"
)

// BuildAux is the auxiliary payload the engine emits when a build
// produces an image.
type BuildAux struct {
	ID string `mapstructure:"ID"`
}

// PushAux is the auxiliary payload the engine emits when a push
// completes a tag.
type PushAux struct {
	Tag    string `mapstructure:"Tag"`
	Digest string `mapstructure:"Digest"`
	Size   int64  `mapstructure:"Size"`
}

// StreamResult summarizes a fully-drained engine stream.
type StreamResult struct {
	// ImageID is the built image ID, when the stream carried one.
	ImageID string

	// Digest is the pushed manifest digest, when the stream carried one.
	Digest string

	// LastMarker is the most recent marker line seen before the stream
	// ended, used to attribute a failure to a build step.
	LastMarker string
}

// StreamError is a fatal error reported inside an engine stream.
type StreamError struct {
	// Message is the engine's error text.
	Message string

	// LastMarker is the most recent marker seen before the error.
	LastMarker string
}

func (e *StreamError) Error() string {
	return e.Message
}

// DrainOptions controls stream decoding.
type DrainOptions struct {
	// Markers are matched against stream lines; the last match is
	// recorded for failure attribution.
	Markers []string

	// Redact is applied to every line before it reaches LogLine.
	Redact func(string) string

	// LogLine receives each non-empty stream line. May be nil.
	LogLine func(string)
}

// Drain decodes an engine JSON message stream to completion.
// An in-stream error aborts decoding and is returned as a *StreamError;
// the engine reports at most one.
func Drain(r io.Reader, opts DrainOptions) (*StreamResult, error) {
	result := &StreamResult{}
	dec := json.NewDecoder(r)

	for {
		var msg jsonmessage.JSONMessage
		if err := dec.Decode(&msg); err != nil {
			if errors.Is(err, io.EOF) {
				return result, nil
			}
			return result, fmt.Errorf("decoding engine stream: %w", err)
		}

		if msg.Error != nil {
			return result, &StreamError{
				Message:    msg.Error.Message,
				LastMarker: result.LastMarker,
			}
		}

		line := msg.Stream
		if line == "" {
			line = msg.Status
		}
		if line != "" {
			for _, marker := range opts.Markers {
				if strings.Contains(line, marker) {
					result.LastMarker = marker
				}
			}
			if opts.LogLine != nil {
				if opts.Redact != nil {
					line = opts.Redact(line)
				}
				if trimmed := strings.TrimRight(line, "\n"); trimmed != "" {
					opts.LogLine(trimmed)
				}
			}
		}

		if msg.Aux != nil {
			decodeAux(*msg.Aux, result)
		}
	}
}

// decodeAux extracts image ID or push digest from an aux payload.
// Aux payloads are advisory; malformed ones are ignored.
func decodeAux(raw json.RawMessage, result *StreamResult) {
	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return
	}

	var build BuildAux
	if err := mapstructure.Decode(payload, &build); err == nil && build.ID != "" {
		result.ImageID = build.ID
		return
	}

	var push PushAux
	if err := mapstructure.Decode(payload, &push); err == nil && push.Digest != "" {
		result.Digest = push.Digest
	}
}
