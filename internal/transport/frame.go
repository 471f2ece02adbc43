// Package transport provides the typed streaming channel to the crawl
// backend: one request frame out, many progress/result frames in.
package transport

import (
	"encoding/json"
	"fmt"
)

// Kind discriminates inbound frames.
type Kind int

const (
	// KindProgress is a periodic heartbeat with a percent and status.
	KindProgress Kind = iota + 1
	// KindDone is the terminal success frame carrying the posts.
	KindDone
	// KindError is a terminal failure frame with a backend error code.
	KindError
	// KindCancelled acknowledges a cancel request.
	KindCancelled
	// KindProtocolError is synthesized locally for malformed chunks.
	KindProtocolError
)

func (k Kind) String() string {
	switch k {
	case KindProgress:
		return "progress"
	case KindDone:
		return "done"
	case KindError:
		return "error"
	case KindCancelled:
		return "cancelled"
	case KindProtocolError:
		return "protocol_error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Frame is one inbound message from the backend.
type Frame struct {
	Kind Kind

	// Progress fields
	Percent    float64
	Status     string
	StatusKey  string
	StatusVars map[string]any

	// Done payload: raw posts, normalized later by the result store.
	Posts []map[string]any

	// Error fields
	ErrorCode   string
	ErrorDetail string
}

// wireFrame mirrors the backend's loose JSON shape.
type wireFrame struct {
	Cancelled   bool             `json:"cancelled"`
	Error       *json.RawMessage `json:"error"`
	ErrorCode   string           `json:"error_code"`
	ErrorDetail string           `json:"error_detail"`
	Done        bool             `json:"done"`
	Data        []map[string]any `json:"data"`
	Progress    *float64         `json:"progress"`
	Status      string           `json:"status"`
	StatusKey   string           `json:"status_key"`
	StatusData  map[string]any   `json:"status_data"`
}

// DecodeFrame parses one inbound chunk into exactly one Frame. Frames are
// discriminated in priority order: cancelled, error, done, progress.
// Malformed or unrecognized chunks become a KindProtocolError frame; the
// stream is never interrupted here.
func DecodeFrame(data []byte) Frame {
	var w wireFrame
	if err := json.Unmarshal(data, &w); err != nil {
		return Frame{Kind: KindProtocolError, ErrorDetail: err.Error()}
	}

	switch {
	case w.Cancelled:
		return Frame{Kind: KindCancelled}
	case w.Error != nil:
		code := w.ErrorCode
		if code == "" {
			// The error field itself may carry the code as a string.
			var s string
			if json.Unmarshal(*w.Error, &s) == nil {
				code = s
			}
		}
		return Frame{Kind: KindError, ErrorCode: code, ErrorDetail: w.ErrorDetail}
	case w.Done:
		return Frame{Kind: KindDone, Posts: w.Data}
	case w.Progress != nil:
		return Frame{
			Kind:       KindProgress,
			Percent:    clampPercent(*w.Progress),
			Status:     w.Status,
			StatusKey:  w.StatusKey,
			StatusVars: w.StatusData,
		}
	default:
		return Frame{Kind: KindProtocolError, ErrorDetail: "frame has no discriminator field"}
	}
}

func clampPercent(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
