// Copyright © 2025 Sketchwire contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: canvas/encode.go
// Summary: Decodes one wire command object into a validated Command.
// Notes: This is the trust boundary; everything after it assumes fields are
// in range and text ranges are backed by the owning buffer's pool.

package canvas

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	json "github.com/goccy/go-json"
)

var (
	// ErrUnsupportedTool marks a well-formed object naming a tool this build
	// does not implement. The stream continues.
	ErrUnsupportedTool = errors.New("canvas: unsupported tool")
	// ErrMalformed marks invalid JSON or missing/out-of-range fields.
	ErrMalformed = errors.New("canvas: malformed command")
	// ErrTextPoolFull marks a text command whose payload no longer fits in the
	// buffer's pool. The command is dropped whole.
	ErrTextPoolFull = errors.New("canvas: text pool full")
)

// wireCommand is the superset of fields across all known tools. Pointer
// fields distinguish absent from zero; the decoder rejects absent required
// fields per tool instead of silently defaulting them.
type wireCommand struct {
	Tool     string   `json:"tool"`
	Color    *string  `json:"color"`
	X        *float64 `json:"x"`
	Y        *float64 `json:"y"`
	W        *float64 `json:"w"`
	H        *float64 `json:"h"`
	X1       *float64 `json:"x1"`
	Y1       *float64 `json:"y1"`
	X2       *float64 `json:"x2"`
	Y2       *float64 `json:"y2"`
	X3       *float64 `json:"x3"`
	Y3       *float64 `json:"y3"`
	Text     *string  `json:"text"`
	FontSize *float64 `json:"font_size"`
}

// DecodeLine parses one JSON command object and encodes it against buf's text
// pool. On success the returned Command is ready to Push into buf — and only
// buf, since any text range it carries was allocated there.
func DecodeLine(buf *Buffer, line []byte) (Command, error) {
	var w wireCommand
	if err := json.Unmarshal(line, &w); err != nil {
		return Command{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return encodeCommand(buf, &w)
}

// encodeCommand validates a decoded wire object for its tool and builds the
// Command. It is pure except for the single bounded pool write a text command
// performs.
func encodeCommand(buf *Buffer, w *wireCommand) (Command, error) {
	switch w.Tool {
	case "set_background":
		color, err := parseColor(w.Color)
		if err != nil {
			return Command{}, err
		}
		return Command{Op: OpBackground, Color: color}, nil

	case "fill_rect":
		color, err := parseColor(w.Color)
		if err != nil {
			return Command{}, err
		}
		x, y, err := coords2(w.X, w.Y)
		if err != nil {
			return Command{}, err
		}
		wd, err := finite(w.W, "w")
		if err != nil {
			return Command{}, err
		}
		ht, err := finite(w.H, "h")
		if err != nil {
			return Command{}, err
		}
		if wd < 0 || ht < 0 {
			return Command{}, fmt.Errorf("%w: negative extent", ErrMalformed)
		}
		return Command{Op: OpFillRect, Color: color, X1: x, Y1: y, W: wd, H: ht}, nil

	case "fill_triangle":
		color, err := parseColor(w.Color)
		if err != nil {
			return Command{}, err
		}
		x1, y1, err := coords2(w.X1, w.Y1)
		if err != nil {
			return Command{}, err
		}
		x2, y2, err := coords2(w.X2, w.Y2)
		if err != nil {
			return Command{}, err
		}
		x3, y3, err := coords2(w.X3, w.Y3)
		if err != nil {
			return Command{}, err
		}
		return Command{
			Op: OpFillTriangle, Color: color,
			X1: x1, Y1: y1, X2: x2, Y2: y2, X3: x3, Y3: y3,
		}, nil

	case "draw_text":
		color, err := parseColor(w.Color)
		if err != nil {
			return Command{}, err
		}
		x, y, err := coords2(w.X, w.Y)
		if err != nil {
			return Command{}, err
		}
		if w.Text == nil {
			return Command{}, fmt.Errorf("%w: missing text", ErrMalformed)
		}
		size := 1.0
		if w.FontSize != nil {
			size = *w.FontSize
			if math.IsNaN(size) || math.IsInf(size, 0) || size <= 0 {
				return Command{}, fmt.Errorf("%w: bad font_size", ErrMalformed)
			}
		}
		ref, ok := buf.pool.Alloc([]byte(*w.Text))
		if !ok {
			return Command{}, ErrTextPoolFull
		}
		return Command{Op: OpText, Color: color, X1: x, Y1: y, FontSize: size, Text: ref}, nil

	case "":
		return Command{}, fmt.Errorf("%w: missing tool", ErrMalformed)
	default:
		return Command{}, fmt.Errorf("%w: %q", ErrUnsupportedTool, w.Tool)
	}
}

// parseColor accepts exactly six hex digits and packs them as 0xRRGGBB.
func parseColor(s *string) (uint32, error) {
	if s == nil {
		return 0, fmt.Errorf("%w: missing color", ErrMalformed)
	}
	if len(*s) != 6 {
		return 0, fmt.Errorf("%w: color %q", ErrMalformed, *s)
	}
	v, err := strconv.ParseUint(*s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: color %q", ErrMalformed, *s)
	}
	return uint32(v), nil
}

func finite(f *float64, name string) (float64, error) {
	if f == nil {
		return 0, fmt.Errorf("%w: missing %s", ErrMalformed, name)
	}
	if math.IsNaN(*f) || math.IsInf(*f, 0) {
		return 0, fmt.Errorf("%w: non-finite %s", ErrMalformed, name)
	}
	return *f, nil
}

func coords2(x, y *float64) (float64, float64, error) {
	xv, err := finite(x, "x")
	if err != nil {
		return 0, 0, err
	}
	yv, err := finite(y, "y")
	if err != nil {
		return 0, 0, err
	}
	return xv, yv, nil
}
