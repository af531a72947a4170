// Copyright © 2025 Sketchwire contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/sketch-sim/main.go
// Summary: Producer simulator emitting drawing batches on stdout.
// Usage: `sketch-sim | sketchwire` for demos, stress and protocol testing.

package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	enry "github.com/go-enry/go-enry/v2"
	json "github.com/goccy/go-json"
)

func main() {
	batches := flag.Int("batches", 0, "Number of batches to emit (0 = run until killed)")
	interval := flag.Duration("interval", 500*time.Millisecond, "Delay between batches")
	seed := flag.Int64("seed", 0, "Random seed (0 = time-based)")
	cols := flag.Int("cols", 80, "Canvas width in cells")
	rows := flag.Int("rows", 24, "Canvas height in cells")
	file := flag.String("file", "", "Render a syntax-highlighted source file instead of random shapes")
	styleName := flag.String("style", "monokai", "Chroma style for -file mode")
	flag.Parse()

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	if *file != "" {
		if err := emitHighlighted(out, *file, *styleName, *cols, *rows); err != nil {
			log.Fatalf("highlight mode failed: %v", err)
		}
		return
	}

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))

	for i := 0; *batches == 0 || i < *batches; i++ {
		emitRandomBatch(out, rng, *cols, *rows)
		if err := out.Flush(); err != nil {
			// Consumer went away; nothing left to do.
			return
		}
		time.Sleep(*interval)
	}
}

// emitRandomBatch writes one batch of random geometry followed by the blank
// batch delimiter.
func emitRandomBatch(out *bufio.Writer, rng *rand.Rand, cols, rows int) {
	emit(out, map[string]any{
		"tool":  "set_background",
		"color": randColor(rng, 0x30),
	})

	for i := 0; i < 3+rng.Intn(6); i++ {
		emit(out, map[string]any{
			"tool":  "fill_rect",
			"x":     float64(rng.Intn(cols)),
			"y":     float64(rng.Intn(rows)),
			"w":     float64(1 + rng.Intn(cols/3)),
			"h":     float64(1 + rng.Intn(rows/3)),
			"color": randColor(rng, 0xFF),
		})
	}

	for i := 0; i < 1+rng.Intn(3); i++ {
		emit(out, map[string]any{
			"tool":  "fill_triangle",
			"x1":    float64(rng.Intn(cols)),
			"y1":    float64(rng.Intn(rows)),
			"x2":    float64(rng.Intn(cols)),
			"y2":    float64(rng.Intn(rows)),
			"x3":    float64(rng.Intn(cols)),
			"y3":    float64(rng.Intn(rows)),
			"color": randColor(rng, 0xFF),
		})
	}

	emit(out, map[string]any{
		"tool":      "draw_text",
		"text":      fmt.Sprintf("batch %d", time.Now().Unix()),
		"x":         float64(rng.Intn(cols / 2)),
		"y":         float64(rng.Intn(rows)),
		"color":     "ffffff",
		"font_size": 1.0,
	})

	out.WriteByte('\n')
}

// emitHighlighted tokenizes a source file and draws it as colored text, one
// batch for the whole page. Language detection goes through enry first; its
// answer picks the chroma lexer, with content analysis as fallback.
func emitHighlighted(out *bufio.Writer, path, styleName string, cols, rows int) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	lang := enry.GetLanguage(filepath.Base(path), data)
	var lexer chroma.Lexer
	if lang != "" {
		lexer = lexers.Get(lang)
	}
	if lexer == nil {
		lexer = lexers.Analyse(string(data))
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get(styleName)
	if style == nil {
		style = styles.Fallback
	}
	baseColour := style.Get(chroma.Text).Colour

	bg := style.Get(chroma.Background).Background
	if bg.IsSet() {
		emit(out, map[string]any{"tool": "set_background", "color": colourHex(bg)})
	}

	iterator, err := lexer.Tokenise(nil, string(data))
	if err != nil {
		return err
	}

	row, col := 0, 0
	for tok := iterator(); tok != chroma.EOF; tok = iterator() {
		entry := style.Get(tok.Type)
		color := baseColour
		if entry.Colour.IsSet() {
			color = entry.Colour
		}

		for _, segment := range strings.SplitAfter(tok.Value, "\n") {
			text := strings.TrimSuffix(segment, "\n")
			if text != "" && row < rows && col < cols {
				cmd := map[string]any{
					"tool":  "draw_text",
					"text":  text,
					"x":     float64(col),
					"y":     float64(row),
					"color": colourHex(color),
				}
				if entry.Bold == chroma.Yes {
					cmd["font_size"] = 2.0
				}
				emit(out, cmd)
			}
			col += len([]rune(text))
			if strings.HasSuffix(segment, "\n") {
				row++
				col = 0
			}
		}
		if row >= rows {
			break
		}
	}

	out.WriteByte('\n')
	return out.Flush()
}

func emit(out *bufio.Writer, obj map[string]any) {
	b, err := json.Marshal(obj)
	if err != nil {
		log.Printf("marshal failed: %v", err)
		return
	}
	out.Write(b)
	out.WriteByte('\n')
}

func randColor(rng *rand.Rand, max int) string {
	return fmt.Sprintf("%02x%02x%02x", rng.Intn(max+1), rng.Intn(max+1), rng.Intn(max+1))
}

func colourHex(c chroma.Colour) string {
	return fmt.Sprintf("%02x%02x%02x", c.Red(), c.Green(), c.Blue())
}
