package printer

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ESC/POS control bytes
const (
	ESC = 0x1B
	GS  = 0x1D
	LF  = 0x0A
)

type Align byte

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// Character size for GS !
const (
	SizeNormal byte = 0x00
	SizeTall   byte = 0x01
	SizeWide   byte = 0x10
	SizeDouble byte = 0x11
)

const (
	Width58mm = 32
	Width80mm = 48
)

// Document accumulates an ESC/POS byte stream. Methods chain.
type Document struct {
	buf   bytes.Buffer
	width int
}

// NewDocument starts a document for a paper of width characters and writes
// the initialize command.
func NewDocument(width int) *Document {
	if width <= 0 {
		width = Width58mm
	}
	d := &Document{width: width}
	d.buf.Write([]byte{ESC, '@'})
	return d
}

func (d *Document) Width() int { return d.width }

func (d *Document) Feed(n int) *Document {
	for i := 0; i < n; i++ {
		d.buf.WriteByte(LF)
	}
	return d
}

func (d *Document) Align(a Align) *Document {
	d.buf.Write([]byte{ESC, 'a', byte(a)})
	return d
}

func (d *Document) Bold(on bool) *Document {
	var b byte
	if on {
		b = 1
	}
	d.buf.Write([]byte{ESC, 'E', b})
	return d
}

func (d *Document) Size(size byte) *Document {
	d.buf.Write([]byte{GS, '!', size})
	return d
}

// Line writes s clipped to the paper width.
func (d *Document) Line(s string) *Document {
	d.buf.WriteString(clip(s, d.width))
	d.buf.WriteByte(LF)
	return d
}

func (d *Document) Linef(format string, args ...interface{}) *Document {
	return d.Line(fmt.Sprintf(format, args...))
}

// Rule writes a full width line of ch.
func (d *Document) Rule(ch rune) *Document {
	d.buf.WriteString(strings.Repeat(string(ch), d.width))
	d.buf.WriteByte(LF)
	return d
}

// Pair writes key flush left and value flush right on one line.
func (d *Document) Pair(key, value string) *Document {
	gap := d.width - utf8.RuneCountInString(key) - utf8.RuneCountInString(value)
	if gap < 1 {
		gap = 1
	}
	return d.Line(key + strings.Repeat(" ", gap) + value)
}

// Qty writes "<qty> x <name>", wrapping long names under the name column.
func (d *Document) Qty(qty int, name string) *Document {
	prefix := fmt.Sprintf("%d x ", qty)
	indent := strings.Repeat(" ", len(prefix))
	room := d.width - len(prefix)
	if room < 1 {
		return d.Line(prefix + name)
	}
	for i, part := range wrap(name, room) {
		if i == 0 {
			d.Line(prefix + part)
			continue
		}
		d.Line(indent + part)
	}
	return d
}

func (d *Document) Cut() *Document {
	d.buf.Write([]byte{GS, 'V', 0x00})
	return d
}

func (d *Document) PartialCut() *Document {
	d.buf.Write([]byte{GS, 'V', 0x01})
	return d
}

func (d *Document) Bytes() []byte {
	return d.buf.Bytes()
}

func clip(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	return string([]rune(s)[:width])
}

func wrap(s string, width int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return []string{""}
	}
	var lines []string
	current := ""
	for _, w := range words {
		for utf8.RuneCountInString(w) > width {
			if current != "" {
				lines = append(lines, current)
				current = ""
			}
			r := []rune(w)
			lines = append(lines, string(r[:width]))
			w = string(r[width:])
		}
		switch {
		case current == "":
			current = w
		case utf8.RuneCountInString(current)+1+utf8.RuneCountInString(w) <= width:
			current += " " + w
		default:
			lines = append(lines, current)
			current = w
		}
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}
