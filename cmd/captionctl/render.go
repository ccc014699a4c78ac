package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const ansiReset = "\x1b[0m"

var kindStyles = map[statusKind]struct {
	tag   string
	color string
}{
	statusInfo:  {"INFO", "\x1b[34m"},
	statusOK:    {"OK", "\x1b[32m"},
	statusWarn:  {"WARN", "\x1b[33m"},
	statusError: {"ERROR", "\x1b[31m"},
}

// statusPrinter writes aligned label/status lines, coloring the bracketed
// tag when the destination is a terminal.
type statusPrinter struct {
	out   io.Writer
	color bool
}

func newStatusPrinter(out io.Writer) *statusPrinter {
	color := false
	if file, ok := out.(*os.File); ok {
		fd := file.Fd()
		color = isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	}
	return &statusPrinter{out: out, color: color}
}

func (p *statusPrinter) section(title string) {
	header := "== " + strings.TrimSpace(title) + " =="
	fmt.Fprintln(p.out, header)
	fmt.Fprintln(p.out, strings.Repeat("-", len(header)))
}

func (p *statusPrinter) line(label string, kind statusKind, message string) {
	style := kindStyles[kind]
	tag := "[" + style.tag + "]"
	if p.color {
		tag = style.color + tag + ansiReset
	}
	if message != "" {
		tag += " " + message
	}
	fmt.Fprintf(p.out, "  %-16s %s\n", label+":", tag)
}
