package main

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/codyseavey/pokemarket/internal/analytics"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBold   = "\x1b[1m"
)

func shouldColorize(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// paint wraps s in the terminal color matching the indicator.
func paint(s string, ind analytics.Indicator, colorize bool) string {
	if !colorize {
		return s
	}
	switch ind.Polarity {
	case analytics.Positive:
		return ansiGreen + s + ansiReset
	case analytics.Negative:
		return ansiRed + s + ansiReset
	default:
		return ansiYellow + s + ansiReset
	}
}

func bold(s string, colorize bool) string {
	if !colorize {
		return s
	}
	return ansiBold + s + ansiReset
}
