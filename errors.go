package main

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

// Game errors surfaced to the offending connection as an "error" event.
// Everything else (missing rooms, premature starts, unknown event types)
// is silently ignored; clients are expected to gate those interactions.
var (
	ErrRoomNotFound = errors.New("no room exists with that code")
	ErrRoomFull     = errors.New("that room already has two players")
)

func logf(cfg *Config, format string, args ...any) {
	if !cfg.verbose {
		return
	}

	log.Printf("%s | "+format, append([]any{time.Now().Format(logDate)}, args...)...)
}

func newPage(title, body string) string {
	var htmlBody strings.Builder

	htmlBody.WriteString(`<!DOCTYPE html><html lang="en"><head>`)
	htmlBody.WriteString(`<style>`)
	htmlBody.WriteString(`html,body,a{display:block;height:100%;width:100%;text-decoration:none;color:inherit;cursor:auto;}</style>`)
	htmlBody.WriteString(fmt.Sprintf("<title>%s</title></head>", title))
	htmlBody.WriteString(fmt.Sprintf("<body><a href=\"/\">%s</a></body></html>", body))

	return htmlBody.String()
}
