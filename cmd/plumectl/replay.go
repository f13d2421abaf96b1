package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// runReplay feeds every command of a script file to a fresh bridge and prints
// each reply.
func runReplay(scriptPath, configDir string) error {
	f, err := os.Open(scriptPath)
	if err != nil {
		return fmt.Errorf("failed to open script: %w", err)
	}
	defer f.Close()

	a, err := newApp(configDir)
	if err != nil {
		return err
	}

	replayErr := replay(f, os.Stdout, a.bridge.Call)
	closeErr := a.Close()
	if replayErr != nil {
		return replayErr
	}
	return closeErr
}

// replay sends each non-blank line of r to call and writes "> line" followed
// by the reply to w. Lines starting with # are comments.
func replay(r io.Reader, w io.Writer, call func(string) string) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, err := fmt.Fprintf(w, "> %s\n%s\n", line, call(line)); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("failed to read script: %w", err)
	}
	return nil
}
