package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"github.com/gregLibert/libembedded/pkg/layout"
)

const prompt = "bits> "

// newCompleter completes command names and layout names.
func newCompleter(set *layout.Set) *readline.PrefixCompleter {
	layoutItems := make([]readline.PrefixCompleterInterface, 0, len(set.Layouts))
	topLevel := []readline.PrefixCompleterInterface{
		readline.PcItem("help"),
		readline.PcItem("layouts"),
		readline.PcItem("frame"),
		readline.PcItem("exit"),
	}
	for _, l := range set.Layouts {
		layoutItems = append(layoutItems, readline.PcItem(l.Name))
		topLevel = append(topLevel, readline.PcItem(l.Name))
	}
	topLevel = append(topLevel,
		readline.PcItem("encode", layoutItems...),
		readline.PcItem("msb", layoutItems...),
	)

	return readline.NewPrefixCompleter(topLevel...)
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".libembedded_history")
}

// runInteractive reads commands until exit, EOF or Ctrl+C on an empty line.
func runInteractive(set *layout.Set) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     historyFile(),
		HistoryLimit:    500,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    newCompleter(set),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer func() {
		if err := rl.Close(); err != nil {
			fmt.Printf("Warning: Failed to close readline: %v\n", err)
		}
	}()

	fmt.Fprintln(rl.Stdout(), "Type help for the list of commands.")

	for {
		input, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				if len(input) == 0 {
					return nil
				}
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read error: %w", err)
		}

		err = evalLine(rl.Stdout(), set, strings.TrimSpace(input))
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(rl.Stderr(), "error: %v\n", err)
		}
	}
}
