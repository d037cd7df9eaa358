package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/conn-castle/moonbit-up/internal/messages"
)

var runConfirmForm = func(form *huh.Form) error { return form.Run() }

// confirm asks a yes/no question. On a terminal it uses a huh form; otherwise
// it reads a line from in.
func confirm(in io.Reader, out io.Writer, prompt string, defaultYes bool) (bool, error) {
	if !isInteractive() {
		return promptYesNo(in, out, prompt, defaultYes)
	}
	answer := defaultYes
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().Title(prompt).Affirmative("Yes").Negative("No").Value(&answer),
	))
	if err := runConfirmForm(form); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return answer, nil
}

func promptYesNo(in io.Reader, out io.Writer, prompt string, defaultYes bool) (bool, error) {
	reader := bufio.NewReader(in)
	format := messages.PromptNoDefaultFmt
	if defaultYes {
		format = messages.PromptYesDefaultFmt
	}
	for {
		if _, err := fmt.Fprintf(out, format, prompt); err != nil {
			return false, err
		}
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return false, err
		}
		response := strings.TrimSpace(line)
		if response == "" {
			if errors.Is(err, io.EOF) {
				return false, nil
			}
			return defaultYes, nil
		}
		switch strings.ToLower(response) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		if errors.Is(err, io.EOF) {
			return false, fmt.Errorf(messages.PromptInvalidResponse, response)
		}
		if _, err := fmt.Fprintln(out, messages.PromptRetryYesNo); err != nil {
			return false, err
		}
	}
}
