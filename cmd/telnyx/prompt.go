package main

import (
	"errors"
	"io"

	"github.com/manifoldco/promptui"

	"github.com/telnyx/telnyx-cli/config"
)

var (
	// errCancelled ends a command the user backed out of. It exits 0.
	errCancelled = errors.New("cancelled")

	errNotInteractive = errors.New("confirmation required: re-run with --force to skip the prompt")
)

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

func (a *app) promptStreams() (io.ReadCloser, io.WriteCloser) {
	stdin, ok := a.in.(io.ReadCloser)
	if !ok {
		stdin = io.NopCloser(a.in)
	}
	stdout, ok := a.errOut.(io.WriteCloser)
	if !ok {
		stdout = nopWriteCloser{a.errOut}
	}
	return stdin, stdout
}

// interactive reports whether prompts can be shown.
func (a *app) interactive() bool {
	return isTerminal(a.in)
}

// confirm asks a yes/no question and returns errCancelled on "no".
func (a *app) confirm(label string) error {
	if !a.interactive() {
		return errNotInteractive
	}

	stdin, stdout := a.promptStreams()
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
		Stdin:     stdin,
		Stdout:    stdout,
	}
	if _, err := prompt.Run(); err != nil {
		return handlePromptError(err)
	}
	return nil
}

// promptAPIKey reads an API key with masked input.
func (a *app) promptAPIKey() (string, error) {
	if !a.interactive() {
		return "", errors.New("no terminal available: pass the key with --api-key")
	}

	stdin, stdout := a.promptStreams()
	prompt := promptui.Prompt{
		Label: "Enter your Telnyx API key (from portal.telnyx.com)",
		Mask:  '*',
		Validate: func(input string) error {
			if input == "" {
				return errors.New("API key cannot be empty")
			}
			if !config.IsValidAPIKey(input) {
				return errors.New("API key format looks invalid")
			}
			return nil
		},
		Stdin:  stdin,
		Stdout: stdout,
	}
	key, err := prompt.Run()
	if err != nil {
		return "", handlePromptError(err)
	}
	return key, nil
}

// handlePromptError maps interrupts and declined confirmations to errCancelled.
func handlePromptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrAbort) || errors.Is(err, promptui.ErrEOF) {
		return errCancelled
	}
	return err
}
