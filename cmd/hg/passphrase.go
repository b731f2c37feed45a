package main

import (
	"fmt"
	"os"
	"syscall"

	"golang.org/x/term"
)

// passphraseEnv names the environment variable read before prompting.
const passphraseEnv = "HG_PASSPHRASE"

// readPassphrase returns HG_PASSPHRASE if set, otherwise prompts on the
// terminal without echo. With confirm the passphrase is asked twice.
func readPassphrase(prompt string, confirm bool) (string, error) {
	if p, ok := os.LookupEnv(passphraseEnv); ok {
		return p, nil
	}
	if !term.IsTerminal(int(syscall.Stdin)) {
		return "", fmt.Errorf("no terminal to read the passphrase from, set %s", passphraseEnv)
	}

	fmt.Fprint(os.Stderr, prompt)
	p, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	if !confirm {
		return string(p), nil
	}

	fmt.Fprint(os.Stderr, "Repeat passphrase: ")
	again, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	if string(again) != string(p) {
		return "", fmt.Errorf("passphrases do not match")
	}
	return string(p), nil
}
