package main

import (
	"fmt"
	"os"
	"syscall"

	"golang.org/x/term"
)

// readPassword prompts on stderr and reads a line without echo.
func readPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // newline after hidden input
	if err != nil {
		return nil, err
	}
	return password, nil
}
