package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/example/scanventory/internal/application"
)

// hashPin reads an operator PIN from the first line of r and writes the
// encoded hash for SCANVENTORY_OPERATOR_PIN_HASH to w.
func hashPin(r io.Reader, w io.Writer) error {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read pin: %w", err)
	}
	pin := strings.TrimRight(line, "\r\n")

	encoded, err := application.CreatePinHash(pin, application.DefaultArgon2idParams)
	if err != nil {
		return fmt.Errorf("hash pin: %w", err)
	}
	_, err = fmt.Fprintln(w, encoded)
	return err
}
