package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// errExit ends the interactive loop.
var errExit = errors.New("exit")

// runREPL reads commands line by line and hands them to exec. Errors are
// printed and the loop continues; it ends on EOF or "exit"/"quit".
func runREPL(ctx context.Context, exec func(context.Context, []string) error, reader *bufio.Reader, w io.Writer) {
	fmt.Fprintln(w, "RunaVault CLI (type 'help' for commands)")

	for {
		fmt.Fprint(w, "rv> ")
		line, err := reader.ReadString('\n')
		parts := strings.Fields(line)

		if len(parts) > 0 {
			switch execErr := exec(ctx, parts); {
			case errors.Is(execErr, errExit):
				fmt.Fprintln(w, "Bye!")
				return
			case execErr != nil:
				fmt.Fprintln(w, "Error:", execErr)
			}
		}

		if err != nil {
			return
		}
	}
}
