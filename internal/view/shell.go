package view

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	apperrors "github.com/Salisuili/rest-frontend/pkg/errors"
)

const prompt = "> "

// Shell reads commands from in until it is exhausted, the user types exit,
// or ctx is cancelled. Command errors are printed and the shell continues.
func (v *View) Shell(ctx context.Context, in io.Reader) error {
	v.setInteractive(true)
	defer v.setInteractive(false)

	if err := v.Show(ctx, RouteHome); err != nil {
		v.printError(err)
	}
	fmt.Fprintln(v.out, "\nType help for a list of commands.")

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		fmt.Fprint(v.out, prompt)
		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(v.out)
			return nil
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(v.out)
				select {
				case err := <-scanErr:
					if err != nil {
						return apperrors.Internal(fmt.Errorf("read command: %w", err))
					}
				default:
				}
				return nil
			}
			line = l
		}

		args, err := splitArgs(line)
		if err != nil {
			v.printError(err)
			continue
		}
		if len(args) == 0 {
			continue
		}
		if args[0] == "exit" || args[0] == "quit" {
			return nil
		}
		if err := v.Run(ctx, args); err != nil {
			v.printError(err)
		}
	}
}

func (v *View) printError(err error) {
	fmt.Fprintf(v.out, "error: %s\n", apperrors.UserMessage(err, "Something went wrong."))
}

// splitArgs splits a command line into words. Single or double quotes group
// words and a backslash escapes the next character.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inWord  bool
		quote   rune
		escaped bool
	)
	for _, r := range line {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\' && quote != '\'':
			escaped = true
			inWord = true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inWord = true
		case r == ' ' || r == '\t':
			if inWord {
				args = append(args, cur.String())
				cur.Reset()
				inWord = false
			}
		default:
			cur.WriteRune(r)
			inWord = true
		}
	}
	if quote != 0 || escaped {
		return nil, apperrors.InvalidInput("unterminated quote or escape")
	}
	if inWord {
		args = append(args, cur.String())
	}
	return args, nil
}
