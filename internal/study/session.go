package study

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Run drives p from line-based commands read from in until "q" or EOF.
// An empty line flips the card.
func Run(ctx context.Context, p *Player, in io.Reader, out io.Writer, width int) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprintln(out, Render(p, width))

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "", "f":
			p.Flip()
		case "n":
			p.Next()
		case "p":
			p.Prev()
		case "m":
			if err := p.ToggleMastered(ctx); err != nil {
				fmt.Fprintf(out, "Could not update mastery: %v\n", err)
			}
		case "q":
			return nil
		default:
			fmt.Fprintln(out, helpStyle.Render("unknown command"))
			continue
		}
		fmt.Fprintln(out, Render(p, width))
	}
	return scanner.Err()
}
