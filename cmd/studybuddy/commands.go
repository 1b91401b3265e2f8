package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/conorfennell/studybuddy/internal/domain"
	"github.com/conorfennell/studybuddy/internal/draft"
	"github.com/conorfennell/studybuddy/internal/parser"
	"github.com/conorfennell/studybuddy/internal/study"
	"github.com/conorfennell/studybuddy/internal/sync"
	"github.com/conorfennell/studybuddy/internal/web"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func cardFlags(fs *pflag.FlagSet) {
	fs.String("subject", "", "Subject of the cards, e.g. CSC280")
	fs.String("test", "", "Test within the subject, e.g. Test1")
}

func flagString(fs *pflag.FlagSet, name string) string {
	v, _ := fs.GetString(name)
	return v
}

func argInt64(fs *pflag.FlagSet, i int, what string) (int64, error) {
	if fs.NArg() <= i {
		return 0, fmt.Errorf("missing %s argument", what)
	}
	n, err := strconv.ParseInt(fs.Arg(i), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", what, fs.Arg(i))
	}
	return n, nil
}

var serveCommand = command{
	usage: "Serve the local draft API",
	run: func(ctx context.Context, a *app, fs *pflag.FlagSet) error {
		store, err := a.drafts(false)
		if err != nil {
			return err
		}
		coord := sync.NewCoordinator(store, a.api, a.creds, a.log.Named("sync"))
		srv := &http.Server{
			Addr:              a.cfg.Server.Addr,
			Handler:           web.NewServer(store, coord, a.log.Named("web")),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errc := make(chan error, 1)
		go func() {
			a.log.Info("Local draft API listening", zap.String("addr", srv.Addr), zap.Int("drafts", store.Len()))
			errc <- srv.ListenAndServe()
		}()

		select {
		case err := <-errc:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		a.log.Info("Shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down: %w", err)
		}
		if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

var addCommand = command{
	usage: "Add a draft card",
	flags: func(fs *pflag.FlagSet) {
		cardFlags(fs)
		fs.String("front", "", "Question or term")
		fs.String("back", "", "Answer or definition")
	},
	run: func(ctx context.Context, a *app, fs *pflag.FlagSet) error {
		d := domain.Draft{
			Front:   flagString(fs, "front"),
			Back:    flagString(fs, "back"),
			Subject: flagString(fs, "subject"),
			Test:    flagString(fs, "test"),
		}
		if err := draft.Validate(d); err != nil {
			return err
		}

		store, err := a.drafts(true)
		if err != nil {
			return err
		}
		if err := store.Add(draft.Normalize(d)); err != nil {
			return err
		}
		fmt.Printf("Added draft, %d pending.\n", store.Len())
		return nil
	},
}

var importCommand = command{
	usage: "Add drafts from Q:/A: text files",
	flags: cardFlags,
	run: func(ctx context.Context, a *app, fs *pflag.FlagSet) error {
		if fs.NArg() == 0 {
			return errors.New("missing file argument")
		}
		store, err := a.drafts(true)
		if err != nil {
			return err
		}

		defaults := domain.Draft{Subject: flagString(fs, "subject"), Test: flagString(fs, "test")}
		var added, skipped int
		for _, path := range fs.Args() {
			drafts, cardErrs, err := parser.ParseFile(path, defaults)
			if err != nil {
				return fmt.Errorf("error parsing %s: %w", path, err)
			}
			for _, e := range cardErrs {
				fmt.Fprintf(os.Stderr, "- %s: %v\n", path, e)
			}
			skipped += len(cardErrs)

			for _, d := range drafts {
				if err := store.Add(d); err != nil {
					return err
				}
				added++
			}
		}

		fmt.Printf("Imported %d drafts, %d skipped. %d pending.\n", added, skipped, store.Len())
		return nil
	},
}

var draftsCommand = command{
	usage: "List pending drafts",
	run: func(ctx context.Context, a *app, fs *pflag.FlagSet) error {
		store, err := a.drafts(true)
		if err != nil {
			return err
		}

		drafts := store.List()
		if len(drafts) == 0 {
			fmt.Println("No pending drafts.")
			return nil
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tSUBJECT\tTEST\tFRONT\tBACK")
		for i, d := range drafts {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i, d.Subject, d.Test, d.Front, d.Back)
		}
		return tw.Flush()
	},
}

var removeCommand = command{
	usage: "Remove the draft at a position",
	run: func(ctx context.Context, a *app, fs *pflag.FlagSet) error {
		index, err := argInt64(fs, 0, "index")
		if err != nil {
			return err
		}
		store, err := a.drafts(true)
		if err != nil {
			return err
		}

		before := store.Len()
		if err := store.RemoveAt(int(index)); err != nil {
			return err
		}
		if store.Len() == before {
			fmt.Printf("No draft at position %d, nothing removed.\n", index)
			return nil
		}
		fmt.Printf("Removed draft %d, %d pending.\n", index, store.Len())
		return nil
	},
}

var syncCommand = command{
	usage: "Upload every pending draft in one batch",
	run: func(ctx context.Context, a *app, fs *pflag.FlagSet) error {
		store, err := a.drafts(true)
		if err != nil {
			return err
		}

		coord := sync.NewCoordinator(store, a.api, a.creds, a.log.Named("sync"))
		res, err := coord.Sync(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Successfully synced %d cards! %d duplicates skipped.\n", res.Uploaded, res.Skipped)
		return nil
	},
}

var subjectsCommand = command{
	usage: "List subjects",
	run: func(ctx context.Context, a *app, fs *pflag.FlagSet) error {
		subjects, err := a.api.Subjects(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME")
		for _, s := range subjects {
			fmt.Fprintf(tw, "%d\t%s\n", s.ID, s.Name)
		}
		return tw.Flush()
	},
}

var testsCommand = command{
	usage: "List the tests of a subject",
	run: func(ctx context.Context, a *app, fs *pflag.FlagSet) error {
		subjectID, err := argInt64(fs, 0, "subject id")
		if err != nil {
			return err
		}
		tests, err := a.api.Tests(ctx, subjectID)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME")
		for _, t := range tests {
			fmt.Fprintf(tw, "%d\t%s\n", t.ID, t.Name)
		}
		return tw.Flush()
	},
}

var cardsCommand = command{
	usage: "List the flashcards of a test",
	run: func(ctx context.Context, a *app, fs *pflag.FlagSet) error {
		testID, err := argInt64(fs, 0, "test id")
		if err != nil {
			return err
		}
		cards, err := a.api.Flashcards(ctx, testID)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tMASTERED\tFRONT\tBACK")
		for _, c := range cards {
			fmt.Fprintf(tw, "%d\t%t\t%s\t%s\n", c.ID, c.Mastered, c.Front, c.Back)
		}
		return tw.Flush()
	},
}

var studyCommand = command{
	usage: "Study the flashcards of a test",
	flags: func(fs *pflag.FlagSet) {
		fs.Int("start", 1, "Card to start at, counting from 1")
		fs.Int("width", 60, "Card width in columns")
	},
	run: func(ctx context.Context, a *app, fs *pflag.FlagSet) error {
		testID, err := argInt64(fs, 0, "test id")
		if err != nil {
			return err
		}
		cards, err := a.api.Flashcards(ctx, testID)
		if err != nil {
			return err
		}
		start, _ := fs.GetInt("start")
		width, _ := fs.GetInt("width")

		p := study.NewPlayer(cards, start-1, a.api, a.log.Named("study"))
		return study.Run(ctx, p, os.Stdin, os.Stdout, width)
	},
}

var masterCommand = command{
	usage: "Mark a flashcard as mastered (--unset to clear)",
	flags: func(fs *pflag.FlagSet) {
		fs.Bool("unset", false, "Mark the card as not mastered")
	},
	run: func(ctx context.Context, a *app, fs *pflag.FlagSet) error {
		cardID, err := argInt64(fs, 0, "card id")
		if err != nil {
			return err
		}
		unset, _ := fs.GetBool("unset")

		mastered, err := a.api.SetMastered(ctx, cardID, !unset)
		if err != nil {
			return err
		}
		fmt.Printf("Card %d mastered: %t\n", cardID, mastered)
		return nil
	},
}

var uploadPDFCommand = command{
	usage: "Upload a PDF for server-side card extraction",
	flags: cardFlags,
	run: func(ctx context.Context, a *app, fs *pflag.FlagSet) error {
		if fs.NArg() == 0 {
			return errors.New("missing file argument")
		}
		subject, test := flagString(fs, "subject"), flagString(fs, "test")
		if subject == "" || test == "" {
			return errors.New("--subject and --test are required")
		}

		path := fs.Arg(0)
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		msg, err := a.api.UploadPDF(ctx, path, f, subject, test)
		if err != nil {
			return err
		}
		fmt.Println(msg)
		return nil
	},
}
