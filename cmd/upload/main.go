// Command upload sends insurance documents to a rhythmrisk server and waits
// for each one to finish processing.
//
//	upload [flags] file...
//
// The bearer token is kept in a session file between runs. Log in once with
// -login and a password in RHYTHM_PASSWORD.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/JaimeStill/rhythmrisk/pkg/client"
	"github.com/JaimeStill/rhythmrisk/pkg/formatting"
	"github.com/JaimeStill/rhythmrisk/pkg/session"
	"github.com/JaimeStill/rhythmrisk/pkg/upload"
)

const (
	envServer   = "RHYTHM_SERVER_URL"
	envPassword = "RHYTHM_PASSWORD"
)

// errFailures reports that at least one upload did not complete.
var errFailures = errors.New("one or more uploads failed")

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errFailures) {
			fmt.Fprintln(os.Stderr, "upload:", err)
		}
		os.Exit(1)
	}
}

type options struct {
	server   string
	login    string
	entity   string
	logout   bool
	session  string
	timeout  time.Duration
	interval time.Duration
	verbose  bool
	files    []string
}

func parse(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	fs.SetOutput(stderr)

	server := os.Getenv(envServer)
	if server == "" {
		server = "http://localhost:8000"
	}

	var o options
	fs.StringVar(&o.server, "server", server, "service root URL")
	fs.StringVar(&o.login, "login", "", "log in as this email before uploading (password from "+envPassword+")")
	fs.StringVar(&o.entity, "entity", "", "assign uploaded documents to this entity id")
	fs.BoolVar(&o.logout, "logout", false, "clear the saved session and exit")
	fs.StringVar(&o.session, "session", "", "session file (default: user config dir)")
	fs.DurationVar(&o.timeout, "timeout", upload.DefaultPollConfig().MaxDuration, "maximum time to wait for processing")
	fs.DurationVar(&o.interval, "interval", upload.DefaultPollConfig().Interval, "status polling interval")
	fs.BoolVar(&o.verbose, "v", false, "log every status transition")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	o.files = fs.Args()

	if o.session == "" {
		path, err := session.DefaultPath()
		if err != nil {
			return nil, err
		}
		o.session = path
	}
	if !o.logout && o.login == "" && len(o.files) == 0 {
		return nil, errors.New("no files given")
	}
	return &o, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	o, err := parse(args, stderr)
	if err != nil {
		return err
	}

	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	c, err := client.New(client.Config{
		BaseURL: o.server,
		Session: session.NewFileStore(o.session),
		Logger:  logger,
		OnUnauthorized: func() {
			fmt.Fprintln(stderr, "session expired; log in again with -login")
		},
	})
	if err != nil {
		return err
	}

	if o.logout {
		if err := c.Logout(); err != nil {
			return err
		}
		fmt.Fprintln(stdout, "logged out")
		return nil
	}

	if o.login != "" {
		user, err := c.Login(ctx, o.login, os.Getenv(envPassword))
		if err != nil {
			return fmt.Errorf("login: %w", err)
		}
		fmt.Fprintf(stdout, "logged in as %s\n", user.Email)
	}

	if len(o.files) == 0 {
		return nil
	}

	files := make([]upload.File, 0, len(o.files))
	for _, path := range o.files {
		f, err := upload.FromPath(path)
		if err != nil {
			return err
		}
		files = append(files, f)
	}

	poll := upload.DefaultPollConfig()
	poll.StartDelay = o.interval
	poll.Interval = o.interval
	poll.MaxDuration = o.timeout

	orch := upload.New(c, upload.Config{Poll: poll, Logger: logger})
	defer orch.Close()

	orch.UploadFilesForEntity(o.entity, files)
	watch(ctx, orch, files, stdout)

	if err := ctx.Err(); err != nil {
		return err
	}
	return report(orch.Records(), files, stdout)
}

// watch prints each record whenever its status changes until nothing is in flight.
func watch(ctx context.Context, orch *upload.Orchestrator, files []upload.File, stdout io.Writer) {
	seen := map[string]upload.Status{}
	sizes := sizeIndex(files)

	for {
		changed := orch.Changed()
		records := orch.Records()
		for _, r := range records {
			if seen[r.ID] == r.Status {
				continue
			}
			seen[r.ID] = r.Status
			fmt.Fprintf(stdout, "%-10s %s (%s)\n", r.Status, r.FileName, sizes[r.FileName])
		}

		if upload.Summarize(records).InFlight() == 0 {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-changed:
		}
	}
}

func report(records []upload.Record, files []upload.File, stdout io.Writer) error {
	sizes := sizeIndex(files)
	fmt.Fprintln(stdout)
	for _, r := range records {
		switch r.Status {
		case upload.StatusCompleted:
			fmt.Fprintf(stdout, "ok    %s %s document=%s\n", r.FileName, sizes[r.FileName], r.DocumentID)
		case upload.StatusError:
			fmt.Fprintf(stdout, "fail  %s %s: %s\n", r.FileName, sizes[r.FileName], r.Error)
		}
	}

	s := upload.Summarize(records)
	fmt.Fprintf(stdout, "%d completed, %d failed\n", s.Completed, s.Failed)
	if s.Failed > 0 {
		return errFailures
	}
	return nil
}

func sizeIndex(files []upload.File) map[string]string {
	sizes := make(map[string]string, len(files))
	for _, f := range files {
		sizes[f.Name] = formatting.FormatBytes(f.Size, 1)
	}
	return sizes
}
