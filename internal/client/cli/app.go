// Package cli implements the upload CLI: start, resume and cancel a
// resumable upload against the Open Mool server.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/openmool/openmool/internal/client/config"
	"github.com/openmool/openmool/internal/client/session"
	"github.com/openmool/openmool/internal/client/transport"
	"github.com/openmool/openmool/internal/logging"
)

// Uploader is the session surface the CLI drives. Implemented by
// session.Manager.
type Uploader interface {
	Start(ctx context.Context, src session.Source) (*session.Result, error)
	Resume(ctx context.Context, src session.Source) (*session.Result, error)
	Cancel(ctx context.Context) error
}

// MetadataClient registers a finished upload's metadata.
type MetadataClient interface {
	CompleteUpload(ctx context.Context, key, title, description, language string) (int64, error)
}

type App struct {
	config   *config.Config
	uploader Uploader
	api      MetadataClient
	reader   *bufio.Reader
	out      io.Writer
}

func NewApp(cfg *config.Config) (*App, error) {
	if cfg.Token == "" {
		token, err := GetToken(os.Stdout)
		if err != nil {
			return nil, fmt.Errorf("failed to read token: %w", err)
		}
		cfg.Token = token
	}

	tr := transport.NewHTTPTransport(cfg.ServerBaseURL, cfg.Token)
	states := session.NewFileStore(filepath.Join(cfg.StateDir, "session.json"))
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	manager := session.NewManager(tr, states, logger)
	manager.OnProgress = func(done, total int32) {
		fmt.Fprintf(os.Stdout, "\ruploaded %d/%d parts", done, total)
		if done == total {
			fmt.Fprintln(os.Stdout)
		}
	}

	return &App{
		config:   cfg,
		uploader: manager,
		api:      tr,
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
	}, nil
}

const usage = `usage:
  upload <file>   start (or continue) an upload
  resume <file>   resume an interrupted upload
  cancel          abort the pending upload and clear local state`

// Run dispatches one CLI command.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.out, usage)
		return nil
	}

	switch args[0] {
	case "upload":
		if len(args) < 2 {
			return fmt.Errorf("upload requires a file path")
		}
		return a.upload(ctx, args[1], false)
	case "resume":
		if len(args) < 2 {
			return fmt.Errorf("resume requires a file path")
		}
		return a.upload(ctx, args[1], true)
	case "cancel":
		if err := a.uploader.Cancel(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "upload cancelled")
		return nil
	default:
		fmt.Fprintln(a.out, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func (a *App) upload(ctx context.Context, path string, resume bool) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	src, err := session.FileSource(file)
	if err != nil {
		return err
	}

	var res *session.Result
	if resume {
		res, err = a.uploader.Resume(ctx, src)
	} else {
		res, err = a.uploader.Start(ctx, src)
	}
	if err != nil {
		return err
	}
	if !res.Completed {
		fmt.Fprintln(a.out, "upload paused; run resume to continue")
		return nil
	}

	return a.registerArtifact(ctx, res.ObjectKey, src.Name())
}

// registerArtifact collects metadata and creates the media record, which
// also kicks off server-side enrichment.
func (a *App) registerArtifact(ctx context.Context, key, filename string) error {
	title, err := GetSimpleText(a.reader, "Title", a.out)
	if err != nil {
		return err
	}
	if title == "" {
		title = filename
	}

	description, err := GetSimpleText(a.reader, "Description (optional)", a.out)
	if err != nil {
		return err
	}

	language, err := GetSimpleText(a.reader, "Language (optional)", a.out)
	if err != nil {
		return err
	}

	id, err := a.api.CompleteUpload(ctx, key, title, description, language)
	if err != nil {
		return fmt.Errorf("upload stored but registration failed, key %s: %w", key, err)
	}

	fmt.Fprintf(a.out, "created media artifact %d (key %s)\n", id, key)
	return nil
}
