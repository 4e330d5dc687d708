package scan

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"bizcard/cmd"
	"bizcard/internal/capture"
	"bizcard/internal/models"
	"bizcard/internal/service"
	"bizcard/internal/store"
)

// openExtraction is replaced in tests
var openExtraction = cmd.OpenExtraction

func CMD() *cli.Command {
	return &cli.Command{
		Name:  "scan",
		Usage: "Extract a card from photo files, optionally saving it",
		Flags: append(cmd.ConfigFlags(),
			&cli.StringFlag{Name: "front", Usage: "front side photo", Required: true},
			&cli.StringFlag{Name: "back", Usage: "back side photo"},
			&cli.StringFlag{Name: "owner", Usage: "owner id to save the card under"},
			&cli.StringFlag{Name: "notes", Usage: "notes stored with the card"},
			&cli.BoolFlag{Name: "save", Usage: "save the card after extraction"},
		),
		Action: run,
	}
}

func run(c *cli.Context) error {
	cfg, err := cmd.LoadConfig(c)
	if err != nil {
		return err
	}
	if c.Bool("save") && c.String("owner") == "" {
		return errors.New("--owner is required with --save")
	}
	log := cmd.NewLogger(cfg.LogLevel, cfg.LogJSON)
	ctx := c.Context

	ai, err := openExtraction(ctx, cfg, log)
	if err != nil {
		return err
	}

	paths := []string{c.String("front")}
	if back := c.String("back"); back != "" {
		paths = append(paths, back)
	}
	ctl := capture.New(capture.NewFileCamera(paths...), ai,
		capture.WithEncoder(cmd.NewEncoder(cfg)),
		capture.WithAcquireTimeout(cfg.AcquireTimeout),
		capture.WithLogger(log),
	)
	defer ctl.Close()

	if err := ctl.Start(ctx); err != nil {
		return err
	}
	if err := ctl.Capture(ctx); err != nil {
		return errors.Wrap(err, "front")
	}
	if len(paths) > 1 {
		if err := ctl.StartCamera(ctx); err != nil {
			return err
		}
		if err := ctl.Capture(ctx); err != nil {
			return errors.Wrap(err, "back")
		}
	} else if err := ctl.SkipBack(); err != nil {
		return err
	}

	result, err := ctl.Analyze(ctx)
	if err != nil {
		return err
	}

	var out any = result
	if c.Bool("save") {
		db, err := cmd.OpenDB(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer db.Close()
		blobs, err := cmd.OpenBlobs(cfg, db)
		if err != nil {
			return err
		}
		review, err := ctl.Review()
		if err != nil {
			return err
		}
		cards := service.NewCardService(store.NewCards(store.NewDocuments(db), log), blobs, store.Refs{BaseURL: cfg.PublicBaseURL}, ai, log)
		resp, err := cards.Save(ctx, c.String("owner"), review, models.SaveCardRequest{Notes: c.String("notes")})
		if err != nil {
			return err
		}
		out = resp
	}

	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return errors.Wrap(err, "write result")
	}
	if !c.Bool("save") {
		fmt.Fprintln(c.App.ErrWriter, "not saved; pass --save --owner <id> to store the card")
	}
	return nil
}

func init() {
	cmd.Register(CMD())
}
