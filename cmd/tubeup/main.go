package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/urfave/cli/v2"

	"github.com/beanbocchi/tubeup/pkg/sdk"
	"github.com/beanbocchi/tubeup/pkg/uploader"
	"github.com/beanbocchi/tubeup/pkg/uploader/s3direct"
)

const (
	kiB = 1024
	miB = 1024 * kiB
	giB = 1024 * miB
)

const defaultEndpoint = "http://localhost:8080/api/v1"

func negotiatorFor(c *cli.Context) (uploader.Negotiator, error) {
	bucket := c.String("s3-bucket")
	if bucket == "" {
		return sdk.NewClient(c.String("endpoint")), nil
	}
	return s3direct.NewFromConfig(c.Context, s3direct.Config{
		Bucket:        bucket,
		Region:        c.String("s3-region"),
		KeyPrefix:     c.String("s3-prefix"),
		PublicBaseURL: c.String("s3-public-url"),
	})
}

func upload(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return fmt.Errorf("one argument expected")
	}
	path, err := homedir.Expand(c.Args().First())
	if err != nil {
		return fmt.Errorf("invalid path %q", c.Args().First())
	}

	src, err := uploader.OpenFile(path)
	if err != nil {
		return err
	}
	defer src.Close()

	neg, err := negotiatorFor(c)
	if err != nil {
		return err
	}

	opts := []uploader.Option{
		uploader.WithPartTimeout(c.Duration("part-timeout")),
		uploader.WithPartRetries(c.Int("retries"), time.Second),
	}
	if n := c.Int("concurrency"); n > 0 {
		opts = append(opts, uploader.WithConcurrency(n))
	}
	if c.Bool("sequential") {
		opts = append(opts, uploader.WithSequential())
	}

	meta := src.Metadata()
	if ct := c.String("content-type"); ct != "" {
		meta.ContentType = ct
	}

	up, err := uploader.New(neg, src, meta, opts...)
	if err != nil {
		return err
	}
	if !c.Bool("quiet") {
		up.OnProgress(printProgress)
	}

	sigCtx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-sigCtx.Done()
		if up.Cancel() {
			fmt.Fprintln(os.Stderr, "\ncanceling upload")
		}
	}()

	fmt.Printf("upload: %s (%s, %s)\n", path, strings.TrimSpace(humanBytes(uint64(meta.Size))), meta.ContentType)
	url, err := up.Start(c.Context)
	if !c.Bool("quiet") {
		fmt.Println()
	}
	if errors.Is(err, uploader.ErrCanceled) {
		return fmt.Errorf("upload canceled, session %s aborted", up.Session().SessionID)
	}
	if err != nil {
		return err
	}

	fmt.Println(url)
	return nil
}

func printProgress(s uploader.Snapshot) {
	eta := "--"
	if s.ETAKnown {
		eta = (time.Duration(s.EstimatedSecondsRemaining) * time.Second).String()
	}
	fmt.Printf("\r%5.1f%%  %s/s  parts %d/%d  eta %-10s",
		s.PercentComplete,
		strings.TrimSpace(humanBytes(uint64(s.ThroughputBytesPerSec))),
		s.PartsCompleted, s.PartsTotal, eta,
	)
}

func ls(c *cli.Context) error {
	client := sdk.NewClient(c.String("endpoint"))
	page, err := client.ListUploads(c.Context, int32(c.Int("page")), int32(c.Int("limit")))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SESSION\tFILE\tSIZE\tPARTS\tSTARTED")
	for _, u := range page.Uploads {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%s\n",
			u.SessionID, u.FileName, strings.TrimSpace(humanBytes(uint64(u.FileSize))),
			u.PartsReceived, u.NumParts, u.CreatedAt.Format(time.RFC3339))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if page.NextPage > 0 {
		fmt.Printf("%d sessions, next page: %d\n", page.Total, page.NextPage)
	}
	return nil
}

func abort(c *cli.Context) error {
	if c.Args().Len() != 2 {
		return fmt.Errorf("expected <session-id> <object-key>")
	}
	client := sdk.NewClient(c.String("endpoint"))
	ctx, cancel := context.WithTimeout(c.Context, uploader.DefaultNegotiationTimeout)
	defer cancel()
	return client.Abort(ctx, c.Args().Get(0), c.Args().Get(1))
}

func humanBytes(size uint64) string {
	if size < kiB {
		return fmt.Sprintf("%5.1d B", size)
	}
	if size < miB {
		return fmt.Sprintf("%5.1f KiB", float64(size)/kiB)
	}
	if size < giB {
		return fmt.Sprintf("%5.1f MiB", float64(size)/miB)
	}
	return fmt.Sprintf("%5.1f GiB", float64(size)/giB)
}

func main() {
	app := cli.NewApp()
	app.Name = "tubeup"
	app.Usage = "Upload large video files in parallel parts"
	app.Description = description
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "endpoint",
			Usage:   "tubeup server API base URL",
			Value:   defaultEndpoint,
			EnvVars: []string{"TUBEUP_ENDPOINT"},
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "log part retries and failures",
		},
	}

	app.Before = func(c *cli.Context) error {
		level := slog.LevelWarn
		if c.Bool("verbose") {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return nil
	}

	app.ExitErrHandler = func(c *cli.Context, err error) {
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
			os.Exit(1)
		}
		os.Exit(0)
	}

	app.Commands = []*cli.Command{
		{
			Name:        "upload",
			Usage:       "upload a file",
			ArgsUsage:   "<file>",
			Description: uploadDescription,
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "concurrency",
					Usage:   "parallel part uploads, 0 picks one from the CPU count",
					EnvVars: []string{"TUBEUP_CONCURRENCY"},
				},
				&cli.BoolFlag{
					Name:  "sequential",
					Usage: "upload one part at a time",
				},
				&cli.IntFlag{
					Name:    "retries",
					Usage:   "retries per failed part",
					Value:   2,
					EnvVars: []string{"TUBEUP_RETRIES"},
				},
				&cli.DurationFlag{
					Name:    "part-timeout",
					Usage:   "time limit for one part upload",
					Value:   uploader.DefaultPartTimeout,
					EnvVars: []string{"TUBEUP_PART_TIMEOUT"},
				},
				&cli.StringFlag{
					Name:  "content-type",
					Usage: "override the detected content type",
				},
				&cli.BoolFlag{
					Name:    "quiet",
					Aliases: []string{"q"},
					Usage:   "only print the final URL",
				},
				&cli.StringFlag{
					Name:    "s3-bucket",
					Usage:   "negotiate directly with this S3 bucket instead of a tubeup server",
					EnvVars: []string{"TUBEUP_S3_BUCKET"},
				},
				&cli.StringFlag{
					Name:    "s3-region",
					Usage:   "S3 region",
					EnvVars: []string{"TUBEUP_S3_REGION", "AWS_REGION"},
				},
				&cli.StringFlag{
					Name:    "s3-prefix",
					Usage:   "object key prefix in the bucket",
					Value:   "videos/video",
					EnvVars: []string{"TUBEUP_S3_PREFIX"},
				},
				&cli.StringFlag{
					Name:    "s3-public-url",
					Usage:   "base URL the uploaded objects are served from",
					EnvVars: []string{"TUBEUP_S3_PUBLIC_URL"},
				},
			},
			Action: upload,
		},
		{
			Name:  "ls",
			Usage: "list open upload sessions",
			Flags: []cli.Flag{
				&cli.IntFlag{Name: "page", Value: 1},
				&cli.IntFlag{Name: "limit", Value: 20},
			},
			Action: ls,
		},
		{
			Name:      "abort",
			Usage:     "abort an open upload session",
			ArgsUsage: "<session-id> <object-key>",
			Action:    abort,
		},
	}

	app.Run(os.Args)
}

var description = `
   tubeup splits a file into parts, uploads them in parallel and asks
   the negotiation backend to assemble them. The backend is a tubeup
   server by default (--endpoint or TUBEUP_ENDPOINT). With --s3-bucket
   the parts go straight to S3 using presigned URLs.`

var uploadDescription = `
   Press Ctrl-C to cancel. A canceled upload is aborted on the backend
   so no stored parts are left behind.

EXAMPLES:

      tubeup upload ~/videos/holiday.mp4

      tubeup upload --concurrency 8 --retries 3 big.mov

      tubeup upload --s3-bucket media --s3-region eu-west-1 clip.mp4
`
