package main

import (
	"context"
	"fmt"
	"os"

	"github.com/beanbocchi/tubeup/pkg/sdk"
	"github.com/beanbocchi/tubeup/pkg/uploader"
)

func main() {
	client := sdk.NewClient("http://localhost:8080/api/v1")

	path := "example/sample.mp4"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	src, err := uploader.OpenFile(path)
	if err != nil {
		fmt.Printf("Open failed: %v\n", err)
		return
	}
	defer src.Close()

	up, err := uploader.New(client, src, src.Metadata(),
		uploader.WithConcurrency(4),
		uploader.WithPartRetries(2, 0),
	)
	if err != nil {
		fmt.Printf("Setup failed: %v\n", err)
		return
	}
	up.OnProgress(func(s uploader.Snapshot) {
		fmt.Printf("%5.1f%% (%d/%d parts)\n", s.PercentComplete, s.PartsCompleted, s.PartsTotal)
	})

	url, err := up.Start(context.Background())
	if err != nil {
		fmt.Printf("Upload failed in state %s: %v\n", up.State(), err)
		return
	}
	fmt.Printf("Upload successful: %s\n", url)

	// Open sessions left behind by other clients
	page, err := client.ListUploads(context.Background(), 1, 10)
	if err != nil {
		fmt.Printf("List failed: %v\n", err)
		return
	}
	for _, u := range page.Uploads {
		fmt.Printf("open: %s %s (%d/%d parts)\n", u.SessionID, u.FileName, u.PartsReceived, u.NumParts)
	}
}
