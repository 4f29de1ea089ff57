package sdk_test

import (
	"context"
	"fmt"
	"os"

	"github.com/beanbocchi/tubeup/pkg/sdk"
	"github.com/beanbocchi/tubeup/pkg/uploader"
)

func ExampleClient() {
	client := sdk.NewClient("http://localhost:8080/api/v1")

	src, err := uploader.OpenFile("holiday.mp4")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	defer src.Close()

	up, err := uploader.New(client, src, src.Metadata(), uploader.WithPartRetries(2, 0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	up.OnProgress(func(s uploader.Snapshot) {
		fmt.Printf("%.1f%%\n", s.PercentComplete)
	})

	url, err := up.Start(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	fmt.Println(url)
}
