// Package uploader moves a large file to object storage as a multipart upload.
//
// A Coordinator asks a Negotiator to open a remote multipart session, splits the
// source into the part ranges the session dictates, pushes every range to its
// presigned address through a bounded WorkerPool and finally submits the part
// tags, sorted by part number, to finalize the session. Any part failure or an
// explicit Cancel while parts are still moving aborts the remote session.
//
//	coord, err := uploader.New(sdk.NewClient(endpoint), src, uploader.FileMetadata{Name: "clip.mp4"})
//	if err != nil {
//		return err
//	}
//	coord.OnProgress(func(s uploader.Snapshot) { log.Printf("%.1f%%", s.PercentComplete) })
//	url, err := coord.Start(ctx)
package uploader
