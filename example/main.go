package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

const baseURL = "http://localhost:8080/api/v1"

// This example walks the negotiation protocol by hand: initiate, PUT every
// part to its address, then complete with the collected ETags.

type envelope[T any] struct {
	Data  T `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type initiateResponse struct {
	SessionID string `json:"sessionId"`
	ObjectKey string `json:"objectKey"`
	PartSize  int64  `json:"partSize"`
	Parts     []struct {
		PartNumber int    `json:"partNumber"`
		URL        string `json:"url"`
	} `json:"parts"`
}

type completedPart struct {
	PartNumber int    `json:"partNumber"`
	ETag       string `json:"etag"`
}

func main() {
	path := "example/sample.mp4"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Printf("Read error: %v\n", err)
		return
	}

	fmt.Println("=== Initiate ===")
	var opened envelope[initiateResponse]
	if err := postJSON("/uploads/initiate", map[string]any{
		"fileName":    filepath.Base(path),
		"fileSize":    len(data),
		"contentType": "video/mp4",
	}, &opened); err != nil {
		fmt.Printf("Initiate error: %v\n", err)
		return
	}
	fmt.Printf("Session %s, %d parts of %d bytes\n", opened.Data.SessionID, len(opened.Data.Parts), opened.Data.PartSize)

	fmt.Println("\n=== Upload parts ===")
	parts := make([]completedPart, 0, len(opened.Data.Parts))
	for _, p := range opened.Data.Parts {
		start := int64(p.PartNumber-1) * opened.Data.PartSize
		end := min(start+opened.Data.PartSize, int64(len(data)))

		etag, err := putPart(p.URL, data[start:end])
		if err != nil {
			fmt.Printf("Part %d error: %v\n", p.PartNumber, err)
			abort(opened.Data.SessionID, opened.Data.ObjectKey)
			return
		}
		fmt.Printf("Part %d: %s\n", p.PartNumber, etag)
		parts = append(parts, completedPart{PartNumber: p.PartNumber, ETag: etag})
	}

	fmt.Println("\n=== Complete ===")
	var done envelope[struct {
		URL string `json:"url"`
	}]
	if err := postJSON("/uploads/complete", map[string]any{
		"sessionId": opened.Data.SessionID,
		"objectKey": opened.Data.ObjectKey,
		"parts":     parts,
	}, &done); err != nil {
		fmt.Printf("Complete error: %v\n", err)
		abort(opened.Data.SessionID, opened.Data.ObjectKey)
		return
	}
	fmt.Printf("Uploaded to %s\n", done.Data.URL)
}

func putPart(url string, body []byte) (string, error) {
	req, err := http.NewRequest(http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(msg))
	}
	return resp.Header.Get("ETag"), nil
}

func abort(sessionID, objectKey string) {
	var res envelope[string]
	if err := postJSON("/uploads/abort", map[string]string{"sessionId": sessionID, "objectKey": objectKey}, &res); err != nil {
		fmt.Printf("Abort error: %v\n", err)
		return
	}
	fmt.Println("Session aborted")
}

func postJSON[T any](path string, body any, out *envelope[T]) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := http.Post(baseURL+path, "application/json", bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}
	if out.Error != nil {
		return fmt.Errorf("%s: %s", out.Error.Code, out.Error.Message)
	}
	return nil
}
