package api

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// doneMarker terminates an OpenAI-compatible event stream.
const doneMarker = "[DONE]"

// errStreamDone stops ReadEvents at the end marker.
var errStreamDone = errors.New("stream done")

// ReadEvents calls fn with the payload of every "data:" line in r until the
// "[DONE]" marker or EOF. Comment and other field lines are skipped.
func ReadEvents(r io.Reader, fn func(data string) error) error {
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			if handleErr := handleEventLine(line, fn); handleErr != nil {
				if errors.Is(handleErr, errStreamDone) {
					return nil
				}
				return handleErr
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read event stream: %w", err)
		}
	}
}

func handleEventLine(line string, fn func(string) error) error {
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")

	data, ok := strings.CutPrefix(line, "data:")
	if !ok {
		return nil
	}
	data = strings.TrimPrefix(data, " ")
	if data == doneMarker {
		return errStreamDone
	}
	if data == "" {
		return nil
	}
	return fn(data)
}

// DeltaContent extracts choices[0].delta.content from a completion chunk.
// Unparseable chunks yield "".
func DeltaContent(chunk string) string {
	if !gjson.Valid(chunk) {
		return ""
	}
	return gjson.Get(chunk, "choices.0.delta.content").String()
}

// Stream POSTs body to path on the general API and writes the text content of
// every streamed chunk to w as it arrives.
func (c *Client) Stream(ctx context.Context, path string, body any, opts Options, w io.Writer) error {
	resp, elapsed, err := c.send(ctx, c.endpoints.APIURL, http.MethodPost, path, body, opts, "text/event-stream")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	c.traceResponse(opts, resp.StatusCode, elapsed)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(resp.Body)
		return parseServerError(resp.StatusCode, data)
	}

	return ReadEvents(resp.Body, func(data string) error {
		content := DeltaContent(data)
		if content == "" {
			return nil
		}
		if _, err := io.WriteString(w, content); err != nil {
			return fmt.Errorf("write stream output: %w", err)
		}
		return nil
	})
}
