// Command streamclient follows a session's answer stream and prints it.
//
//	streamclient -base http://localhost:3000 -chatbot 1 -session abc
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"

	"chatbots-be/pkg/sse"

	"github.com/fatih/color"
)

const correlationEvent = "response_id"

func main() {
	base := flag.String("base", "http://localhost:3000", "API base URL")
	chatbotId := flag.Int64("chatbot", 0, "chatbot id")
	sessionId := flag.String("session", "", "session identifier")
	flag.Parse()

	if *chatbotId <= 0 || *sessionId == "" {
		color.Red("Both -chatbot and -session are required")
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, *base, *chatbotId, *sessionId, os.Stdout); err != nil {
		if errors.Is(err, context.Canceled) {
			color.Yellow("\nInterrupted")
			return
		}
		color.Red("Stream failed: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, base string, chatbotId int64, sessionId string, out io.Writer) error {
	endpoint, err := url.JoinPath(base, "chatbots", fmt.Sprint(chatbotId), "sessions", url.PathEscape(sessionId), "stream")
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	color.Cyan("Connecting to %s", endpoint)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("unexpected status %s: %s", resp.Status, body)
	}

	rd := sse.NewReader(resp.Body)
	for {
		ev, err := rd.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return errors.New("stream ended without a done event")
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		switch {
		case ev.IsDone || ev.Name == sse.DoneEventName:
			color.Green("\n[done]")
			return nil
		case ev.Name == correlationEvent:
			color.Yellow("response id: %s", ev.Data)
		case ev.Name != "":
			color.New(color.FgBlue).Fprintf(out, "[%s] ", ev.Name)
			fmt.Fprintln(out, ev.Data)
		default:
			fmt.Fprintln(out, ev.Data)
		}
	}
}
