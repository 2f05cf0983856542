package logstream

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"minutes/internal/api"
)

// followPage is the page size once a follow stream has caught up.
const followPage = 200

var ErrFiltersRequireAPI = errors.New("log filters require the daemon API")

// Filters narrow API log output. Empty fields match everything.
type Filters struct {
	Component     string
	GroupID       string
	RecordID      string
	CorrelationID string
	Level         string
}

func (f Filters) set() bool {
	for _, v := range []string{f.Component, f.GroupID, f.RecordID, f.CorrelationID, f.Level} {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}

type Options struct {
	// Lines is the size of the initial backlog; zero means followPage.
	Lines   int
	Follow  bool
	Filters Filters
	// LogPath is tailed when the daemon cannot be reached.
	LogPath string
}

// Stream prints the daemon's recent log output, preferring the structured
// API (onEvent) and falling back to raw lines from LogPath (onLine). The
// fallback only runs when the API failed before anything was printed. It
// reports whether anything was printed.
func Stream(ctx context.Context, client *api.Client, opts Options, onEvent func(api.LogEvent), onLine func(string)) (bool, error) {
	printed, err := pageAPI(ctx, client, opts, onEvent)
	switch {
	case err == nil:
		return printed, nil
	case printed || !api.IsUnavailable(err):
		return printed, err
	case opts.Filters.set():
		return false, fmt.Errorf("%w: %w", ErrFiltersRequireAPI, api.ErrUnavailable)
	case strings.TrimSpace(opts.LogPath) == "":
		return false, api.ErrUnavailable
	}
	return tailFile(ctx, opts.LogPath, opts.Lines, opts.Follow, onLine)
}

// pageAPI asks for the newest Lines events, then long-polls from the
// returned cursor while following.
func pageAPI(ctx context.Context, client *api.Client, opts Options, onEvent func(api.LogEvent)) (bool, error) {
	f := opts.Filters
	q := api.LogQuery{
		Limit:         opts.Lines,
		Tail:          true,
		Component:     f.Component,
		GroupID:       f.GroupID,
		RecordID:      f.RecordID,
		CorrelationID: f.CorrelationID,
		Level:         f.Level,
	}
	if q.Limit <= 0 {
		q.Limit = followPage
	}

	printed := false
	for {
		page, err := client.Logs(ctx, q)
		if err != nil {
			return printed, err
		}
		for _, evt := range page.Events {
			printed = true
			if onEvent != nil {
				onEvent(evt)
			}
		}
		if !opts.Follow {
			return printed, nil
		}
		q.Since, q.Limit, q.Tail, q.Follow = page.Next, followPage, false, true
	}
}
