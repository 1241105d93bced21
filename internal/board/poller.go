package board

import (
	"context"
	"log"
	"time"
)

// Handler processes one post and returns the reply body. Returning an
// error skips the reply; the post is not retried.
type Handler func(ctx context.Context, post Post) (string, error)

// Poller drives the fetch/handle/reply loop at a fixed interval. Posts
// are handled strictly one at a time, oldest first.
type Poller struct {
	client   *Client
	interval time.Duration
	cursor   string
	handle   Handler
}

// NewPoller creates a poller starting after cursor (empty for the
// newest page).
func NewPoller(client *Client, interval time.Duration, cursor string, handle Handler) *Poller {
	return &Poller{
		client:   client,
		interval: interval,
		cursor:   cursor,
		handle:   handle,
	}
}

// Run polls until ctx is cancelled. The first poll happens immediately.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.pollOnce(ctx)
	for {
		select {
		case <-ticker.C:
			p.pollOnce(ctx)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (p *Poller) pollOnce(ctx context.Context) {
	posts, err := p.client.FetchSince(ctx, p.cursor)
	if err != nil {
		log.Printf("poll: fetch: %v", err)
		return
	}

	for _, post := range posts {
		reply, err := p.handle(ctx, post)
		if err != nil {
			log.Printf("poll: handle %s: %v", post.ID, err)
			p.cursor = post.ID
			continue
		}
		if reply != "" {
			if err := p.client.Reply(ctx, post.ID, reply); err != nil {
				log.Printf("poll: reply %s: %v", post.ID, err)
			}
		}
		p.cursor = post.ID
	}
}
