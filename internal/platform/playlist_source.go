package platform

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ytget/yt-mashup/internal/model"
	"github.com/ytget/ytdlp/v2"
)

// Timeout constants
const (
	DefaultPlaylistTimeout = 60 * time.Second
)

// URL parameters and separators
const (
	PlaylistParam  = "list="
	ParamSeparator = "&"
)

// PlaylistSource supplies discovery candidates from a playlist instead of a
// search page. The query passed to Candidates is recorded but not used.
type PlaylistSource struct {
	playlistID string
	timeout    time.Duration
	listIDs    func(ctx context.Context, playlistID string) ([]string, error)
}

// NewPlaylistSource creates a source for a playlist ID or playlist URL.
func NewPlaylistSource(playlist string) (*PlaylistSource, error) {
	id := extractPlaylistID(playlist)
	if id == "" {
		return nil, fmt.Errorf("could not extract playlist ID from %q", playlist)
	}
	return &PlaylistSource{
		playlistID: id,
		timeout:    DefaultPlaylistTimeout,
		listIDs:    listPlaylistVideoIDs,
	}, nil
}

// SetTimeout sets the timeout for fetching playlist items
func (p *PlaylistSource) SetTimeout(timeout time.Duration) {
	p.timeout = timeout
}

// PlaylistID returns the resolved playlist identifier
func (p *PlaylistSource) PlaylistID() string {
	return p.playlistID
}

// Candidates returns every video identifier in the playlist, in playlist order.
func (p *PlaylistSource) Candidates(ctx context.Context, query string) (model.SearchResult, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	ids, err := p.listIDs(ctx, p.playlistID)
	if err != nil {
		return model.SearchResult{}, fmt.Errorf("failed to get playlist items: %w", err)
	}

	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if len(id) == model.VideoIDLength {
			valid = append(valid, id)
		}
	}
	return model.SearchResult{Query: query, IDs: valid}, nil
}

func listPlaylistVideoIDs(ctx context.Context, playlistID string) ([]string, error) {
	d := ytdlp.New()
	items, err := d.GetPlaylistItemsAll(ctx, playlistID, 0)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.VideoID)
	}
	return ids, nil
}

// extractPlaylistID accepts a bare playlist ID or any URL carrying list=
func extractPlaylistID(playlist string) string {
	playlist = strings.TrimSpace(playlist)
	if !strings.Contains(playlist, PlaylistParam) {
		if strings.ContainsAny(playlist, "/?&=") {
			return ""
		}
		return playlist
	}
	parts := strings.SplitN(playlist, PlaylistParam, 2)
	id := parts[1]
	if strings.Contains(id, ParamSeparator) {
		id = strings.Split(id, ParamSeparator)[0]
	}
	return id
}
