package domain

import "strings"

type ChannelID string

// NormalizeChannelID lowercases a channel login. Channel names are
// case-insensitive upstream.
func NormalizeChannelID(raw string) ChannelID {
	return ChannelID(strings.ToLower(strings.TrimSpace(raw)))
}

// ClientProfile is the player identity presented to the upstream API.
// Token issuance policy differs per profile, so negotiation walks them
// in a fixed priority order.
type ClientProfile string

const (
	ProfileSite      ClientProfile = "site"
	ProfileEmbed     ClientProfile = "embed"
	ProfilePopout    ClientProfile = "popout"
	ProfileFrontpage ClientProfile = "frontpage"
)

// ProfileFallbackOrder is the negotiation priority order.
var ProfileFallbackOrder = []ClientProfile{
	ProfileSite,
	ProfileEmbed,
	ProfilePopout,
	ProfileFrontpage,
}

// PlaybackToken is the short-lived signed credential required to fetch a
// channel's media playlist. Lifetime is a single playlist fetch; it is
// never persisted.
type PlaybackToken struct {
	Value      string
	Signature  string
	Authorized bool
	Reason     string
}

type StreamMetadata struct {
	DisplayName     string `json:"display_name"`
	ProfileImageURL string `json:"profile_image_url,omitempty"`
	Title           string `json:"title,omitempty"`
	ViewerCount     int    `json:"viewer_count"`
	GameName        string `json:"game_name,omitempty"`
	IsLive          bool   `json:"is_live"`
}

type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// QualityVariant is one rendition from the master playlist. Order is
// playlist appearance order; duplicate labels are legal and preserved.
type QualityVariant struct {
	Label      string      `json:"label"`
	Group      string      `json:"group,omitempty"`
	Resolution *Resolution `json:"resolution,omitempty"`
	FrameRate  float64     `json:"frame_rate,omitempty"`
	Bandwidth  int         `json:"bandwidth,omitempty"`
	SourceURL  string      `json:"-"`
	URL        string      `json:"url"`
}

// ChannelInfo is the /stream/:channel response payload.
type ChannelInfo struct {
	Channel   string           `json:"channel"`
	Qualities []QualityVariant `json:"qualities"`
	Playlist  string           `json:"playlist"`
	Metadata  *StreamMetadata  `json:"metadata,omitempty"`
}
