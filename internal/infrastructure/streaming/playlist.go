package streaming

import (
	"net/url"
	"path"
	"strconv"
	"strings"

	"streamgate/internal/core/domain"
)

const (
	mediaTag     = "#EXT-X-MEDIA:"
	streamInfTag = "#EXT-X-STREAM-INF:"
)

// ParseMaster decomposes a master playlist into quality variants with a
// single forward scan. A media tag opens a pending variant, a stream-inf
// tag attaches transport attributes (opening a variant when none is
// pending), and a bare URL line closes it. Output order is playlist
// appearance order; duplicates are preserved.
func ParseMaster(playlist string) []domain.QualityVariant {
	var variants []domain.QualityVariant
	var pending *domain.QualityVariant

	for _, raw := range strings.Split(playlist, "\n") {
		line := strings.TrimSpace(raw)

		switch {
		case strings.HasPrefix(line, mediaTag):
			attrs := parseAttributes(strings.TrimPrefix(line, mediaTag))
			pending = &domain.QualityVariant{
				Label: attrs["NAME"],
				Group: attrs["GROUP-ID"],
			}

		case strings.HasPrefix(line, streamInfTag):
			if pending == nil {
				pending = &domain.QualityVariant{}
			}
			attrs := parseAttributes(strings.TrimPrefix(line, streamInfTag))
			if pending.Label == "" {
				pending.Label = attrs["VIDEO"]
			}
			if pending.Group == "" {
				pending.Group = attrs["VIDEO"]
			}
			if res, ok := parseResolution(attrs["RESOLUTION"]); ok {
				pending.Resolution = res
			}
			if fr, err := strconv.ParseFloat(attrs["FRAME-RATE"], 64); err == nil {
				pending.FrameRate = fr
			}
			if bw, err := strconv.Atoi(attrs["BANDWIDTH"]); err == nil {
				pending.Bandwidth = bw
			}

		case line == "" || strings.HasPrefix(line, "#"):
			// comment, unrelated tag or blank line

		default:
			if pending != nil {
				pending.SourceURL = line
				variants = append(variants, *pending)
				pending = nil
			}
		}
	}

	return variants
}

// parseAttributes splits an HLS attribute list, honoring commas inside
// quoted values.
func parseAttributes(s string) map[string]string {
	attrs := make(map[string]string)

	var key strings.Builder
	var val strings.Builder
	inValue := false
	inQuotes := false

	flush := func() {
		if key.Len() > 0 {
			attrs[key.String()] = val.String()
		}
		key.Reset()
		val.Reset()
		inValue = false
	}

	for _, r := range s {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == '=' && !inValue:
			inValue = true
		case r == ',' && !inQuotes:
			flush()
		case inValue:
			val.WriteRune(r)
		default:
			key.WriteRune(r)
		}
	}
	flush()

	return attrs
}

func parseResolution(s string) (*domain.Resolution, bool) {
	w, h, ok := strings.Cut(s, "x")
	if !ok {
		return nil, false
	}
	width, err := strconv.Atoi(w)
	if err != nil {
		return nil, false
	}
	height, err := strconv.Atoi(h)
	if err != nil {
		return nil, false
	}
	return &domain.Resolution{Width: width, Height: height}, true
}

// Rewrite routes every bare absolute URL line of a playlist back through
// the proxy fetch endpoint. Tags, comments and relative URIs pass through
// untouched, so already-rewritten playlists are left stable.
func Rewrite(playlist, proxyPrefix string) string {
	lines := strings.Split(playlist, "\n")

	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			lines[i] = line
			continue
		}
		if !isAbsoluteURL(line) {
			lines[i] = line
			continue
		}
		lines[i] = proxyPrefix + url.QueryEscape(line)
	}

	return strings.Join(lines, "\n")
}

func isAbsoluteURL(line string) bool {
	return strings.HasPrefix(line, "http://") || strings.HasPrefix(line, "https://")
}

// IsPlaylist reports whether a response should be treated as an HLS
// playlist, by content type or by the target's path extension.
func IsPlaylist(contentType, rawURL string) bool {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "application/vnd.apple.mpegurl") ||
		strings.Contains(ct, "application/x-mpegurl") ||
		strings.Contains(ct, "audio/mpegurl") {
		return true
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(path.Ext(u.Path), ".m3u8")
}
