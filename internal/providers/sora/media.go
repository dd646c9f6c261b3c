package sora

import (
	"encoding/base64"
	"strings"
)

// MediaKind tags the normalized provider result.
type MediaKind int

const (
	MediaNone MediaKind = iota
	MediaInline
	MediaRemoteURL
)

// Media is the normalized result of a generation job: either inline bytes
// or a downloadable URL.
type Media struct {
	Kind MediaKind
	URL  string
	Data []byte
}

// DataURL encodes bytes as an embeddable data URL.
func DataURL(data []byte, mime string) string {
	if mime == "" {
		mime = "application/octet-stream"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// jobResponse mirrors the provider's submit/poll payloads. Providers differ
// on field names for the same concepts, so both spellings decode and a
// single accessor resolves them.
type jobResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	State  string `json:"state"`
	Error  *struct {
		Message string `json:"message"`
	} `json:"error"`
	Video  *mediaRef  `json:"video"`
	Result *mediaRef  `json:"result"`
	Data   []mediaRef `json:"data"`
}

type mediaRef struct {
	URL         string `json:"url"`
	DownloadURL string `json:"download_url"`
}

func (m *mediaRef) resolve() string {
	if m == nil {
		return ""
	}
	if m.URL != "" {
		return m.URL
	}
	return m.DownloadURL
}

func (j *jobResponse) state() string {
	if j.Status != "" {
		return strings.ToLower(j.Status)
	}
	return strings.ToLower(j.State)
}

func (j *jobResponse) errorMessage() string {
	if j.Error != nil && j.Error.Message != "" {
		return j.Error.Message
	}
	return "unspecified provider error"
}

// media returns any result URL embedded directly in the job payload.
func (j *jobResponse) media() Media {
	if url := j.Video.resolve(); url != "" {
		return Media{Kind: MediaRemoteURL, URL: url}
	}
	if url := j.Result.resolve(); url != "" {
		return Media{Kind: MediaRemoteURL, URL: url}
	}
	for i := range j.Data {
		if url := j.Data[i].resolve(); url != "" {
			return Media{Kind: MediaRemoteURL, URL: url}
		}
	}
	return Media{Kind: MediaNone}
}

type fileEntry struct {
	ID               string `json:"id"`
	Filename         string `json:"filename"`
	MimeType         string `json:"mime_type"`
	URL              string `json:"url"`
	DownloadURLField string `json:"download_url"`
}

func (f fileEntry) isVideo() bool {
	return strings.Contains(f.MimeType, "video") || strings.HasSuffix(f.Filename, ".mp4")
}

func (f fileEntry) downloadURL() string {
	if f.DownloadURLField != "" {
		return f.DownloadURLField
	}
	return f.URL
}
