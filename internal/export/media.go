package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/jonesrussell/crawldesk/internal/job"
	"github.com/jonesrussell/crawldesk/internal/logger"
	"github.com/jonesrussell/crawldesk/internal/results"
)

const (
	mediaInfoPath     = "/api/media-info"
	downloadMediaPath = "/api/download-media"
)

// Stage is one phase of the media export progress indicator.
type Stage string

const (
	StageCollecting  Stage = "collecting"
	StageCompressing Stage = "compressing"
	StageReady       Stage = "ready"
)

// MediaOptions selects which media kinds the backend should package.
type MediaOptions struct {
	Images        bool
	Videos        bool
	Audio         bool
	MaxFileSizeMB int
}

// DefaultMediaOptions matches the console defaults: images and videos,
// no audio, 50 MB cap per file.
func DefaultMediaOptions() MediaOptions {
	return MediaOptions{Images: true, Videos: true, Audio: false, MaxFileSizeMB: 50}
}

// MediaResult is the backend's answer to a packaging request.
type MediaResult struct {
	DownloadURL string
	ZipFilename string
	Files       int
	Failed      int
	SizeMB      float64
}

// MediaError maps a failure to the localized message key shown to the
// user.
type MediaError struct {
	Key string
	Err error
}

func (e *MediaError) Error() string {
	return fmt.Sprintf("media export: %s: %v", e.Key, e.Err)
}

func (e *MediaError) Unwrap() error { return e.Err }

// MediaExporter requests a server-produced media archive for the
// current result set.
type MediaExporter struct {
	httpBase string
	httpc    *http.Client
	guard    SessionGuard
	log      logger.Logger

	// OnStage, when set, observes the collecting/compressing/ready
	// progression.
	OnStage func(Stage)
}

// NewMediaExporter creates a media exporter against the backend HTTP
// base URL.
func NewMediaExporter(httpBase string, guard SessionGuard, log logger.Logger) *MediaExporter {
	return &MediaExporter{
		httpBase: httpBase,
		httpc:    &http.Client{Timeout: 5 * time.Minute},
		guard:    guard,
		log:      log,
	}
}

func (e *MediaExporter) stage(s Stage) {
	if e.OnStage != nil {
		e.OnStage(s)
	}
}

// mediaInfo is the capability probe response.
type mediaInfo struct {
	Available      bool     `json:"available"`
	SupportedSites []string `json:"supported_sites"`
}

// Supports probes whether the backend can package media for a site.
// Probe failures are treated as "unknown, try anyway".
func (e *MediaExporter) Supports(ctx context.Context, site job.Site) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.httpBase+mediaInfoPath, nil)
	if err != nil {
		return true
	}
	resp, err := e.httpc.Do(req)
	if err != nil {
		e.log.Debug("media-info probe failed", zap.Error(err))
		return true
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return true
	}

	var info mediaInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return true
	}
	if !info.Available {
		return false
	}
	for _, s := range info.SupportedSites {
		if s == string(site) {
			return true
		}
	}
	return len(info.SupportedSites) == 0
}

// wirePost is the post shape the media endpoint expects.
type wirePost struct {
	Title        string `json:"title"`
	Link         string `json:"link"`
	ThumbnailURL string `json:"thumbnail,omitempty"`
	MediaType    string `json:"media_type,omitempty"`
	MediaCount   int    `json:"media_count,omitempty"`
}

type downloadRequest struct {
	Posts         []wirePost `json:"posts"`
	SiteType      string     `json:"site_type"`
	IncludeImages bool       `json:"include_images"`
	IncludeVideos bool       `json:"include_videos"`
	IncludeAudio  bool       `json:"include_audio"`
	MaxFileSizeMB int        `json:"max_file_size_mb"`
}

type downloadResponse struct {
	Success         bool    `json:"success"`
	DownloadURL     string  `json:"download_url"`
	ZipFilename     string  `json:"zip_filename"`
	DownloadedFiles int     `json:"downloaded_files"`
	FailedFiles     int     `json:"failed_files"`
	ZipSizeMB       float64 `json:"zip_size_mb"`
}

// Export asks the backend to collect and compress the result set's
// media. The result set is read-only to this call.
func (e *MediaExporter) Export(ctx context.Context, rs results.ResultSet, site job.Site, opts MediaOptions) (MediaResult, error) {
	if e.guard != nil && !e.guard.Terminal() {
		return MediaResult{}, ErrSessionActive
	}
	if len(rs.Posts) == 0 {
		return MediaResult{}, ErrNoResults
	}

	posts := make([]wirePost, 0, len(rs.Posts))
	for _, p := range rs.Posts {
		posts = append(posts, wirePost{
			Title:        p.Title,
			Link:         p.URL,
			ThumbnailURL: p.ThumbnailURL,
			MediaType:    p.MediaType,
			MediaCount:   p.MediaCount,
		})
	}

	body, err := json.Marshal(downloadRequest{
		Posts:         posts,
		SiteType:      string(site),
		IncludeImages: opts.Images,
		IncludeVideos: opts.Videos,
		IncludeAudio:  opts.Audio,
		MaxFileSizeMB: opts.MaxFileSizeMB,
	})
	if err != nil {
		return MediaResult{}, &MediaError{Key: "export.processingError", Err: err}
	}

	e.stage(StageCollecting)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.httpBase+downloadMediaPath, bytes.NewReader(body))
	if err != nil {
		return MediaResult{}, &MediaError{Key: "export.processingError", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpc.Do(req)
	if err != nil {
		return MediaResult{}, &MediaError{Key: "export.networkError", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusServiceUnavailable:
		return MediaResult{}, &MediaError{Key: "export.serviceUnavailable", Err: errors.New(resp.Status)}
	case resp.StatusCode == http.StatusNotFound:
		return MediaResult{}, &MediaError{Key: "export.serviceMissing", Err: errors.New(resp.Status)}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return MediaResult{}, &MediaError{Key: "export.processingError", Err: errors.New(resp.Status)}
	}

	e.stage(StageCompressing)

	var out downloadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return MediaResult{}, &MediaError{Key: "export.processingError", Err: err}
	}
	if !out.Success {
		return MediaResult{}, &MediaError{Key: "export.processingError", Err: errors.New("backend reported failure")}
	}

	e.stage(StageReady)

	return MediaResult{
		DownloadURL: out.DownloadURL,
		ZipFilename: out.ZipFilename,
		Files:       out.DownloadedFiles,
		Failed:      out.FailedFiles,
		SizeMB:      out.ZipSizeMB,
	}, nil
}

// Download fetches the finished archive to dir, returning the local
// path. The URL from MediaResult is relative to the backend base.
func (e *MediaExporter) Download(ctx context.Context, res MediaResult, dir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.httpBase+res.DownloadURL, nil)
	if err != nil {
		return "", &MediaError{Key: "export.processingError", Err: err}
	}
	resp, err := e.httpc.Do(req)
	if err != nil {
		return "", &MediaError{Key: "export.networkError", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", &MediaError{Key: "export.processingError", Err: errors.New(resp.Status)}
	}

	name := res.ZipFilename
	if name == "" {
		name = filepath.Base(res.DownloadURL)
	}
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", &MediaError{Key: "export.processingError", Err: err}
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return "", &MediaError{Key: "export.networkError", Err: err}
	}
	return path, nil
}
