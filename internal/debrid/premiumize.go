package debrid

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/NikitaDmitryuk/episode-fetcher/internal/config"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/filemanager"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/logutils"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/ratelimit"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/timeutil"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/utils"
)

const (
	premiumizeSuccess = "success"
	itemTypeFolder    = "folder"
	itemTypeFile      = "file"
	maxFolderDepth    = 4
	rateLimitKey      = "premiumize"
)

// Premiumize talks to the premiumize.me REST API.
type Premiumize struct {
	client       *resty.Client
	download     *resty.Client
	apiKey       string
	clock        timeutil.TimeProvider
	stuckTimeout time.Duration
	closed       atomic.Bool
}

type premiumizeResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type premiumizeCreateResponse struct {
	premiumizeResponse
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type premiumizeTransfer struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Message  string  `json:"message"`
	Status   string  `json:"status"`
	Progress float64 `json:"progress"`
	FolderID string  `json:"folder_id"`
	FileID   string  `json:"file_id"`
}

type premiumizeListResponse struct {
	premiumizeResponse
	Transfers []premiumizeTransfer `json:"transfers"`
}

type premiumizeItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size"`
	Link string `json:"link"`
}

type premiumizeFolderResponse struct {
	premiumizeResponse
	Content []premiumizeItem `json:"content"`
}

type premiumizeItemResponse struct {
	premiumizeResponse
	premiumizeItem
}

func NewPremiumize(cfg config.DebridConfig, opts ...Option) *Premiumize {
	o := buildOptions(opts)
	baseURL := strings.TrimSuffix(cfg.URL, "/")
	if baseURL == "" {
		baseURL = config.DefaultDebridURL
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = config.DefaultRequestTimeout
	}

	limiter := o.limiter
	if limiter == nil {
		limiter = ratelimit.PerSecond(cfg.RequestsPerSecond)
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetQueryParam("apikey", cfg.APIKey).
		OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
			return limiter.Wait(r.Context(), rateLimitKey)
		})

	logutils.Log.Infof("Initialized premiumize.me client with baseURL: %s", baseURL)
	return &Premiumize{
		client:       client,
		download:     resty.New(),
		apiKey:       cfg.APIKey,
		clock:        o.clock,
		stuckTimeout: o.stuckTimeout,
	}
}

func (p *Premiumize) Upload(ctx context.Context, link string) (*Transfer, error) {
	if p.closed.Load() {
		return nil, fmt.Errorf("premiumize client is closed")
	}

	var result premiumizeCreateResponse
	req := p.client.R().SetContext(ctx).SetResult(&result)
	if isLocalTorrentFile(link) {
		req = req.SetFile("file", link)
	} else {
		req = req.SetFormData(map[string]string{"src": link})
	}

	resp, err := req.Post("/transfer/create")
	if err != nil {
		return nil, utils.WrapError(utils.ErrExternalServiceError, "transfer create request failed", map[string]any{
			"error": err.Error(),
		})
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: transfer create returned %s", utils.ErrExternalServiceError, resp.Status())
	}
	if result.Status != premiumizeSuccess || result.ID == "" {
		return nil, fmt.Errorf("%w: %s", utils.ErrTransferRejected, result.Message)
	}

	name := result.Name
	if name == "" {
		name = link
	}
	return &Transfer{ID: result.ID, Name: name, Status: StatusRunning}, nil
}

func (p *Premiumize) Transfers(ctx context.Context) ([]Transfer, error) {
	var result premiumizeListResponse
	resp, err := p.client.R().SetContext(ctx).SetResult(&result).Get("/transfer/list")
	if err != nil {
		return nil, fmt.Errorf("failed to list transfers: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: transfer list returned %s", utils.ErrExternalServiceError, resp.Status())
	}
	if result.Status != premiumizeSuccess {
		return nil, fmt.Errorf("%w: transfer list: %s", utils.ErrExternalServiceError, result.Message)
	}

	transfers := make([]Transfer, 0, len(result.Transfers))
	for _, t := range result.Transfers {
		transfers = append(transfers, Transfer{
			ID:       t.ID,
			Name:     t.Name,
			Status:   mapPremiumizeStatus(t.Status),
			Message:  t.Message,
			Progress: t.Progress,
			FolderID: t.FolderID,
			FileID:   t.FileID,
		})
	}
	return transfers, nil
}

func mapPremiumizeStatus(status string) TransferStatus {
	switch strings.ToLower(status) {
	case "finished", "seeding":
		return StatusFinished
	case "error", "banned", "timeout", "deleted":
		return StatusError
	default:
		return StatusRunning
	}
}

// Classify treats a transfer that has been running past the stuck timeout without any progress as failed.
func (p *Premiumize) Classify(t *Transfer, startedAt time.Time) State {
	if t == nil {
		return Unresolvable
	}
	switch t.Status {
	case StatusFinished:
		return Finished
	case StatusError:
		return RemoteError
	}
	if p.stuckTimeout > 0 && t.IsRunning() && t.Progress <= 0 && !startedAt.IsZero() &&
		p.clock.Now().Sub(startedAt) > p.stuckTimeout {
		return RemoteError
	}
	return Running
}

func (p *Premiumize) DownloadFile(ctx context.Context, t Transfer, dir string) error {
	files, err := p.transferFiles(ctx, t)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("%w: transfer %s has no video files", utils.ErrDownloadFailed, t.Name)
	}

	var required int64
	for _, f := range files {
		required += f.Size
	}
	if !filemanager.HasEnoughSpace(dir, required) {
		return fmt.Errorf("%w: not enough space in %s for %s", utils.ErrDownloadFailed, dir, t.Name)
	}

	for _, f := range files {
		if err := p.downloadItem(ctx, f, dir); err != nil {
			return err
		}
	}
	return nil
}

func (p *Premiumize) transferFiles(ctx context.Context, t Transfer) ([]premiumizeItem, error) {
	switch {
	case t.FolderID != "":
		return p.folderFiles(ctx, t.FolderID, 0)
	case t.FileID != "":
		item, err := p.itemDetails(ctx, t.FileID)
		if err != nil {
			return nil, err
		}
		if !isWantedVideo(item) {
			return nil, nil
		}
		return []premiumizeItem{item}, nil
	default:
		return nil, fmt.Errorf("%w: transfer %s has no stored content", utils.ErrDownloadFailed, t.Name)
	}
}

func (p *Premiumize) folderFiles(ctx context.Context, folderID string, depth int) ([]premiumizeItem, error) {
	if depth > maxFolderDepth {
		return nil, nil
	}
	var result premiumizeFolderResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParam("id", folderID).
		SetResult(&result).
		Get("/folder/list")
	if err != nil {
		return nil, fmt.Errorf("failed to list folder %s: %w", folderID, err)
	}
	if resp.IsError() || result.Status != premiumizeSuccess {
		return nil, fmt.Errorf("%w: folder list %s: %s %s", utils.ErrExternalServiceError, folderID, resp.Status(), result.Message)
	}

	var files []premiumizeItem
	for _, item := range result.Content {
		switch item.Type {
		case itemTypeFolder:
			nested, err := p.folderFiles(ctx, item.ID, depth+1)
			if err != nil {
				return nil, err
			}
			files = append(files, nested...)
		case itemTypeFile:
			if isWantedVideo(item) {
				files = append(files, item)
			}
		}
	}
	return files, nil
}

func (p *Premiumize) itemDetails(ctx context.Context, id string) (premiumizeItem, error) {
	var result premiumizeItemResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParam("id", id).
		SetResult(&result).
		Get("/item/details")
	if err != nil {
		return premiumizeItem{}, fmt.Errorf("failed to get item %s: %w", id, err)
	}
	if resp.IsError() {
		return premiumizeItem{}, fmt.Errorf("%w: item details %s: %s", utils.ErrExternalServiceError, id, resp.Status())
	}
	if result.Status != "" && result.Status != premiumizeSuccess {
		return premiumizeItem{}, fmt.Errorf("%w: item details %s: %s", utils.ErrExternalServiceError, id, result.Message)
	}
	return result.premiumizeItem, nil
}

func isWantedVideo(item premiumizeItem) bool {
	return item.Link != "" && filemanager.IsVideoFilePath(item.Name) && !filemanager.IsSampleFile(item.Name)
}

// downloadItem writes to a .part file first so an interrupted download never looks complete.
func (p *Premiumize) downloadItem(ctx context.Context, item premiumizeItem, dir string) error {
	target := filepath.Join(dir, utils.SanitizeFileName(item.Name))
	if info, err := os.Stat(target); err == nil && item.Size > 0 && info.Size() == item.Size {
		logutils.Log.WithField("file", target).Info("File already present, skipping download")
		return nil
	}

	resp, err := p.download.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(item.Link)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", utils.ErrDownloadFailed, item.Name, err)
	}
	body := resp.RawBody()
	defer body.Close()
	if resp.IsError() {
		return fmt.Errorf("%w: %s: %s", utils.ErrDownloadFailed, item.Name, resp.Status())
	}

	part := target + filemanager.PartSuffix
	f, err := os.Create(part)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", part, err)
	}
	written, copyErr := io.Copy(f, body)
	closeErr := f.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(part)
		return fmt.Errorf("%w: %s: %v", utils.ErrDownloadFailed, item.Name, err)
	}
	if item.Size > 0 && written != item.Size {
		_ = os.Remove(part)
		return fmt.Errorf("%w: %s: got %d of %d bytes", utils.ErrDownloadFailed, item.Name, written, item.Size)
	}
	if err := os.Rename(part, target); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", part, err)
	}

	logutils.Log.WithFields(map[string]any{
		"file":  target,
		"bytes": written,
	}).Info("Downloaded file")
	return nil
}

func (p *Premiumize) Delete(ctx context.Context, t Transfer) error {
	if err := p.post(ctx, "/transfer/delete", t.ID); err != nil {
		return fmt.Errorf("failed to delete transfer %s: %w", t.ID, err)
	}
	switch {
	case t.FolderID != "":
		if err := p.post(ctx, "/folder/delete", t.FolderID); err != nil {
			return fmt.Errorf("failed to delete folder %s: %w", t.FolderID, err)
		}
	case t.FileID != "":
		if err := p.post(ctx, "/item/delete", t.FileID); err != nil {
			return fmt.Errorf("failed to delete item %s: %w", t.FileID, err)
		}
	}
	return nil
}

func (p *Premiumize) post(ctx context.Context, path, id string) error {
	var result premiumizeResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{"id": id}).
		SetResult(&result).
		Post(path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("%w: %s", utils.ErrExternalServiceError, resp.Status())
	}
	if result.Status != premiumizeSuccess {
		return fmt.Errorf("%w: %s", utils.ErrExternalServiceError, result.Message)
	}
	return nil
}

func (p *Premiumize) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	p.client.GetClient().CloseIdleConnections()
	p.download.GetClient().CloseIdleConnections()
	logutils.Log.Debug("premiumize.me client closed")
	return nil
}

func isLocalTorrentFile(link string) bool {
	if !strings.HasSuffix(strings.ToLower(link), ".torrent") || utils.IsValidLink(link) {
		return false
	}
	info, err := os.Stat(link)
	return err == nil && !info.IsDir()
}
