package models

import "time"

// Outcome is the terminal result of one download task or cache reuse.
type Outcome string

const (
	OutcomeDownloaded  Outcome = "downloaded"
	OutcomeCached      Outcome = "cached"
	OutcomeFailed      Outcome = "failed"
	OutcomeLost        Outcome = "lost"
	OutcomeRemoteError Outcome = "remote_error"
)

func (o Outcome) String() string {
	return string(o)
}

func (o Outcome) IsSuccess() bool {
	return o == OutcomeDownloaded || o == OutcomeCached
}

// DownloadRecord is one persisted terminal outcome.
type DownloadRecord struct {
	ID         uint      `json:"id"          gorm:"primaryKey"`
	TaskID     string    `json:"task_id"     gorm:"index"`
	Show       string    `json:"show"        gorm:"not null;index"`
	Reference  string    `json:"reference"   gorm:"not null"`
	TransferID string    `json:"transfer_id" gorm:"index"`
	Transfer   string    `json:"transfer"`
	Outcome    Outcome   `json:"outcome"     gorm:"not null"`
	Retries    int       `json:"retries"     gorm:"not null;default:0"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"  gorm:"autoCreateTime"`
}

type TorrentSearchResult struct {
	Title       string `json:"title"`
	Size        int64  `json:"size"`
	Magnet      string `json:"magnet"`
	TorrentURL  string `json:"torrent_url"`
	IndexerName string `json:"indexer_name"`
	InfoHash    string `json:"info_hash"`
	Seeders     int    `json:"seeders"`
}
