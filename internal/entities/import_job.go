package entities

import (
	"encoding/json"
	"time"
)

type ImportJobStatus string

const (
	ImportJobQueued    ImportJobStatus = "queued"
	ImportJobRunning   ImportJobStatus = "running"
	ImportJobCompleted ImportJobStatus = "completed"
	ImportJobFailed    ImportJobStatus = "failed"
)

// FailedBookmark identifies one entry that could not be imported.
type FailedBookmark struct {
	Title      string `json:"title,omitempty"`
	URL        string `json:"url,omitempty"`
	FolderPath string `json:"folder_path,omitempty"`
	Index      int    `json:"index"`          // 1-based position among the file's bookmarks
	Line       int    `json:"line,omitempty"` // source line, when the format has lines
	Reason     string `json:"reason"`
}

// ImportJob tracks one uploaded bookmark file through queued -> running -> completed|failed.
type ImportJob struct {
	ID             string          `gorm:"primaryKey;size:36" json:"id"`
	UserID         uint            `gorm:"index" json:"user_id"`
	SourceType     string          `gorm:"size:32" json:"source_type"`
	FileName       string          `gorm:"size:255" json:"file_name"`
	Status         ImportJobStatus `gorm:"size:20;index" json:"status"`
	TotalItems     int             `json:"total_items"`
	ProcessedItems int             `json:"processed_items"`
	FailedItems    int             `json:"failed_items"`
	LinksCreated   int             `json:"links_created"`
	LinksSkipped   int             `json:"links_skipped"`
	WrapInFolder   bool            `json:"wrap_in_folder"`
	WrapFolderName string          `gorm:"size:255" json:"wrap_folder_name,omitempty"`
	TaskID         string          `gorm:"size:64" json:"task_id,omitempty"`
	Error          string          `gorm:"type:text" json:"error,omitempty"`

	FailedBookmarks string `gorm:"type:text" json:"-"` // JSON array of FailedBookmark
	SourceContent   string `gorm:"type:text" json:"-"` // cleared once the job is terminal

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `gorm:"index" json:"updated_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (ImportJob) TableName() string {
	return "import_jobs"
}

func (j ImportJob) IsTerminal() bool {
	return j.Status == ImportJobCompleted || j.Status == ImportJobFailed
}

// Progress returns the processed share in percent.
func (j ImportJob) Progress() float64 {
	if j.Status == ImportJobCompleted {
		return 100
	}
	if j.TotalItems == 0 {
		return 0
	}
	return float64(j.ProcessedItems) / float64(j.TotalItems) * 100
}

// FailedList decodes FailedBookmarks.
func (j ImportJob) FailedList() ([]FailedBookmark, error) {
	list := []FailedBookmark{}
	if j.FailedBookmarks == "" {
		return list, nil
	}
	if err := json.Unmarshal([]byte(j.FailedBookmarks), &list); err != nil {
		return nil, err
	}
	return list, nil
}

// SetFailedList encodes list into FailedBookmarks.
func (j *ImportJob) SetFailedList(list []FailedBookmark) error {
	if len(list) == 0 {
		j.FailedBookmarks = ""
		return nil
	}
	data, err := json.Marshal(list)
	if err != nil {
		return err
	}
	j.FailedBookmarks = string(data)
	return nil
}
