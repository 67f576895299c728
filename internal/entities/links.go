package entities

import (
	"time"
)

// NoFolder is the folder id of links and folders placed at the user's root.
// Zero is used instead of NULL so that composite unique indexes stay effective.
const NoFolder = uint(0)

// LinkCanonical is the single shared record for one canonical URL key.
type LinkCanonical struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	URLKey      string    `gorm:"uniqueIndex;size:2048;not null" json:"url_key"`
	OriginalURL string    `gorm:"size:2048" json:"original_url"` // first URL seen for this key
	Domain      string    `gorm:"index;size:255" json:"domain"`
	Pathname    string    `gorm:"size:2048" json:"pathname"`
	CreatedAt   time.Time `json:"created_at"`
}

func (LinkCanonical) TableName() string {
	return "link_canonicals"
}

// LinkInstance is one user's placement of a canonical link.
type LinkInstance struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	UserID      uint          `gorm:"uniqueIndex:idx_link_instance_placement;index" json:"user_id"`
	CanonicalID uint          `gorm:"uniqueIndex:idx_link_instance_placement;index" json:"canonical_id"`
	FolderID    uint          `gorm:"uniqueIndex:idx_link_instance_placement" json:"folder_id"`
	Title       string        `gorm:"size:1024" json:"title"`
	Description string        `gorm:"type:text" json:"description,omitempty"`
	URL         string        `gorm:"size:2048" json:"url"` // as written in the source
	FaviconURL  string        `gorm:"size:2048" json:"favicon_url,omitempty"`
	CoverURL    string        `gorm:"size:2048" json:"cover_url,omitempty"`
	SourceType  string        `gorm:"size:32" json:"source_type"`
	ImportJobID string        `gorm:"size:36;index" json:"import_job_id,omitempty"`
	Position    int           `json:"position"`
	AddedAt     *time.Time    `json:"added_at,omitempty"`
	Canonical   LinkCanonical `gorm:"foreignKey:CanonicalID" json:"canonical"`
	Tags        []Tag         `gorm:"many2many:link_instance_tags;" json:"tags"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func (LinkInstance) TableName() string {
	return "link_instances"
}

// LinkInstanceUpdate is a partial update. Absent fields are left untouched;
// a null folder_id moves the link to the root.
type LinkInstanceUpdate struct {
	Title       Optional[string] `json:"title"`
	Description Optional[string] `json:"description"`
	FolderID    Optional[*uint]  `json:"folder_id"`
	Position    Optional[int]    `json:"position"`
}

// IsEmpty reports whether no field is set.
func (u LinkInstanceUpdate) IsEmpty() bool {
	return !u.Title.Set && !u.Description.Set && !u.FolderID.Set && !u.Position.Set
}

// Folder is a node of a user's folder tree. Root folders have ParentID NoFolder.
type Folder struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_folder_sibling_name;index" json:"user_id"`
	ParentID  uint      `gorm:"uniqueIndex:idx_folder_sibling_name" json:"parent_id"`
	Name      string    `gorm:"uniqueIndex:idx_folder_sibling_name;size:255;not null" json:"name"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Folder) TableName() string {
	return "folders"
}

// FolderUpdate is a partial update. A null parent_id moves the folder to the root.
type FolderUpdate struct {
	Name     Optional[string] `json:"name"`
	ParentID Optional[*uint]  `json:"parent_id"`
	Position Optional[int]    `json:"position"`
}

func (u FolderUpdate) IsEmpty() bool {
	return !u.Name.Set && !u.ParentID.Set && !u.Position.Set
}

type Tag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_tag_user_name" json:"user_id"`
	Name      string    `gorm:"uniqueIndex:idx_tag_user_name;size:100" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (Tag) TableName() string {
	return "tags"
}
