package domain

import "time"

// SyncState describes whether stored page data is within the freshness
// window, outside it, or the result of a failed resync that kept the
// last-good data.
type SyncState string

const (
	SyncStateFresh  SyncState = "fresh"
	SyncStateStale  SyncState = "stale"
	SyncStateFailed SyncState = "failed"
)

// Actions carried on page events emitted after every write.
const (
	EventActionCreated = "created"
	EventActionUpdated = "updated"
	EventActionDeleted = "deleted"
)

type Page struct {
	ID                int64      `db:"id" json:"-"`
	PageID            string     `db:"page_id" json:"page_id"`
	Name              string     `db:"page_name" json:"page_name"`
	URL               string     `db:"page_url" json:"page_url"`
	ProfilePictureURL *string    `db:"profile_picture_url" json:"profile_picture_url,omitempty"`
	Description       *string    `db:"description" json:"description,omitempty"`
	Website           *string    `db:"website" json:"website,omitempty"`
	Industry          *string    `db:"industry" json:"industry,omitempty"`
	FollowerCount     *int64     `db:"follower_count" json:"follower_count,omitempty"`
	HeadCount         *int64     `db:"head_count" json:"head_count,omitempty"`
	Specialties       []string   `db:"specialties" json:"specialties"`
	Location          *string    `db:"location" json:"location,omitempty"`
	SyncState         SyncState  `db:"sync_state" json:"sync_state"`
	LastSyncedAt      *time.Time `db:"last_synced_at" json:"last_synced_at,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// Employee is a scraped employee stub owned by exactly one page. The
// set is replaced wholesale on every successful sync, never merged.
type Employee struct {
	ID                int64   `db:"id" json:"-"`
	EmployeeID        string  `db:"employee_id" json:"employee_id"`
	PageID            string  `db:"page_id" json:"page_id"`
	Name              string  `db:"name" json:"name"`
	Title             *string `db:"title" json:"title,omitempty"`
	Headline          *string `db:"headline" json:"headline,omitempty"`
	ProfileURL        string  `db:"profile_url" json:"profile_url"`
	ProfilePictureURL *string `db:"profile_picture_url" json:"profile_picture_url,omitempty"`
}

// Post is a scraped post stub, same replace-wholesale lifecycle as Employee.
type Post struct {
	ID            int64      `db:"id" json:"-"`
	PostID        string     `db:"post_id" json:"post_id"`
	PageID        string     `db:"page_id" json:"page_id"`
	Content       string     `db:"content" json:"content"`
	PostURL       string     `db:"post_url" json:"post_url"`
	Likes         int        `db:"likes" json:"likes"`
	CommentsCount int        `db:"comments_count" json:"comments_count"`
	Reposts       int        `db:"reposts" json:"reposts"`
	PostedAt      *time.Time `db:"posted_at" json:"posted_at,omitempty"`
}

// PageSnapshot is the triple a resolve call returns: the page plus the
// child sets belonging to the same sync generation.
type PageSnapshot struct {
	Page      Page       `json:"page"`
	Employees []Employee `json:"employees"`
	Posts     []Post     `json:"posts"`
}

// Markup holds the raw documents fetched for one page. Overview is
// always present on a successful fetch; posts and people documents are
// best-effort and may be empty.
type Markup struct {
	Overview string
	Posts    string
	People   string
}

// PageData is the structured result of extracting markup, before any
// sync metadata is applied.
type PageData struct {
	Name              string
	ProfilePictureURL *string
	Description       *string
	Website           *string
	Industry          *string
	FollowerCount     *int64
	HeadCount         *int64
	Specialties       []string
	Location          *string
	Employees         []Employee
	Posts             []Post
}

// PageFilter describes the resolved filter/pagination shape of a list
// query. It doubles as the cache key shape for list reads.
type PageFilter struct {
	Name         string
	Industry     string
	MinFollowers *int64
	MaxFollowers *int64
	Page         int
	PageSize     int
}

func (f PageFilter) Offset() int {
	if f.Page <= 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}
