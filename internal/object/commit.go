package object

import "time"

// Commit is the metadata of one historical change, as reported by git blame.
type Commit struct {
	ID         string    `json:"id"`
	Author     Actor     `json:"author"`
	AuthorDate time.Time `json:"author_date"`
	Committer  Actor     `json:"committer"`
	CommitDate time.Time `json:"commit_date"`
	Message    string    `json:"message"` // summary line only
}
