package models

import "time"

// Note represents a shared study note based on the 'notes' table
type Note struct {
	ID          int64     `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	SubjectID   int64     `db:"subject_id" json:"subjectId"`
	ProfessorID int64     `db:"professor_id" json:"professorId"`
	Year        int       `db:"year" json:"year"`
	UserID      int64     `db:"user_id" json:"userId"`
	FilePath    *string   `db:"file_path" json:"filePath"`
	FileKind    FileKind  `db:"file_type" json:"fileType"`
	Content     *string   `db:"content" json:"content"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`

	// Joined from subjects, professors and the uploader's profile
	SubjectName        string  `json:"subjectName"`
	ProfessorName      string  `json:"professorName"`
	UploaderUsername   string  `json:"uploaderUsername"`
	UploaderUniversity *string `json:"uploaderUniversity"`
	UploaderAvatarURL  *string `json:"uploaderAvatarUrl"`

	// Derived from ratings
	AverageRating float64 `json:"averageRating"`
	RatingCount   int     `json:"ratingCount"`
}

// HasFile reports whether the note has a stored file to download
func (n *Note) HasFile() bool {
	return n.FilePath != nil && *n.FilePath != ""
}

// NamedEntity is a subject or a professor
type NamedEntity struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Rating is one user's stars and comment for a note, based on the 'ratings' table
type Rating struct {
	ID        int64     `db:"id" json:"id"`
	NoteID    int64     `db:"note_id" json:"noteId"`
	UserID    int64     `db:"user_id" json:"userId"`
	Stars     int       `db:"stars" json:"stars"`
	Comment   *string   `db:"comment" json:"comment"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`

	// Joined from the rater's profile
	RaterUsername  string  `json:"raterUsername"`
	RaterAvatarURL *string `json:"raterAvatarUrl"`
}

// Download records a file download, based on the 'downloads' table
type Download struct {
	ID           int64     `db:"id" json:"id"`
	NoteID       int64     `db:"note_id" json:"noteId"`
	UserID       int64     `db:"user_id" json:"userId"`
	DownloadedAt time.Time `db:"downloaded_at" json:"downloadedAt"`
}
