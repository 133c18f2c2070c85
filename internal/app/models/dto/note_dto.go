package dto

import (
	"github.com/notatki/notehub/internal/app/models"
	"github.com/notatki/notehub/internal/pkg/catalog"
)

// Note body types accepted on create
const (
	NoteTypeFile = "file"
	NoteTypeText = "text"
)

// CreateNoteRequest holds the multipart form fields of a new note. The file part is read separately.
type CreateNoteRequest struct {
	Title       string `form:"title" example:"Analiza - kolokwium 1"`
	SubjectID   int64  `form:"subjectId" example:"1"`
	ProfessorID int64  `form:"professorId" example:"2"`
	Year        int    `form:"year" example:"2024"`
	NoteType    string `form:"noteType" example:"file" enums:"file,text"`
	Content     string `form:"content"`
}

// UpdateNoteRequest holds editable note fields. Content applies to text notes only.
type UpdateNoteRequest struct {
	Title       string  `json:"title"`
	SubjectID   int64   `json:"subjectId"`
	ProfessorID int64   `json:"professorId"`
	Year        int     `json:"year"`
	Content     *string `json:"content"`
}

// NoteResponse is a note with derived fields and a download URL when it has a file
type NoteResponse struct {
	*models.Note
	FileURL string `json:"fileUrl,omitempty"`
	// DownloadCount is only filled on the single note view
	DownloadCount *int64 `json:"downloadCount,omitempty"`
}

// NoteListResponse is the filtered catalog
type NoteListResponse struct {
	Notes        []NoteResponse        `json:"notes"`
	TotalResults int                   `json:"totalResults"`
	Facets       catalog.Facets        `json:"facets"`
	Filters      catalog.FilterOptions `json:"filters"`
}

// SaveRatingRequest holds stars and an optional comment
type SaveRatingRequest struct {
	Stars   int     `json:"stars" example:"5"`
	Comment *string `json:"comment" example:"Bardzo pomocne"`
}

// SaveRatingResponse reports the stored rating and whether it was created or updated
type SaveRatingResponse struct {
	Rating  *models.Rating `json:"rating"`
	Created bool           `json:"created"`
	Action  string         `json:"action" enums:"created,updated"`
}

// CreateNamedEntityRequest adds a subject or professor
type CreateNamedEntityRequest struct {
	Name string `json:"name" binding:"required" example:"Analiza matematyczna"`
}
