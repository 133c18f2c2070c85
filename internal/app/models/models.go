package models

// FileKind tells how a note's body is stored
type FileKind string

const (
	FileKindPDF   FileKind = "pdf"
	FileKindImage FileKind = "image"
	FileKindText  FileKind = "text"
)

// FileKindForExtension returns pdf for the pdf extension and image for everything else.
// ext is lowercase without the dot.
func FileKindForExtension(ext string) FileKind {
	if ext == "pdf" {
		return FileKindPDF
	}
	return FileKindImage
}
