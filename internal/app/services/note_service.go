package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	appauth "github.com/notatki/notehub/internal/app/auth"
	"github.com/notatki/notehub/internal/app/models"
	"github.com/notatki/notehub/internal/app/models/dto"
	"github.com/notatki/notehub/internal/app/repositories"
	"github.com/notatki/notehub/internal/pkg/apperrors"
	"github.com/notatki/notehub/internal/pkg/catalog"
	"github.com/notatki/notehub/internal/pkg/filestorage"
	"github.com/notatki/notehub/internal/pkg/validation"
	"github.com/notatki/notehub/internal/pkg/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"
)

// NoteDownload is an opened note file ready to stream
type NoteDownload struct {
	Filename    string
	ContentType string
	Body        io.ReadCloser
}

// NoteService defines the interface for note operations
type NoteService interface {
	ListNotes(ctx context.Context, opts catalog.FilterOptions) (*dto.NoteListResponse, error)
	GetNote(ctx context.Context, id int64) (*dto.NoteResponse, error)
	ListUserNotes(ctx context.Context, userID int64) ([]dto.NoteResponse, error)
	CreateNote(ctx context.Context, userID int64, req *dto.CreateNoteRequest, file *multipart.FileHeader) (*dto.NoteResponse, error)
	UpdateNote(ctx context.Context, userID, id int64, req *dto.UpdateNoteRequest) (*dto.NoteResponse, error)
	DeleteNote(ctx context.Context, userID, id int64) error
	OpenDownload(ctx context.Context, userID, id int64) (*NoteDownload, error)
}

// NoteRepositories groups the stores a NoteService reads and writes
type NoteRepositories struct {
	Notes      repositories.INoteRepository
	Ratings    repositories.IRatingRepository
	Subjects   repositories.INamedEntityRepository
	Professors repositories.INamedEntityRepository
	Downloads  repositories.IDownloadRepository
}

type noteServiceImpl struct {
	repos       NoteRepositories
	storage     filestorage.ObjectStorage
	notesBucket string
	authz       *appauth.AuthorizationService
	catalog     *CatalogCache
	language    language.Tag
	publisher   EventPublisher
	recorder    ActivityRecorder
	logger      zerolog.Logger
}

// NewNoteService creates a new NoteService. publisher and recorder may be nil.
func NewNoteService(
	repos NoteRepositories,
	storage filestorage.ObjectStorage,
	notesBucket string,
	authz *appauth.AuthorizationService,
	catalogCache *CatalogCache,
	lang language.Tag,
	publisher EventPublisher,
	recorder ActivityRecorder,
	logger zerolog.Logger,
) NoteService {
	return &noteServiceImpl{
		repos:       repos,
		storage:     storage,
		notesBucket: notesBucket,
		authz:       authz,
		catalog:     catalogCache,
		language:    lang,
		publisher:   publisherOrNop(publisher),
		recorder:    recorderOrNop(recorder),
		logger:      logger,
	}
}

// loadCatalog returns every note with its average rating, from cache when possible
func (s *noteServiceImpl) loadCatalog(ctx context.Context) ([]*models.Note, error) {
	notes, gen, found := s.catalog.Notes()
	s.recorder.RecordCatalogCache(found)
	if found {
		return notes, nil
	}

	notes, err := s.repos.Notes.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing notes: %w", err)
	}
	stars, err := s.repos.Ratings.StarsByNote(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading ratings: %w", err)
	}
	for _, n := range notes {
		n.AverageRating, n.RatingCount = catalog.AverageRating(stars[n.ID])
	}

	s.catalog.SetNotes(notes, gen)
	return notes, nil
}

func toEntry(n *models.Note) catalog.Entry {
	createdAt := n.CreatedAt
	return catalog.Entry{
		ID:            n.ID,
		Title:         n.Title,
		SubjectName:   n.SubjectName,
		ProfessorName: n.ProfessorName,
		University:    n.UploaderUniversity,
		CreatedAt:     &createdAt,
		AverageRating: n.AverageRating,
	}
}

func (s *noteServiceImpl) toResponse(n *models.Note) dto.NoteResponse {
	resp := dto.NoteResponse{Note: n}
	if n.HasFile() {
		resp.FileURL = s.storage.PublicURL(s.notesBucket, *n.FilePath)
	}
	return resp
}

// ListNotes filters and sorts the catalog
func (s *noteServiceImpl) ListNotes(ctx context.Context, opts catalog.FilterOptions) (*dto.NoteListResponse, error) {
	mode, err := catalog.ParseSortMode(string(opts.SortBy))
	if err != nil {
		return nil, apperrors.NewValidationError().Add("sortBy", err.Error())
	}
	opts.SortBy = mode

	notes, err := s.loadCatalog(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]*models.Note, len(notes))
	entries := make([]catalog.Entry, 0, len(notes))
	for _, n := range notes {
		byID[n.ID] = n
		entries = append(entries, toEntry(n))
	}

	filtered := catalog.ApplyWithLanguage(entries, opts, s.language)
	result := make([]dto.NoteResponse, 0, len(filtered))
	for _, e := range filtered {
		result = append(result, s.toResponse(byID[e.ID]))
	}

	return &dto.NoteListResponse{
		Notes:        result,
		TotalResults: len(result),
		Facets:       catalog.BuildFacets(entries),
		Filters:      opts,
	}, nil
}

// GetNote returns one note with its average rating
func (s *noteServiceImpl) GetNote(ctx context.Context, id int64) (*dto.NoteResponse, error) {
	note, err := s.repos.Notes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	stars, err := s.repos.Ratings.StarsForNote(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error loading ratings: %w", err)
	}
	note.AverageRating, note.RatingCount = catalog.AverageRating(stars)

	downloads, err := s.repos.Downloads.CountByNote(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error counting downloads: %w", err)
	}

	resp := s.toResponse(note)
	resp.DownloadCount = &downloads
	return &resp, nil
}

// ListUserNotes returns the notes a user uploaded, newest first
func (s *noteServiceImpl) ListUserNotes(ctx context.Context, userID int64) ([]dto.NoteResponse, error) {
	notes, err := s.repos.Notes.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	stars, err := s.repos.Ratings.StarsByNote(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading ratings: %w", err)
	}

	result := make([]dto.NoteResponse, 0, len(notes))
	for _, n := range notes {
		n.AverageRating, n.RatingCount = catalog.AverageRating(stars[n.ID])
		result = append(result, s.toResponse(n))
	}
	return result, nil
}

// noteFields are the validated fields shared by create and update
type noteFields struct {
	title       string
	subjectID   int64
	professorID int64
	year        int
}

func (s *noteServiceImpl) validateNoteFields(ctx context.Context, ve *apperrors.ValidationError, f noteFields) error {
	title := validation.NewStringValidation(f.title).Trimmed()
	switch {
	case !title.WithMinLength(validation.TitleMinLength).Validate():
		ve.Add("title", "Title must be at least 3 characters")
	case !title.WithMaxLength(validation.TitleMaxLength).Validate():
		ve.Add("title", "Title must be at most 100 characters")
	}

	if err := s.checkReference(ctx, ve, "subjectId", "Subject", f.subjectID, s.repos.Subjects, apperrors.ErrSubjectNotFound); err != nil {
		return err
	}
	if err := s.checkReference(ctx, ve, "professorId", "Professor", f.professorID, s.repos.Professors, apperrors.ErrProfessorNotFound); err != nil {
		return err
	}

	if !validation.NewNumericValidation(f.year).WithMin(validation.NoteYearMin).WithMax(validation.NoteYearMax).Validate() {
		ve.Add("year", fmt.Sprintf("Year must be between %d and %d", validation.NoteYearMin, validation.NoteYearMax))
	}
	return nil
}

func (s *noteServiceImpl) checkReference(
	ctx context.Context, ve *apperrors.ValidationError, field, label string, id int64,
	repo repositories.INamedEntityRepository, notFound error,
) error {
	if id <= 0 {
		ve.Add(field, label+" is required")
		return nil
	}
	if _, err := repo.GetByID(ctx, id); err != nil {
		if errors.Is(err, notFound) {
			ve.Add(field, label+" does not exist")
			return nil
		}
		return err
	}
	return nil
}

func validateContent(ve *apperrors.ValidationError, content string) {
	switch n := utf8.RuneCountInString(strings.TrimSpace(content)); {
	case n < validation.ContentMinLength:
		ve.Add("content", "Content must be at least 10 characters")
	case n > validation.ContentMaxLength:
		ve.Add("content", "Content must be at most 10000 characters")
	}
}

// CreateNote validates the form, stores the file when there is one and inserts the note
func (s *noteServiceImpl) CreateNote(ctx context.Context, userID int64, req *dto.CreateNoteRequest, file *multipart.FileHeader) (*dto.NoteResponse, error) {
	ve := apperrors.NewValidationError()
	if err := s.validateNoteFields(ctx, ve, noteFields{req.Title, req.SubjectID, req.ProfessorID, req.Year}); err != nil {
		return nil, err
	}

	switch req.NoteType {
	case dto.NoteTypeFile:
		switch {
		case file == nil:
			ve.Add("file", "File is required")
		case !validation.IsAllowedExtension(file.Filename, validation.AllowedNoteExtensions):
			ve.Add("file", "Allowed file types: "+strings.Join(validation.AllowedNoteExtensions, ", "))
		case file.Size > validation.MaxUploadSize:
			ve.Add("file", "File must be at most 10 MB")
		}
	case dto.NoteTypeText:
		validateContent(ve, req.Content)
	default:
		ve.Add("noteType", "Note type must be file or text")
	}

	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	note := &models.Note{
		Title:       strings.TrimSpace(req.Title),
		SubjectID:   req.SubjectID,
		ProfessorID: req.ProfessorID,
		Year:        req.Year,
		UserID:      userID,
	}

	if req.NoteType == dto.NoteTypeFile {
		key, err := s.storeNoteFile(ctx, userID, file)
		if err != nil {
			return nil, err
		}
		note.FilePath = &key
		note.FileKind = models.FileKindForExtension(validation.FileExtension(file.Filename))
	} else {
		content := strings.TrimSpace(req.Content)
		note.Content = &content
		note.FileKind = models.FileKindText
	}

	if _, err := s.repos.Notes.Create(ctx, note); err != nil {
		if note.HasFile() {
			if delErr := s.storage.Delete(ctx, s.notesBucket, *note.FilePath); delErr != nil {
				s.logger.Warn().Err(delErr).Str("key", *note.FilePath).Msg("Failed to remove orphaned note file")
			}
		}
		return nil, err
	}

	s.catalog.Invalidate()
	s.recorder.RecordNoteCreated(string(note.FileKind))
	s.publisher.Publish(websocket.Event{Type: websocket.EventNoteCreated, NoteID: note.ID, UserID: userID})
	s.logger.Info().Int64("noteID", note.ID).Int64("userID", userID).Str("kind", string(note.FileKind)).Msg("Note created")

	return s.GetNote(ctx, note.ID)
}

// storeNoteFile writes the upload to <userID>/<uuid>.<ext> in the notes bucket
func (s *noteServiceImpl) storeNoteFile(ctx context.Context, userID int64, fileHeader *multipart.FileHeader) (string, error) {
	ext := validation.FileExtension(fileHeader.Filename)
	key := fmt.Sprintf("%d/%s.%s", userID, uuid.New().String(), ext)

	f, err := fileHeader.Open()
	if err != nil {
		s.logger.Error().Err(err).Str("filename", fileHeader.Filename).Msg("Failed to open uploaded file")
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer f.Close()

	if err := s.storage.Put(ctx, s.notesBucket, key, f, fileHeader.Size, contentTypeFor(fileHeader, ext)); err != nil {
		return "", err
	}
	return key, nil
}

// UpdateNote changes the owner's note. Content is only editable on text notes.
func (s *noteServiceImpl) UpdateNote(ctx context.Context, userID, id int64, req *dto.UpdateNoteRequest) (*dto.NoteResponse, error) {
	note, err := s.authz.ValidateNoteOwnership(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	ve := apperrors.NewValidationError()
	if err := s.validateNoteFields(ctx, ve, noteFields{req.Title, req.SubjectID, req.ProfessorID, req.Year}); err != nil {
		return nil, err
	}
	editContent := req.Content != nil && note.FileKind == models.FileKindText
	if editContent {
		validateContent(ve, *req.Content)
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	note.Title = strings.TrimSpace(req.Title)
	note.SubjectID = req.SubjectID
	note.ProfessorID = req.ProfessorID
	note.Year = req.Year
	if editContent {
		content := strings.TrimSpace(*req.Content)
		note.Content = &content
	}

	if err := s.repos.Notes.Update(ctx, note); err != nil {
		return nil, err
	}

	s.catalog.Invalidate()
	s.publisher.Publish(websocket.Event{Type: websocket.EventNoteUpdated, NoteID: id, UserID: userID})
	s.logger.Info().Int64("noteID", id).Int64("userID", userID).Msg("Note updated")

	return s.GetNote(ctx, id)
}

// DeleteNote removes the owner's note and its stored file
func (s *noteServiceImpl) DeleteNote(ctx context.Context, userID, id int64) error {
	note, err := s.authz.ValidateNoteOwnership(ctx, id, userID)
	if err != nil {
		return err
	}

	if err := s.repos.Notes.Delete(ctx, id); err != nil {
		return err
	}

	if note.HasFile() {
		if err := s.storage.Delete(ctx, s.notesBucket, *note.FilePath); err != nil {
			s.logger.Warn().Err(err).Int64("noteID", id).Str("key", *note.FilePath).Msg("Failed to delete note file")
		}
	}

	s.catalog.Invalidate()
	s.recorder.RecordNoteDeleted()
	s.publisher.Publish(websocket.Event{Type: websocket.EventNoteDeleted, NoteID: id, UserID: userID})
	s.logger.Info().Int64("noteID", id).Int64("userID", userID).Msg("Note deleted")
	return nil
}

// OpenDownload opens the note's file and records the download
func (s *noteServiceImpl) OpenDownload(ctx context.Context, userID, id int64) (*NoteDownload, error) {
	note, err := s.repos.Notes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !note.HasFile() {
		return nil, apperrors.ErrNoteHasNoFile
	}

	body, err := s.storage.Get(ctx, s.notesBucket, *note.FilePath)
	if err != nil {
		if errors.Is(err, filestorage.ErrObjectNotFound) {
			s.logger.Error().Int64("noteID", id).Str("key", *note.FilePath).Msg("Note file missing from storage")
			return nil, apperrors.ErrObjectNotFound
		}
		return nil, err
	}

	if _, err := s.repos.Downloads.Create(ctx, &models.Download{NoteID: id, UserID: userID}); err != nil {
		body.Close()
		return nil, err
	}
	s.recorder.RecordDownload()

	ext := path.Ext(*note.FilePath)
	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return &NoteDownload{
		Filename:    downloadFilename(note.Title, ext),
		ContentType: contentType,
		Body:        body,
	}, nil
}

// downloadFilename is the note title with path separators and control characters removed
func downloadFilename(title, ext string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == '"':
			return '_'
		case r < 0x20 || r == 0x7f:
			return -1
		}
		return r
	}, strings.TrimSpace(title))
	if cleaned == "" {
		cleaned = "note"
	}
	return cleaned + ext
}
