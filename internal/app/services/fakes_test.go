package services

import (
	"bytes"
	"context"
	"mime/multipart"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/notatki/notehub/internal/app/models"
	"github.com/notatki/notehub/internal/pkg/apperrors"
	"github.com/notatki/notehub/internal/pkg/filestorage"
	"github.com/notatki/notehub/internal/pkg/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var testLogger = zerolog.Nop()

// fakeUserRepo keeps users and profiles in memory
type fakeUserRepo struct {
	mu       sync.Mutex
	nextID   int64
	users    map[int64]*models.User
	profiles map[int64]*models.UserProfile
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[int64]*models.User{}, profiles: map[int64]*models.UserProfile{}}
}

func (r *fakeUserRepo) CreateUserWithProfile(_ context.Context, user *models.User) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	user.ID = r.nextID
	u := *user
	r.users[u.ID] = &u
	r.profiles[u.ID] = &models.UserProfile{ID: u.ID, Username: u.Username}
	return u.ID, nil
}

func (r *fakeUserRepo) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (r *fakeUserRepo) GetUserByLogin(_ context.Context, login string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Username, login) || strings.EqualFold(u.Email, login) {
			c := *u
			return &c, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (r *fakeUserRepo) UsernameExists(_ context.Context, username string, excludeUserID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID != excludeUserID && strings.EqualFold(u.Username, username) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) EmailExists(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, userID int64, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	u.Password = hash
	return nil
}

func (r *fakeUserRepo) GetProfile(_ context.Context, userID int64) (*models.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return nil, apperrors.ErrProfileNotFound
	}
	c := *p
	return &c, nil
}

func (r *fakeUserRepo) UpdateProfile(_ context.Context, profile *models.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[profile.ID]; !ok {
		return apperrors.ErrProfileNotFound
	}
	c := *profile
	r.profiles[profile.ID] = &c
	r.users[profile.ID].Username = profile.Username
	return nil
}

func (r *fakeUserRepo) UpdateAvatarURL(_ context.Context, userID int64, avatarURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return apperrors.ErrProfileNotFound
	}
	p.AvatarURL = &avatarURL
	return nil
}

// fakeDirectory is an in-memory subjects or professors table
type fakeDirectory struct {
	mu       sync.Mutex
	nextID   int64
	entries  map[int64]*models.NamedEntity
	notFound error
	// createErr, when set, is returned once by Create after inserting the row
	createErr error
}

func newFakeDirectory(notFound error, names ...string) *fakeDirectory {
	d := &fakeDirectory{entries: map[int64]*models.NamedEntity{}, notFound: notFound}
	for _, n := range names {
		d.insert(n)
	}
	return d
}

func (d *fakeDirectory) insert(name string) *models.NamedEntity {
	d.nextID++
	e := &models.NamedEntity{ID: d.nextID, Name: name, CreatedAt: time.Now()}
	d.entries[e.ID] = e
	return e
}

func (d *fakeDirectory) List(context.Context) ([]*models.NamedEntity, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*models.NamedEntity, 0, len(d.entries))
	for _, e := range d.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (d *fakeDirectory) GetByID(_ context.Context, id int64) (*models.NamedEntity, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if e, ok := d.entries[id]; ok {
		return e, nil
	}
	return nil, d.notFound
}

func (d *fakeDirectory) FindByName(_ context.Context, name string) (*models.NamedEntity, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, e := range d.entries {
		if strings.EqualFold(e.Name, name) {
			return e, nil
		}
	}
	return nil, d.notFound
}

func (d *fakeDirectory) Create(_ context.Context, name string) (*models.NamedEntity, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.createErr != nil {
		err := d.createErr
		d.createErr = nil
		d.insert(name)
		return nil, err
	}
	return d.insert(name), nil
}

func (d *fakeDirectory) name(id int64) string {
	if e, ok := d.entries[id]; ok {
		return e.Name
	}
	return ""
}

// fakeNoteRepo keeps notes in memory and fills the joined names
type fakeNoteRepo struct {
	mu         sync.Mutex
	nextID     int64
	notes      map[int64]*models.Note
	subjects   *fakeDirectory
	professors *fakeDirectory
	users      *fakeUserRepo
	createErr  error
	listCalls  int
}

func newFakeNoteRepo(subjects, professors *fakeDirectory, users *fakeUserRepo) *fakeNoteRepo {
	return &fakeNoteRepo{notes: map[int64]*models.Note{}, subjects: subjects, professors: professors, users: users}
}

func (r *fakeNoteRepo) joined(n *models.Note) *models.Note {
	c := *n
	c.SubjectName = r.subjects.name(n.SubjectID)
	c.ProfessorName = r.professors.name(n.ProfessorID)
	if p, err := r.users.GetProfile(context.Background(), n.UserID); err == nil {
		c.UploaderUsername = p.Username
		c.UploaderUniversity = p.University
		c.UploaderAvatarURL = p.AvatarURL
	}
	return &c
}

func (r *fakeNoteRepo) Create(_ context.Context, note *models.Note) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return 0, r.createErr
	}
	r.nextID++
	note.ID = r.nextID
	// Spread creation times so newest-first ordering is deterministic
	note.CreatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(note.ID) * time.Hour)
	note.UpdatedAt = note.CreatedAt
	c := *note
	r.notes[note.ID] = &c
	return note.ID, nil
}

func (r *fakeNoteRepo) GetByID(_ context.Context, id int64) (*models.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notes[id]
	if !ok {
		return nil, apperrors.ErrNoteNotFound
	}
	return r.joined(n), nil
}

func (r *fakeNoteRepo) list(keep func(*models.Note) bool) []*models.Note {
	out := []*models.Note{}
	for _, n := range r.notes {
		if keep(n) {
			out = append(out, r.joined(n))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *fakeNoteRepo) ListAll(context.Context) ([]*models.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++
	return r.list(func(*models.Note) bool { return true }), nil
}

func (r *fakeNoteRepo) ListByUser(_ context.Context, userID int64) ([]*models.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list(func(n *models.Note) bool { return n.UserID == userID }), nil
}

func (r *fakeNoteRepo) Update(_ context.Context, note *models.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.notes[note.ID]; !ok {
		return apperrors.ErrNoteNotFound
	}
	c := *note
	r.notes[note.ID] = &c
	return nil
}

func (r *fakeNoteRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.notes[id]; !ok {
		return apperrors.ErrNoteNotFound
	}
	delete(r.notes, id)
	return nil
}

// fakeRatingRepo keeps ratings in memory keyed by (note, user)
type fakeRatingRepo struct {
	mu      sync.Mutex
	nextID  int64
	ratings []*models.Rating
	// raceOnCreate makes the next Create behave as if another request inserted first
	raceOnCreate bool
}

func (r *fakeRatingRepo) find(noteID, userID int64) *models.Rating {
	for _, rt := range r.ratings {
		if rt.NoteID == noteID && rt.UserID == userID {
			return rt
		}
	}
	return nil
}

func (r *fakeRatingRepo) StarsByNote(context.Context) (map[int64][]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[int64][]int{}
	for _, rt := range r.ratings {
		out[rt.NoteID] = append(out[rt.NoteID], rt.Stars)
	}
	return out, nil
}

func (r *fakeRatingRepo) StarsForNote(_ context.Context, noteID int64) ([]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []int
	for _, rt := range r.ratings {
		if rt.NoteID == noteID {
			out = append(out, rt.Stars)
		}
	}
	return out, nil
}

func (r *fakeRatingRepo) ListByNote(_ context.Context, noteID int64) ([]*models.Rating, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.Rating{}
	for i := len(r.ratings) - 1; i >= 0; i-- {
		if r.ratings[i].NoteID == noteID {
			c := *r.ratings[i]
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *fakeRatingRepo) GetByNoteAndUser(_ context.Context, noteID, userID int64) (*models.Rating, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rt := r.find(noteID, userID); rt != nil {
		c := *rt
		return &c, nil
	}
	return nil, apperrors.ErrRatingNotFound
}

func (r *fakeRatingRepo) insert(rating *models.Rating) {
	r.nextID++
	rating.ID = r.nextID
	rating.CreatedAt = time.Now()
	rating.UpdatedAt = rating.CreatedAt
	c := *rating
	r.ratings = append(r.ratings, &c)
}

func (r *fakeRatingRepo) Create(_ context.Context, rating *models.Rating) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.raceOnCreate {
		r.raceOnCreate = false
		r.insert(&models.Rating{NoteID: rating.NoteID, UserID: rating.UserID, Stars: 1})
		return 0, apperrors.ErrResourceAlreadyExists
	}
	if r.find(rating.NoteID, rating.UserID) != nil {
		return 0, apperrors.ErrResourceAlreadyExists
	}
	r.insert(rating)
	return rating.ID, nil
}

func (r *fakeRatingRepo) Update(_ context.Context, rating *models.Rating) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing := r.find(rating.NoteID, rating.UserID)
	if existing == nil {
		return apperrors.ErrRatingNotFound
	}
	existing.Stars = rating.Stars
	existing.Comment = rating.Comment
	existing.UpdatedAt = time.Now()
	rating.ID = existing.ID
	rating.CreatedAt = existing.CreatedAt
	rating.UpdatedAt = existing.UpdatedAt
	return nil
}

// fakeDownloadRepo counts downloads
type fakeDownloadRepo struct {
	mu        sync.Mutex
	downloads []models.Download
}

func (r *fakeDownloadRepo) Create(_ context.Context, d *models.Download) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d.ID = int64(len(r.downloads) + 1)
	d.DownloadedAt = time.Now()
	r.downloads = append(r.downloads, *d)
	return d.ID, nil
}

func (r *fakeDownloadRepo) CountByNote(_ context.Context, noteID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, d := range r.downloads {
		if d.NoteID == noteID {
			n++
		}
	}
	return n, nil
}

// recordingPublisher collects published events
type recordingPublisher struct {
	mu     sync.Mutex
	events []websocket.Event
}

func (p *recordingPublisher) Publish(e websocket.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// countingRecorder counts activity calls
type countingRecorder struct {
	mu          sync.Mutex
	created     map[string]int
	deleted     int
	ratings     map[string]int
	downloads   int
	cacheHits   int
	cacheMisses int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{created: map[string]int{}, ratings: map[string]int{}}
}

func (r *countingRecorder) RecordNoteCreated(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created[kind]++
}

func (r *countingRecorder) RecordNoteDeleted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted++
}

func (r *countingRecorder) RecordRatingSaved(action string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ratings[action]++
}

func (r *countingRecorder) RecordDownload() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.downloads++
}

func (r *countingRecorder) RecordCatalogCache(hit bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if hit {
		r.cacheHits++
	} else {
		r.cacheMisses++
	}
}

func newTestStorage(t *testing.T) *filestorage.LocalStorage {
	t.Helper()
	storage, err := filestorage.NewLocalStorage(t.TempDir(), "http://localhost:8080/uploads", "notes", "avatars")
	require.NoError(t, err)
	return storage
}

// newFileHeader builds a multipart file part the way gin hands it to controllers
func newFileHeader(t *testing.T, field, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File[field][0]
}
