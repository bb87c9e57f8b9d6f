package folio

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/eringen/folio/contact"
	"github.com/eringen/folio/content"
	"github.com/eringen/folio/taskflow"
)

const timeLayout = time.RFC3339Nano

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Store wraps a SQLite database holding posts, projects, contact messages,
// TaskFlow tasks and uploaded image metadata.
type Store struct {
	db *sqlx.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets readers proceed during writes; busy_timeout makes writers wait
	// instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA foreign_keys=ON;
		PRAGMA cache_size=-8000;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS posts (
    id TEXT PRIMARY KEY,
    slug TEXT NOT NULL UNIQUE,
    title TEXT NOT NULL,
    excerpt TEXT NOT NULL DEFAULT '',
    content TEXT NOT NULL DEFAULT '',
    category TEXT NOT NULL,
    tags TEXT NOT NULL DEFAULT ',',
    author_name TEXT NOT NULL DEFAULT '',
    author_avatar TEXT NOT NULL DEFAULT '',
    author_bio TEXT NOT NULL DEFAULT '',
    cover_image TEXT NOT NULL DEFAULT '',
    published_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    reading_time INTEGER NOT NULL DEFAULT 1,
    featured INTEGER NOT NULL DEFAULT 0,
    published INTEGER NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS posts_published_at ON posts (published, published_at DESC);

CREATE TABLE IF NOT EXISTS projects (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    long_description TEXT NOT NULL DEFAULT '',
    technologies TEXT NOT NULL DEFAULT '',
    image TEXT NOT NULL DEFAULT '',
    demo_url TEXT NOT NULL DEFAULT '',
    github_url TEXT NOT NULL DEFAULT '',
    featured INTEGER NOT NULL DEFAULT 0,
    status TEXT NOT NULL,
    start_date TEXT NOT NULL,
    end_date TEXT
);

CREATE TABLE IF NOT EXISTS contact_messages (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL,
    subject TEXT NOT NULL,
    message TEXT NOT NULL,
    remote_ip TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL,
    priority TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS images (
    filename TEXT PRIMARY KEY,
    original_name TEXT NOT NULL,
    width INTEGER NOT NULL,
    height INTEGER NOT NULL,
    size INTEGER NOT NULL,
    uploaded_at TEXT NOT NULL
);
`)
	return err
}

// --- posts ---

type postRow struct {
	ID           string `db:"id"`
	Slug         string `db:"slug"`
	Title        string `db:"title"`
	Excerpt      string `db:"excerpt"`
	Content      string `db:"content"`
	Category     string `db:"category"`
	Tags         string `db:"tags"`
	AuthorName   string `db:"author_name"`
	AuthorAvatar string `db:"author_avatar"`
	AuthorBio    string `db:"author_bio"`
	CoverImage   string `db:"cover_image"`
	PublishedAt  string `db:"published_at"`
	UpdatedAt    string `db:"updated_at"`
	ReadingTime  int    `db:"reading_time"`
	Featured     bool   `db:"featured"`
	Published    bool   `db:"published"`
}

func (r postRow) post() content.BlogPost {
	return content.BlogPost{
		ID:          r.ID,
		Slug:        r.Slug,
		Title:       r.Title,
		Excerpt:     r.Excerpt,
		Content:     r.Content,
		Category:    content.Category(r.Category),
		Tags:        ParseTags(r.Tags),
		Author:      content.Author{Name: r.AuthorName, Avatar: r.AuthorAvatar, Bio: r.AuthorBio},
		CoverImage:  r.CoverImage,
		PublishedAt: parseTime(r.PublishedAt),
		UpdatedAt:   parseTime(r.UpdatedAt),
		ReadingTime: r.ReadingTime,
		Featured:    r.Featured,
		Published:   r.Published,
	}
}

const postColumns = `id, slug, title, excerpt, content, category, tags, author_name, author_avatar,
	author_bio, cover_image, published_at, updated_at, reading_time, featured, published`

func (s *Store) selectPosts(ctx context.Context, query string, args ...any) ([]content.BlogPost, error) {
	var rows []postRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	posts := make([]content.BlogPost, 0, len(rows))
	for _, r := range rows {
		posts = append(posts, r.post())
	}
	return posts, nil
}

// ListPosts returns all published posts, newest first.
func (s *Store) ListPosts(ctx context.Context) ([]content.BlogPost, error) {
	return s.selectPosts(ctx, `SELECT `+postColumns+` FROM posts WHERE published = 1 ORDER BY published_at DESC, slug`)
}

// ListAllPosts returns every post (published and drafts), newest first.
func (s *Store) ListAllPosts(ctx context.Context) ([]content.BlogPost, error) {
	return s.selectPosts(ctx, `SELECT `+postColumns+` FROM posts ORDER BY published_at DESC, slug`)
}

// GetPost returns a single published post by slug.
func (s *Store) GetPost(ctx context.Context, slug string) (content.BlogPost, error) {
	return s.getPost(ctx, `SELECT `+postColumns+` FROM posts WHERE slug = ? AND published = 1`, slug)
}

// GetPostAny returns a post by slug regardless of published status (for admin).
func (s *Store) GetPostAny(ctx context.Context, slug string) (content.BlogPost, error) {
	return s.getPost(ctx, `SELECT `+postColumns+` FROM posts WHERE slug = ?`, slug)
}

func (s *Store) getPost(ctx context.Context, query, slug string) (content.BlogPost, error) {
	var r postRow
	if err := s.db.GetContext(ctx, &r, query, slug); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return content.BlogPost{}, content.ErrNotFound
		}
		return content.BlogPost{}, err
	}
	return r.post(), nil
}

// ListTags returns a sorted, deduplicated slice of all tags from published posts.
func (s *Store) ListTags(ctx context.Context) ([]string, error) {
	var rows []string
	if err := s.db.SelectContext(ctx, &rows, `SELECT tags FROM posts WHERE published = 1`); err != nil {
		return nil, err
	}
	set := make(map[string]struct{})
	for _, tags := range rows {
		for _, t := range ParseTags(tags) {
			set[t] = struct{}{}
		}
	}
	result := make([]string, 0, len(set))
	for t := range set {
		result = append(result, t)
	}
	sort.Strings(result)
	return result, nil
}

// SavePost validates and upserts a post keyed by slug. Tags are normalized
// to lowercase and the reading time is derived from the content.
func (s *Store) SavePost(ctx context.Context, p content.BlogPost) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = p.Slug
	}
	if p.PublishedAt.IsZero() {
		p.PublishedAt = time.Now().UTC()
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.PublishedAt
	}
	p.ReadingTime = content.ReadingTime(p.Content)
	row := postRow{
		ID:           p.ID,
		Slug:         p.Slug,
		Title:        p.Title,
		Excerpt:      p.Excerpt,
		Content:      p.Content,
		Category:     string(p.Category),
		Tags:         JoinTagString(p.Tags),
		AuthorName:   p.Author.Name,
		AuthorAvatar: p.Author.Avatar,
		AuthorBio:    p.Author.Bio,
		CoverImage:   p.CoverImage,
		PublishedAt:  formatTime(p.PublishedAt),
		UpdatedAt:    formatTime(p.UpdatedAt),
		ReadingTime:  p.ReadingTime,
		Featured:     p.Featured,
		Published:    p.Published,
	}
	_, err := s.db.NamedExecContext(ctx, `
INSERT INTO posts (`+postColumns+`)
VALUES (:id, :slug, :title, :excerpt, :content, :category, :tags, :author_name, :author_avatar,
	:author_bio, :cover_image, :published_at, :updated_at, :reading_time, :featured, :published)
ON CONFLICT(slug) DO UPDATE SET
    title = excluded.title,
    excerpt = excluded.excerpt,
    content = excluded.content,
    category = excluded.category,
    tags = excluded.tags,
    author_name = excluded.author_name,
    author_avatar = excluded.author_avatar,
    author_bio = excluded.author_bio,
    cover_image = excluded.cover_image,
    published_at = excluded.published_at,
    updated_at = excluded.updated_at,
    reading_time = excluded.reading_time,
    featured = excluded.featured,
    published = excluded.published`, row)
	return err
}

// DeletePost removes a post by slug.
func (s *Store) DeletePost(ctx context.Context, slug string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE slug = ?`, slug)
	return err
}

// CountPosts returns the number of stored posts, drafts included.
func (s *Store) CountPosts(ctx context.Context) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM posts`)
	return n, err
}

// --- projects ---

type projectRow struct {
	ID              string         `db:"id"`
	Title           string         `db:"title"`
	Description     string         `db:"description"`
	LongDescription string         `db:"long_description"`
	Technologies    string         `db:"technologies"`
	Image           string         `db:"image"`
	DemoURL         string         `db:"demo_url"`
	GitHubURL       string         `db:"github_url"`
	Featured        bool           `db:"featured"`
	Status          string         `db:"status"`
	StartDate       string         `db:"start_date"`
	EndDate         sql.NullString `db:"end_date"`
}

func (r projectRow) project() content.Project {
	p := content.Project{
		ID:              r.ID,
		Title:           r.Title,
		Description:     r.Description,
		LongDescription: r.LongDescription,
		Technologies:    splitLines(r.Technologies),
		Image:           r.Image,
		DemoURL:         r.DemoURL,
		GitHubURL:       r.GitHubURL,
		Featured:        r.Featured,
		Status:          content.ProjectStatus(r.Status),
		StartDate:       parseTime(r.StartDate),
	}
	if r.EndDate.Valid {
		end := parseTime(r.EndDate.String)
		p.EndDate = &end
	}
	return p
}

const projectColumns = `id, title, description, long_description, technologies, image, demo_url,
	github_url, featured, status, start_date, end_date`

// ListProjects returns projects, featured first, then most recently started.
func (s *Store) ListProjects(ctx context.Context) ([]content.Project, error) {
	var rows []projectRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT `+projectColumns+` FROM projects ORDER BY featured DESC, start_date DESC, id`); err != nil {
		return nil, err
	}
	projects := make([]content.Project, 0, len(rows))
	for _, r := range rows {
		projects = append(projects, r.project())
	}
	return projects, nil
}

// GetProject returns a project by id.
func (s *Store) GetProject(ctx context.Context, id string) (content.Project, error) {
	var r projectRow
	if err := s.db.GetContext(ctx, &r, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return content.Project{}, content.ErrNotFound
		}
		return content.Project{}, err
	}
	return r.project(), nil
}

// SaveProject validates and upserts a project.
func (s *Store) SaveProject(ctx context.Context, p content.Project) error {
	if err := p.Validate(); err != nil {
		return err
	}
	row := projectRow{
		ID:              p.ID,
		Title:           p.Title,
		Description:     p.Description,
		LongDescription: p.LongDescription,
		Technologies:    strings.Join(p.Technologies, "\n"),
		Image:           p.Image,
		DemoURL:         p.DemoURL,
		GitHubURL:       p.GitHubURL,
		Featured:        p.Featured,
		Status:          string(p.Status),
		StartDate:       formatTime(p.StartDate),
	}
	if p.EndDate != nil {
		row.EndDate = sql.NullString{String: formatTime(*p.EndDate), Valid: true}
	}
	_, err := s.db.NamedExecContext(ctx, `
INSERT OR REPLACE INTO projects (`+projectColumns+`)
VALUES (:id, :title, :description, :long_description, :technologies, :image, :demo_url,
	:github_url, :featured, :status, :start_date, :end_date)`, row)
	return err
}

// DeleteProject removes a project by id.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	return err
}

// --- contact messages ---

type messageRow struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	Email     string `db:"email"`
	Subject   string `db:"subject"`
	Message   string `db:"message"`
	RemoteIP  string `db:"remote_ip"`
	CreatedAt string `db:"created_at"`
}

// SaveContactMessage records an accepted contact submission.
func (s *Store) SaveContactMessage(ctx context.Context, msg contact.Message) error {
	_, err := s.db.NamedExecContext(ctx, `
INSERT INTO contact_messages (id, name, email, subject, message, remote_ip, created_at)
VALUES (:id, :name, :email, :subject, :message, :remote_ip, :created_at)`, messageRow{
		ID:        msg.ID,
		Name:      msg.Name,
		Email:     msg.Email,
		Subject:   msg.Subject,
		Message:   msg.FormData.Message,
		RemoteIP:  msg.RemoteIP,
		CreatedAt: formatTime(msg.CreatedAt),
	})
	if err != nil {
		return fmt.Errorf("save contact message: %w", err)
	}
	return nil
}

// ListContactMessages returns recorded messages, newest first.
func (s *Store) ListContactMessages(ctx context.Context) ([]contact.Message, error) {
	var rows []messageRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT id, name, email, subject, message, remote_ip, created_at FROM contact_messages ORDER BY created_at DESC`); err != nil {
		return nil, err
	}
	out := make([]contact.Message, 0, len(rows))
	for _, r := range rows {
		out = append(out, contact.Message{
			ID: r.ID,
			FormData: contact.FormData{
				Name:    r.Name,
				Email:   r.Email,
				Subject: r.Subject,
				Message: r.Message,
			},
			RemoteIP:  r.RemoteIP,
			CreatedAt: parseTime(r.CreatedAt),
		})
	}
	return out, nil
}

// DeleteContactMessage removes a recorded message.
func (s *Store) DeleteContactMessage(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM contact_messages WHERE id = ?`, id)
	return err
}

// --- tasks ---

type taskRow struct {
	ID          string `db:"id"`
	Title       string `db:"title"`
	Description string `db:"description"`
	Status      string `db:"status"`
	Priority    string `db:"priority"`
	CreatedAt   string `db:"created_at"`
	UpdatedAt   string `db:"updated_at"`
}

func (r taskRow) task() taskflow.Task {
	return taskflow.Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Status:      taskflow.Status(r.Status),
		Priority:    taskflow.Priority(r.Priority),
		CreatedAt:   parseTime(r.CreatedAt),
		UpdatedAt:   parseTime(r.UpdatedAt),
	}
}

// ListTasks implements taskflow.TaskStore.
func (s *Store) ListTasks(ctx context.Context) ([]taskflow.Task, error) {
	var rows []taskRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT id, title, description, status, priority, created_at, updated_at FROM tasks ORDER BY created_at`); err != nil {
		return nil, err
	}
	out := make([]taskflow.Task, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.task())
	}
	return out, nil
}

// GetTask implements taskflow.TaskStore.
func (s *Store) GetTask(ctx context.Context, id string) (taskflow.Task, error) {
	var r taskRow
	err := s.db.GetContext(ctx, &r,
		`SELECT id, title, description, status, priority, created_at, updated_at FROM tasks WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return taskflow.Task{}, taskflow.ErrTaskNotFound
	}
	if err != nil {
		return taskflow.Task{}, err
	}
	return r.task(), nil
}

// SaveTask implements taskflow.TaskStore.
func (s *Store) SaveTask(ctx context.Context, t taskflow.Task) error {
	_, err := s.db.NamedExecContext(ctx, `
INSERT OR REPLACE INTO tasks (id, title, description, status, priority, created_at, updated_at)
VALUES (:id, :title, :description, :status, :priority, :created_at, :updated_at)`, taskRow{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		CreatedAt:   formatTime(t.CreatedAt),
		UpdatedAt:   formatTime(t.UpdatedAt),
	})
	return err
}

// DeleteTask implements taskflow.TaskStore.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return taskflow.ErrTaskNotFound
	}
	return nil
}

// --- images ---

type imageRow struct {
	Filename     string `db:"filename"`
	OriginalName string `db:"original_name"`
	Width        int    `db:"width"`
	Height       int    `db:"height"`
	Size         int    `db:"size"`
	UploadedAt   string `db:"uploaded_at"`
}

// SaveImage records uploaded image metadata.
func (s *Store) SaveImage(ctx context.Context, img content.Image) error {
	_, err := s.db.NamedExecContext(ctx, `
INSERT OR REPLACE INTO images (filename, original_name, width, height, size, uploaded_at)
VALUES (:filename, :original_name, :width, :height, :size, :uploaded_at)`, imageRow{
		Filename:     img.Filename,
		OriginalName: img.OriginalName,
		Width:        img.Width,
		Height:       img.Height,
		Size:         img.Size,
		UploadedAt:   formatTime(img.UploadedAt),
	})
	return err
}

// ListImages returns uploaded images, newest first.
func (s *Store) ListImages(ctx context.Context) ([]content.Image, error) {
	var rows []imageRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT filename, original_name, width, height, size, uploaded_at FROM images ORDER BY uploaded_at DESC, filename`); err != nil {
		return nil, err
	}
	images := make([]content.Image, 0, len(rows))
	for _, r := range rows {
		images = append(images, content.Image{
			Filename:     r.Filename,
			OriginalName: r.OriginalName,
			Width:        r.Width,
			Height:       r.Height,
			Size:         r.Size,
			UploadedAt:   parseTime(r.UploadedAt),
		})
	}
	return images, nil
}

// ImageExists reports whether filename is already recorded.
func (s *Store) ImageExists(ctx context.Context, filename string) (bool, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM images WHERE filename = ?`, filename)
	return n > 0, err
}

// DeleteImage removes image metadata.
func (s *Store) DeleteImage(ctx context.Context, filename string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM images WHERE filename = ?`, filename)
	return err
}

// --- seeding ---

// Seed loads the sample posts and projects when the posts table is empty.
// It reports whether anything was inserted.
func (s *Store) Seed(ctx context.Context) (bool, error) {
	n, err := s.CountPosts(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	for _, p := range content.SamplePosts() {
		if err := s.SavePost(ctx, p); err != nil {
			return false, fmt.Errorf("seed post %s: %w", p.Slug, err)
		}
	}
	for _, p := range content.SampleProjects() {
		if err := s.SaveProject(ctx, p); err != nil {
			return false, fmt.Errorf("seed project %s: %w", p.ID, err)
		}
	}
	return true, nil
}

// ParseTags splits a comma-delimited tag string (e.g. ",go,web,") into a slice.
func ParseTags(tagString string) []string {
	tagString = strings.Trim(tagString, ",")
	if tagString == "" {
		return nil
	}
	parts := strings.Split(tagString, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// JoinTagString normalizes tags and encodes them as ",a,b," so a single tag
// can be matched with instr().
func JoinTagString(tags []string) string {
	return "," + strings.Join(content.NormalizeTags(tags), ",") + ","
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		if d, derr := time.Parse("2006-01-02", s); derr == nil {
			return d
		}
		return time.Time{}
	}
	return t
}
