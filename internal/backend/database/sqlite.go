package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

type SQLiteDatabase struct {
	db               *sql.DB
	connectionString string
}

func NewSQLiteDatabase(connectionString string) (DatabaseService, error) {
	db, err := sql.Open("sqlite", connectionString)
	if err != nil {
		return nil, err
	}
	// every connection to ":memory:" opens its own database, and SQLite
	// serialises writers anyway
	db.SetMaxOpenConns(1)

	return &SQLiteDatabase{
		db:               db,
		connectionString: connectionString,
	}, nil
}

func (s *SQLiteDatabase) CreateDatabase() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS photos (
			id TEXT PRIMARY KEY,
			description TEXT NOT NULL,
			object TEXT NOT NULL,
			generated_description TEXT,
			rank TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS associated_photos (
			id TEXT PRIMARY KEY,
			photo_id TEXT NOT NULL REFERENCES photos(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			image_data BLOB,
			text TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_photos_rank ON photos(rank)`,
		`CREATE INDEX IF NOT EXISTS idx_associated_photo_id ON associated_photos(photo_id, position)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteDatabase) DoesDatabaseExist() bool {
	// SQLite creates the file on connect, so a successful ping is enough.
	err := s.db.Ping()
	return err == nil
}

func (s *SQLiteDatabase) CreatePhoto(photo Photo) (*Photo, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback() // no-op after commit
	}()

	var exists int
	if err := tx.QueryRow("SELECT COUNT(1) FROM photos WHERE id = ?", photo.ID).Scan(&exists); err != nil {
		return nil, err
	}
	if exists > 0 {
		return nil, fmt.Errorf("photo %s: %w", photo.ID, ErrDuplicateID)
	}

	var last sql.NullString
	if err := tx.QueryRow("SELECT MAX(rank) FROM photos").Scan(&last); err != nil {
		return nil, err
	}
	photo.Rank = Next(last.String)

	_, err = tx.Exec("INSERT INTO photos (id, description, object, generated_description, rank) VALUES (?, ?, ?, ?, ?)",
		photo.ID, photo.Description, photo.Object, nullableString(photo.GeneratedDescription), photo.Rank)
	if err != nil {
		return nil, err
	}
	for i, a := range photo.AssociatedPhotos {
		if _, err := tx.Exec("INSERT INTO associated_photos (id, photo_id, position, image_data, text) VALUES (?, ?, ?, ?, ?)",
			a.ID, photo.ID, i, a.ImageData, a.Text); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &photo, nil
}

func (s *SQLiteDatabase) GetPhotoByID(id string) (*Photo, error) {
	row := s.db.QueryRow("SELECT id, description, object, generated_description, rank FROM photos WHERE id = ?", id)
	photo, err := scanPhoto(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	associated, err := s.associatedPhotos("WHERE photo_id = ?", id)
	if err != nil {
		return nil, err
	}
	photo.AssociatedPhotos = associated[id]
	if photo.AssociatedPhotos == nil {
		photo.AssociatedPhotos = []AssociatedPhoto{}
	}
	return photo, nil
}

func (s *SQLiteDatabase) GetPhotos() ([]*Photo, error) {
	rows, err := s.db.Query("SELECT id, description, object, generated_description, rank FROM photos ORDER BY rank, id")
	if err != nil {
		return nil, err
	}

	var photos []*Photo
	for rows.Next() {
		photo, err := scanPhoto(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		photos = append(photos, photo)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	// release the connection before the second query
	_ = rows.Close()

	associated, err := s.associatedPhotos("")
	if err != nil {
		return nil, err
	}
	for _, p := range photos {
		p.AssociatedPhotos = associated[p.ID]
		if p.AssociatedPhotos == nil {
			p.AssociatedPhotos = []AssociatedPhoto{}
		}
	}
	return photos, nil
}

func (s *SQLiteDatabase) UpdatePhoto(photo Photo) error {
	res, err := s.db.Exec("UPDATE photos SET description = ?, object = ?, generated_description = ? WHERE id = ?",
		photo.Description, photo.Object, nullableString(photo.GeneratedDescription), photo.ID)
	if err != nil {
		return err
	}
	return requireAffected(res, photo.ID)
}

func (s *SQLiteDatabase) DeletePhoto(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.Exec("DELETE FROM associated_photos WHERE photo_id = ?", id); err != nil {
		return err
	}
	res, err := tx.Exec("DELETE FROM photos WHERE id = ?", id)
	if err != nil {
		return err
	}
	if err := requireAffected(res, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteDatabase) AddAssociatedPhoto(photoID string, associated AssociatedPhoto) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var exists int
	if err := tx.QueryRow("SELECT COUNT(1) FROM photos WHERE id = ?", photoID).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return fmt.Errorf("photo %s: %w", photoID, ErrNotFound)
	}

	var position int
	if err := tx.QueryRow("SELECT COALESCE(MAX(position), -1) + 1 FROM associated_photos WHERE photo_id = ?", photoID).Scan(&position); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO associated_photos (id, photo_id, position, image_data, text) VALUES (?, ?, ?, ?, ?)",
		associated.ID, photoID, position, associated.ImageData, associated.Text); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteDatabase) RemoveAssociatedPhotos(photoID string, ids []string) (int, error) {
	var exists int
	if err := s.db.QueryRow("SELECT COUNT(1) FROM photos WHERE id = ?", photoID).Scan(&exists); err != nil {
		return 0, err
	}
	if exists == 0 {
		return 0, fmt.Errorf("photo %s: %w", photoID, ErrNotFound)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	args := make([]any, 0, len(ids)+1)
	args = append(args, photoID)
	for _, id := range ids {
		args = append(args, id)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	res, err := s.db.Exec("DELETE FROM associated_photos WHERE photo_id = ? AND id IN ("+placeholders+")", args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *SQLiteDatabase) GetOrderedPhotoIDs() ([]string, error) {
	rows, err := s.db.Query("SELECT id FROM photos ORDER BY rank, id")
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteDatabase) UpdatePhotoOrder(order []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	rows, err := tx.Query("SELECT id, rank FROM photos")
	if err != nil {
		return err
	}
	existing := make(map[string]string)
	for rows.Next() {
		var id, rank string
		if err := rows.Scan(&id, &rank); err != nil {
			_ = rows.Close()
			return err
		}
		existing[id] = rank
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	_ = rows.Close()

	if err := validateOrder(existing, order); err != nil {
		return err
	}

	for id, rank := range Reorder(existing, order) {
		if _, err := tx.Exec("UPDATE photos SET rank = ? WHERE id = ?", rank, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// associatedPhotos loads associated photos grouped by parent id, in position order.
func (s *SQLiteDatabase) associatedPhotos(where string, args ...any) (map[string][]AssociatedPhoto, error) {
	rows, err := s.db.Query("SELECT id, photo_id, image_data, text FROM associated_photos "+where+" ORDER BY photo_id, position", args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	grouped := make(map[string][]AssociatedPhoto)
	for rows.Next() {
		var a AssociatedPhoto
		var photoID string
		if err := rows.Scan(&a.ID, &photoID, &a.ImageData, &a.Text); err != nil {
			return nil, err
		}
		grouped[photoID] = append(grouped[photoID], a)
	}
	return grouped, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPhoto(row rowScanner) (*Photo, error) {
	var p Photo
	var generated sql.NullString
	if err := row.Scan(&p.ID, &p.Description, &p.Object, &generated, &p.Rank); err != nil {
		return nil, err
	}
	if generated.Valid {
		g := generated.String
		p.GeneratedDescription = &g
	}
	return &p, nil
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func requireAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("photo %s: %w", id, ErrNotFound)
	}
	return nil
}
