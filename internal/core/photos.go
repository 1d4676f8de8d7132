package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/jo-hoe/closetcam/internal/backend/database"
	"github.com/jo-hoe/closetcam/internal/backend/describe"
	"github.com/jo-hoe/closetcam/internal/backend/imagestore"
)

const (
	// UnknownObject labels captures nobody named.
	UnknownObject = "Unknown"
	// TextObject labels standalone text photos.
	TextObject = "Detected Text"
)

// PhotoUpdate holds optional edits; nil fields are left unchanged.
type PhotoUpdate struct {
	Description          *string `json:"description"`
	Object               *string `json:"object"`
	GeneratedDescription *string `json:"generatedDescription"`
}

// Capture normalises an upload to JPEG, names the colour at its centre and
// appends it to the library.
func (service *CoreService) Capture(ctx context.Context, image []byte, object string) (*database.Photo, error) {
	jpegData, err := service.normalise(image)
	if err != nil {
		return nil, err
	}

	decoded, err := imaging.Decode(bytes.NewReader(jpegData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode normalised image: %w", err)
	}
	colourName, sample := service.classifier.ClassifyImage(decoded, service.config.SampleSize)

	object = strings.TrimSpace(object)
	if object == "" && service.objectDetector != nil {
		detected, err := service.objectDetector.DetectObject(ctx, jpegData)
		if err != nil {
			slog.Warn("object detection failed", "error", err)
		}
		object = strings.TrimSpace(detected)
	}
	if object == "" {
		object = UnknownObject
	}

	photo, err := service.store(jpegData, colourName, object)
	if err != nil {
		return nil, err
	}
	slog.Info("photo captured",
		"id", photo.ID,
		"colour", colourName,
		"r", sample.R, "g", sample.G, "b", sample.B,
		"object", object)
	return photo, nil
}

// AddTextPhoto attaches a label photo to parentID, or stores it as a
// standalone text record when parentID is empty.
func (service *CoreService) AddTextPhoto(ctx context.Context, image []byte, text, parentID string) (*database.Photo, error) {
	jpegData, err := service.normalise(image)
	if err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if text == "" && service.textRecognizer != nil {
		recognized, err := service.textRecognizer.RecognizeText(ctx, jpegData)
		if err != nil {
			slog.Warn("text recognition failed", "error", err)
		}
		text = strings.TrimSpace(recognized)
	}

	if parentID == "" {
		photo, err := service.store(jpegData, text, TextObject)
		if err != nil {
			return nil, err
		}
		slog.Info("text photo stored", "id", photo.ID)
		return photo, nil
	}

	id, err := database.GenerateID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate id: %w", err)
	}
	err = service.databaseService.AddAssociatedPhoto(parentID, database.AssociatedPhoto{
		ID:        id,
		ImageData: jpegData,
		Text:      text,
	})
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("photo %s: %w", parentID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to associate photo with %s: %w", parentID, err)
	}
	slog.Info("associated photo added", "photo_id", parentID, "associated_id", id)
	return service.GetPhoto(parentID)
}

func (service *CoreService) ListPhotos() ([]*database.Photo, error) {
	photos, err := service.databaseService.GetPhotos()
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	return photos, nil
}

func (service *CoreService) GetPhoto(id string) (*database.Photo, error) {
	photo, err := service.databaseService.GetPhotoByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load photo %s: %w", id, err)
	}
	if photo == nil {
		return nil, fmt.Errorf("photo %s: %w", id, ErrNotFound)
	}
	return photo, nil
}

func (service *CoreService) UpdatePhoto(id string, update PhotoUpdate) (*database.Photo, error) {
	photo, err := service.GetPhoto(id)
	if err != nil {
		return nil, err
	}
	if update.Description != nil {
		photo.Description = *update.Description
	}
	if update.Object != nil {
		photo.Object = *update.Object
	}
	if update.GeneratedDescription != nil {
		generated := *update.GeneratedDescription
		photo.GeneratedDescription = &generated
		if generated == "" {
			photo.GeneratedDescription = nil
		}
	}
	if err := service.databaseService.UpdatePhoto(*photo); err != nil {
		return nil, service.notFoundOr(id, err)
	}
	return photo, nil
}

// DeletePhotos removes each known id and its image file. Unknown ids are
// skipped. A missing image file is logged only.
func (service *CoreService) DeletePhotos(ids []string) (int, error) {
	service.orderMu.Lock()
	defer service.orderMu.Unlock()

	deleted := 0
	for _, id := range ids {
		err := service.databaseService.DeletePhoto(id)
		if errors.Is(err, database.ErrNotFound) {
			slog.Debug("skipping unknown photo", "id", id)
			continue
		}
		if err != nil {
			return deleted, fmt.Errorf("failed to delete photo %s: %w", id, err)
		}
		deleted++

		if err := service.images.Delete(id); err != nil {
			slog.Error("failed to delete image file", "id", id, "error", err)
		}
	}
	slog.Info("photos deleted", "requested", len(ids), "deleted", deleted)
	return deleted, nil
}

func (service *CoreService) RemoveAssociatedPhotos(photoID string, ids []string) (int, error) {
	removed, err := service.databaseService.RemoveAssociatedPhotos(photoID, ids)
	if err != nil {
		return 0, service.notFoundOr(photoID, err)
	}
	slog.Info("associated photos removed", "photo_id", photoID, "removed", removed)
	return removed, nil
}

// GenerateDescription asks the describer about a photo and stores the answer.
func (service *CoreService) GenerateDescription(ctx context.Context, id string) (*database.Photo, error) {
	if service.describer == nil {
		return nil, ErrDescriberUnavailable
	}
	photo, err := service.GetPhoto(id)
	if err != nil {
		return nil, err
	}

	prompt := describe.BuildPrompt(photo.Description, photo.Object, photo.Texts())
	slog.Debug("generating description", "id", id, "prompt", prompt)
	text, err := service.describer.Describe(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate description for %s: %w", id, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("describer returned an empty description for %s", id)
	}

	photo.GeneratedDescription = &text
	if err := service.databaseService.UpdatePhoto(*photo); err != nil {
		return nil, service.notFoundOr(id, err)
	}
	slog.Info("description generated", "id", id, "length", len(text))
	return photo, nil
}

// MovePhoto swaps a photo with its neighbour. Moving past either end is a no-op.
func (service *CoreService) MovePhoto(id, direction string) error {
	var delta int
	switch direction {
	case "up":
		delta = -1
	case "down":
		delta = 1
	default:
		return fmt.Errorf("%w: direction must be 'up' or 'down', got %q", ErrInvalidInput, direction)
	}

	service.orderMu.Lock()
	defer service.orderMu.Unlock()

	order, err := service.databaseService.GetOrderedPhotoIDs()
	if err != nil {
		return fmt.Errorf("failed to load photo order: %w", err)
	}
	index := -1
	for i, existing := range order {
		if existing == id {
			index = i
			break
		}
	}
	if index < 0 {
		return fmt.Errorf("photo %s: %w", id, ErrNotFound)
	}
	target := index + delta
	if target < 0 || target >= len(order) {
		return nil
	}

	order[index], order[target] = order[target], order[index]
	if err := service.databaseService.UpdatePhotoOrder(order); err != nil {
		return fmt.Errorf("failed to move photo %s: %w", id, err)
	}
	slog.Debug("photo moved", "id", id, "direction", direction, "position", target)
	return nil
}

func (service *CoreService) GetImage(id string) ([]byte, error) {
	data, err := service.images.Load(id)
	if errors.Is(err, imagestore.ErrNotFound) {
		return nil, fmt.Errorf("image %s: %w", id, ErrNotFound)
	}
	return data, err
}

func (service *CoreService) GetThumbnail(id string) ([]byte, error) {
	data, err := service.GetImage(id)
	if err != nil {
		return nil, err
	}
	thumbnail, err := service.thumbnailer.Execute(data)
	if err != nil {
		return nil, fmt.Errorf("failed to create thumbnail for %s: %w", id, err)
	}
	return thumbnail, nil
}

func (service *CoreService) GetAssociatedImage(photoID, associatedID string) ([]byte, error) {
	photo, err := service.GetPhoto(photoID)
	if err != nil {
		return nil, err
	}
	for _, associated := range photo.AssociatedPhotos {
		if associated.ID == associatedID {
			return associated.ImageData, nil
		}
	}
	return nil, fmt.Errorf("associated photo %s of %s: %w", associatedID, photoID, ErrNotFound)
}

func (service *CoreService) normalise(image []byte) ([]byte, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("%w: image is empty", ErrInvalidInput)
	}
	jpegData, err := service.pipeline.Execute(image)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return jpegData, nil
}

// store writes the image file and then the record; a failed insert removes the file.
func (service *CoreService) store(jpegData []byte, description, object string) (*database.Photo, error) {
	id, err := database.GenerateID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate id: %w", err)
	}
	if err := service.images.Save(id, jpegData); err != nil {
		return nil, err
	}

	service.orderMu.Lock()
	photo, err := service.databaseService.CreatePhoto(database.Photo{
		ID:          id,
		Description: description,
		Object:      object,
	})
	service.orderMu.Unlock()
	if err != nil {
		if deleteErr := service.images.Delete(id); deleteErr != nil {
			slog.Error("failed to clean up image after insert failure", "id", id, "error", deleteErr)
		}
		return nil, fmt.Errorf("failed to store photo %s: %w", id, err)
	}
	return photo, nil
}

func (service *CoreService) notFoundOr(id string, err error) error {
	if errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("photo %s: %w", id, ErrNotFound)
	}
	return err
}
