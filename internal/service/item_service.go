package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/dugoutapp/dugout/internal/blobstore"
	"github.com/dugoutapp/dugout/internal/catalog"
	"github.com/dugoutapp/dugout/internal/domain"
	"github.com/dugoutapp/dugout/internal/imageproc"
	"github.com/dugoutapp/dugout/internal/vision"
)

// ErrVisionDisabled is returned by Suggest when no vision backend is
// configured.
var ErrVisionDisabled = errors.New("vision backend disabled")

// ValidationError reports a field that failed the preflight checks. It is
// produced before any store or blob call happens.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// itemRepository is the subset of store.ItemStore that ItemService requires.
type itemRepository interface {
	Create(ctx context.Context, item domain.Item) (*domain.Item, error)
	GetByID(ctx context.Context, id string) (*domain.Item, error)
	ListByKind(ctx context.Context, kind domain.Kind) ([]*domain.Item, error)
	Update(ctx context.Context, id string, item domain.Item) error
	Delete(ctx context.Context, id string) error
}

// ItemInput carries the editable fields of an item as submitted by a form.
type ItemInput struct {
	Kind        domain.Kind
	Team        string
	Player      string
	ColorDesign string
	Location    string
	PricePaid   *float64
}

// Upload is an optional photo accompanying a create or update.
type Upload struct {
	Filename string
	Reader   io.Reader
}

type ItemService struct {
	items    itemRepository
	blobs    blobstore.BlobStore
	catalog  *catalog.Catalog
	analyzer vision.Analyzer
	logger   *slog.Logger
}

// NewItemService wires the service. analyzer may be nil, which disables
// photo-based suggestions.
func NewItemService(
	items itemRepository,
	blobs blobstore.BlobStore,
	cat *catalog.Catalog,
	analyzer vision.Analyzer,
	logger *slog.Logger,
) *ItemService {
	return &ItemService{
		items:    items,
		blobs:    blobs,
		catalog:  cat,
		analyzer: analyzer,
		logger:   logger,
	}
}

func (s *ItemService) Catalog() *catalog.Catalog {
	return s.catalog
}

func (s *ItemService) VisionEnabled() bool {
	return s.analyzer != nil
}

// ListItems returns all items of one kind, newest first.
func (s *ItemService) ListItems(ctx context.Context, kind domain.Kind) ([]*domain.Item, error) {
	return s.items.ListByKind(ctx, kind)
}

func (s *ItemService) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

// CreateItem validates the input, uploads the photo if one was provided, and
// inserts the record. If the insert fails after the upload succeeded, the
// blob is left orphaned on purpose: the two steps are not a transaction and
// there is no compensating delete.
func (s *ItemService) CreateItem(ctx context.Context, in ItemInput, photo *Upload) (*domain.Item, error) {
	if err := s.validate(&in); err != nil {
		return nil, err
	}

	var imageURL *string
	if photo != nil {
		url, err := s.uploadPhoto(ctx, photo)
		if err != nil {
			return nil, err
		}
		imageURL = &url
	}

	item, err := s.items.Create(ctx, domain.Item{
		Kind:        in.Kind,
		Team:        in.Team,
		Player:      in.Player,
		ColorDesign: in.ColorDesign,
		Location:    in.Location,
		PricePaid:   in.PricePaid,
		ImageURL:    imageURL,
	})
	if err != nil {
		if imageURL != nil {
			s.logger.Warn("insert failed after upload; blob orphaned", "image_url", *imageURL)
		}
		return nil, err
	}

	s.logger.Info("item created", "id", item.ID, "kind", item.Kind, "team", item.Team)
	return item, nil
}

// UpdateItem validates the input and rewrites the record. A replacement photo
// is uploaded and its URL resolved before the previous blob is removed, so
// the item never points at a missing image; the removal itself is
// best-effort. If the record update then fails, the old blob is already gone
// and the new one is unreferenced; that is the accepted risk of keeping these
// steps non-transactional.
func (s *ItemService) UpdateItem(ctx context.Context, id string, in ItemInput, photo *Upload) (*domain.Item, error) {
	existing, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	// Ids are namespaced per collection: a hat id does not exist as a jersey
	// and must not be rewritten through the jersey routes.
	if existing.Kind != in.Kind {
		return nil, domain.ErrNotFound
	}

	if err := s.validate(&in); err != nil {
		return nil, err
	}

	imageURL := existing.ImageURL
	if photo != nil {
		url, err := s.uploadPhoto(ctx, photo)
		if err != nil {
			return nil, err
		}
		if existing.ImageURL != nil {
			s.removeBlobByURL(ctx, *existing.ImageURL)
		}
		imageURL = &url
	}

	if err := s.items.Update(ctx, id, domain.Item{
		Team:        in.Team,
		Player:      in.Player,
		ColorDesign: in.ColorDesign,
		Location:    in.Location,
		PricePaid:   in.PricePaid,
		ImageURL:    imageURL,
	}); err != nil {
		return nil, err
	}

	s.logger.Info("item updated", "id", id, "kind", in.Kind)
	return s.GetItem(ctx, id)
}

// DeleteItem removes the item's blob best-effort, then its record. A missing
// blob or a storage error never blocks the record deletion; a record-deletion
// failure surfaces and the item remains listed.
func (s *ItemService) DeleteItem(ctx context.Context, kind domain.Kind, id string) error {
	existing, err := s.GetItem(ctx, id)
	if err != nil {
		return err
	}
	if existing.Kind != kind {
		return domain.ErrNotFound
	}

	if existing.ImageURL != nil {
		s.removeBlobByURL(ctx, *existing.ImageURL)
	}

	if err := s.items.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("item deleted", "id", id, "kind", existing.Kind)
	return nil
}

// Suggest guesses form fields from a photo via the configured vision backend.
func (s *ItemService) Suggest(ctx context.Context, imageData []byte, mimeType string) (*vision.Suggestion, error) {
	if s.analyzer == nil {
		return nil, ErrVisionDisabled
	}
	return s.analyzer.Suggest(ctx, bytes.NewReader(imageData), mimeType)
}

// validate runs the preflight checks the forms rely on and normalizes the
// input. Nothing touches the network before these pass.
func (s *ItemService) validate(in *ItemInput) error {
	if !in.Kind.Valid() {
		return &ValidationError{Field: "kind", Message: "unknown item type"}
	}
	// Hats never carry a player; stray form values are dropped.
	if in.Kind == domain.KindHat {
		in.Player = ""
	}
	if in.Team == "" {
		return &ValidationError{Field: "team", Message: "please select a team"}
	}
	if !s.catalog.ValidTeam(in.Team) {
		return &ValidationError{Field: "team", Message: "unknown team"}
	}
	if in.Kind == domain.KindJersey && strings.TrimSpace(in.Player) == "" {
		return &ValidationError{Field: "player", Message: "please enter a player name"}
	}
	if in.Location == "" {
		return &ValidationError{Field: "location", Message: "please select a location"}
	}
	if !s.catalog.ValidLocation(in.Kind, in.Location) {
		return &ValidationError{Field: "location", Message: "unknown location"}
	}
	return nil
}

// uploadPhoto compresses the photo, stores it under a fresh key, and returns
// the public URL. Compression failure aborts before any network call.
func (s *ItemService) uploadPhoto(ctx context.Context, photo *Upload) (string, error) {
	file, err := imageproc.Compress(photo.Filename, photo.Reader, imageproc.DefaultMaxBytes)
	if err != nil {
		return "", err
	}

	// Small files pass through compression unconverted, so sniff the actual
	// format rather than assuming JPEG.
	mimeType := http.DetectContentType(file.Data)

	key := imageproc.StorageKey(file.Name)
	if err := s.blobs.Upload(ctx, key, mimeType, bytes.NewReader(file.Data)); err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	url := s.blobs.PublicURL(key)
	s.logger.Debug("photo uploaded", "key", key, "bytes", len(file.Data))
	return url, nil
}

// removeBlobByURL deletes the blob a public URL points at, logging failures
// without surfacing them. The key is the final URL path segment, mirroring
// how PublicURL builds URLs.
func (s *ItemService) removeBlobByURL(ctx context.Context, url string) {
	key := path.Base(url)
	if key == "" || key == "." || key == "/" {
		return
	}
	if err := s.blobs.Remove(ctx, key); err != nil {
		s.logger.Warn("failed to remove blob", "key", key, "error", err)
	}
}
