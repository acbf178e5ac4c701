package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/rs/zerolog"

	"skylog/api/internal/config"
	"skylog/api/internal/ids"
	"skylog/api/internal/models"
	"skylog/api/internal/repository"
	"skylog/api/internal/security"
	"skylog/api/internal/storage"
)

const maxReceiptBytes = 10 << 20

var allowedReceiptTypes = map[string]string{
	"application/pdf": "pdf",
	"image/jpeg":      "jpg",
	"image/png":       "png",
}

var ErrUnsupportedReceiptType = errors.New("unsupported receipt file type")

type ReceiptInput struct {
	User        models.User
	CostEntryID string
	File        multipart.File
	Header      *multipart.FileHeader
}

type ReceiptService struct {
	costs *repository.CostRepository
	store *storage.ObjectStore
	cfg   *config.AppConfig
	log   zerolog.Logger
}

func NewReceiptService(costs *repository.CostRepository, store *storage.ObjectStore, cfg *config.AppConfig, log zerolog.Logger) *ReceiptService {
	return &ReceiptService{
		costs: costs,
		store: store,
		cfg:   cfg,
		log:   log,
	}
}

// Upload stores a receipt file for one of the user's cost entries. The
// cost entry lookup is user-scoped, so attaching a receipt to another
// user's entry reads as not found.
func (s *ReceiptService) Upload(ctx context.Context, input ReceiptInput) (models.Receipt, error) {
	if input.File == nil || input.Header == nil {
		return models.Receipt{}, errors.New("invalid file payload")
	}
	if input.Header.Size > maxReceiptBytes {
		return models.Receipt{}, fmt.Errorf("file too large (%d bytes)", input.Header.Size)
	}

	entry, err := s.costs.GetByID(ctx, input.User.ID, input.CostEntryID)
	if err != nil {
		return models.Receipt{}, err
	}

	data, err := io.ReadAll(io.LimitReader(input.File, maxReceiptBytes+1))
	if err != nil {
		return models.Receipt{}, fmt.Errorf("read file: %w", err)
	}
	if len(data) == 0 {
		return models.Receipt{}, errors.New("empty file")
	}
	if len(data) > maxReceiptBytes {
		return models.Receipt{}, errors.New("file too large")
	}

	contentType := http.DetectContentType(data)
	ext, ok := allowedReceiptTypes[contentType]
	if !ok {
		return models.Receipt{}, fmt.Errorf("%w: %s", ErrUnsupportedReceiptType, contentType)
	}

	receiptID := ids.New()
	objectKey := s.buildObjectKey(input.User.ID, receiptID, ext)

	options := minio.PutObjectOptions{ContentType: contentType}
	info, err := s.store.Client().PutObject(ctx, s.cfg.Storage.BucketReceipts, objectKey,
		bytes.NewReader(data), int64(len(data)), options)
	if err != nil {
		return models.Receipt{}, fmt.Errorf("put object: %w", err)
	}

	sum := sha256.Sum256(data)
	receipt := models.Receipt{
		ID:          receiptID,
		CostEntryID: entry.ID,
		UserID:      input.User.ID,
		Bucket:      s.cfg.Storage.BucketReceipts,
		ObjectKey:   objectKey,
		ContentType: contentType,
		SizeBytes:   info.Size,
		Checksum:    sum[:],
		Signature:   security.SignResource(s.cfg.Security.SignatureSecret, receiptID, objectKey),
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.costs.CreateReceipt(ctx, receipt); err != nil {
		return models.Receipt{}, fmt.Errorf("save metadata: %w", err)
	}

	return receipt, nil
}

func (s *ReceiptService) buildObjectKey(userID, receiptID, ext string) string {
	datePrefix := time.Now().UTC().Format("2006/01")
	return path.Join(userID, datePrefix, fmt.Sprintf("%s.%s", receiptID, ext))
}
