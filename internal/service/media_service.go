package service

import (
	"Rankify/internal/model"
	"Rankify/internal/pkg/consts"
	"bytes"
	"context"
	"io"
	log "log/slog"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const (
	DefaultMaxUploadSize = 10 << 20
	sniffLen             = 3072
)

type MediaRef struct {
	Ref         string `json:"ref"`
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

type MediaService interface {
	// UploadImage 只接受图片，不做任何处理，原样存入对象存储
	UploadImage(ctx context.Context, ownerID string, r io.Reader, size int64) (*MediaRef, error)
	ResolveRef(ref string) string
}

type MediaServiceImpl struct {
	blobs   BlobStore
	maxSize int64
}

// NewMediaService blobs 为 nil 时上传返回 ErrMediaDisabled，引用原样透传
func NewMediaService(blobs BlobStore, maxSize int64) MediaService {
	if maxSize <= 0 {
		maxSize = DefaultMaxUploadSize
	}
	return &MediaServiceImpl{blobs: blobs, maxSize: maxSize}
}

func (s *MediaServiceImpl) UploadImage(ctx context.Context, ownerID string, r io.Reader, size int64) (*MediaRef, error) {
	if ownerID == "" {
		return nil, UnauthorizedError
	}
	if s.blobs == nil {
		return nil, ErrMediaDisabled
	}
	if size <= 0 {
		return nil, model.ErrValidation
	}
	if size > s.maxSize {
		return nil, ErrFileTooLarge
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	head = head[:n]

	mt := mimetype.Detect(head)
	if !strings.HasPrefix(mt.String(), consts.MimePrefixImage) {
		log.WarnContext(ctx, "rejected upload", "owner_id", ownerID, "mime", mt.String())
		return nil, ErrFileNotSupported
	}

	body := io.MultiReader(bytes.NewReader(head), r)
	ref, err := s.blobs.Store(ctx, body, size, mt.String(), mt.Extension())
	if err != nil {
		log.ErrorContext(ctx, "store upload failed", "owner_id", ownerID, "err", err)
		return nil, err
	}
	log.InfoContext(ctx, "media uploaded", "owner_id", ownerID, "ref", ref, "mime", mt.String())
	return &MediaRef{Ref: ref, URL: s.blobs.Resolve(ref), ContentType: mt.String(), Size: size}, nil
}

// ResolveRef 未启用对象存储或引用已是完整 URL 时原样返回
func (s *MediaServiceImpl) ResolveRef(ref string) string {
	if ref == "" || s.blobs == nil || strings.Contains(ref, "://") {
		return ref
	}
	return s.blobs.Resolve(ref)
}
