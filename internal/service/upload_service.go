package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/huddlechat/huddle-backend/internal/common"
)

// UploadTicket is a presigned PUT target. Key is what a message stores as its image.
type UploadTicket struct {
	Key       string `json:"key"`
	UploadURL string `json:"upload_url"`
}

// UploadService hands out presigned image upload URLs to workspace members
type UploadService struct {
	membership MembershipService
	storage    ObjectStorage
}

// NewUploadService creates a new UploadService; nil storage disables uploads
func NewUploadService(membership MembershipService, storage ObjectStorage) *UploadService {
	return &UploadService{membership: membership, storage: storage}
}

// PresignImage returns an upload URL for one image in the workspace
func (s *UploadService) PresignImage(ctx context.Context, userID, workspaceID uint64, contentType string) (*UploadTicket, error) {
	if s.storage == nil {
		return nil, common.ErrStorageDisabled
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: only images can be attached", common.ErrInvalidInput)
	}
	if _, err := s.membership.RequireMember(ctx, workspaceID, userID); err != nil {
		return nil, err
	}

	key, url, err := s.storage.PresignUpload(ctx, imagePrefix(workspaceID), contentType)
	if err != nil {
		return nil, fmt.Errorf("presign upload: %w", err)
	}
	return &UploadTicket{Key: key, UploadURL: url}, nil
}

func imagePrefix(workspaceID uint64) string {
	return fmt.Sprintf("workspaces/%d/images", workspaceID)
}

// ownsImageKey reports whether key was issued by PresignImage for the workspace
func ownsImageKey(workspaceID uint64, key string) bool {
	if strings.Contains(key, "..") || strings.Contains(key, "//") {
		return false
	}
	return strings.HasPrefix(key, imagePrefix(workspaceID)+"/")
}
