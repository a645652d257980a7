package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // Import for PNG decoding support
	"io"
	"math"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/user"
	"github.com/cmlabs-hris/hris-policy-engine/internal/pkg/storage"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

const (
	// Selfies are recompressed into this range before they are stored.
	maxSelfieBytes = 150 * 1024
	minSelfieBytes = 50 * 1024
)

// FileService stores check-in selfies. Paths are {company}/{date}/{employee}-{id}.jpg
// so tenant and owner can be read back from the path alone.
type FileService interface {
	UploadSelfie(ctx context.Context, caller user.Caller, file io.Reader, filename string) (attendance.SelfieUploadResponse, error)
	// OpenSelfie lets employees read their own selfies and reviewers read anyone's in the company.
	OpenSelfie(ctx context.Context, caller user.Caller, p string) (io.ReadCloser, error)
}

type fileServiceImpl struct {
	storage storage.FileStorage
	now     func() time.Time
}

func NewFileService(storage storage.FileStorage) FileService {
	return &fileServiceImpl{
		storage: storage,
		now:     time.Now,
	}
}

// UploadSelfie implements FileService.
func (s *fileServiceImpl) UploadSelfie(ctx context.Context, caller user.Caller, file io.Reader, filename string) (attendance.SelfieUploadResponse, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
		return attendance.SelfieUploadResponse{}, attendance.ErrInvalidSelfie
	}

	buffer, err := io.ReadAll(file)
	if err != nil {
		return attendance.SelfieUploadResponse{}, fmt.Errorf("failed to read image: %w", err)
	}

	compressed, err := compressImage(buffer, maxSelfieBytes, minSelfieBytes)
	if err != nil {
		return attendance.SelfieUploadResponse{}, attendance.ErrInvalidSelfie
	}

	// Always JPEG after compression
	p := path.Join(caller.CompanyID, s.now().Format("2006-01-02"),
		fmt.Sprintf("%s-%s.jpg", caller.EmployeeID, uuid.NewString()))

	stored, err := s.storage.Upload(ctx, bytes.NewReader(compressed), p, "image/jpeg")
	if err != nil {
		return attendance.SelfieUploadResponse{}, fmt.Errorf("failed to upload selfie: %w", err)
	}

	return attendance.SelfieUploadResponse{Path: stored, SelfieURL: s.storage.URL(stored)}, nil
}

// OpenSelfie implements FileService.
func (s *fileServiceImpl) OpenSelfie(ctx context.Context, caller user.Caller, p string) (io.ReadCloser, error) {
	parts := strings.Split(strings.Trim(p, "/"), "/")
	if len(parts) != 3 || parts[0] != caller.CompanyID {
		return nil, attendance.ErrSelfieNotFound
	}
	if !strings.HasPrefix(parts[2], caller.EmployeeID+"-") {
		if err := user.AccessManagerWithPermission(user.PermissionAttendanceApprove).Authorize(caller); err != nil {
			return nil, err
		}
	}

	rc, err := s.storage.Open(ctx, p)
	if err != nil {
		if errors.Is(err, storage.ErrFileNotFound) || errors.Is(err, storage.ErrInvalidPath) {
			return nil, attendance.ErrSelfieNotFound
		}
		return nil, err
	}
	return rc, nil
}

// ==================== HELPER FUNCTIONS ====================

// compressImage re-encodes an image as JPEG within the target size range.
// maxSize: maximum allowed size (e.g., 150KB)
// minSize: minimum target size (e.g., 50KB)
func compressImage(buffer []byte, maxSize int, minSize int) ([]byte, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(buffer))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	// JPEGs already in range are stored untouched
	if format == "jpeg" && len(buffer) <= maxSize && len(buffer) >= minSize {
		return buffer, nil
	}

	// Decode the image
	img, _, err := image.Decode(bytes.NewReader(buffer))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	// Get original dimensions
	bounds := img.Bounds()
	originalWidth := bounds.Dx()
	originalHeight := bounds.Dy()

	// Start with quality 85 and reduce progressively
	quality := 85
	var compressed []byte
	currentImg := img

	// Try compression with decreasing quality first
	for quality >= 50 {
		buf := new(bytes.Buffer)
		err = jpeg.Encode(buf, currentImg, &jpeg.Options{Quality: quality})
		if err != nil {
			return nil, fmt.Errorf("failed to encode JPEG: %w", err)
		}

		compressed = buf.Bytes()

		// Check if we've reached target size
		if len(compressed) <= maxSize && len(compressed) >= minSize {
			return compressed, nil
		}

		// If still too large, reduce quality
		if len(compressed) > maxSize {
			quality -= 5
			continue
		}

		// If too small but quality already low, accept it
		if len(compressed) < minSize && quality <= 60 {
			return compressed, nil
		}

		break
	}

	// If still too large after quality reduction, try resizing
	if len(compressed) > maxSize {
		// Calculate resize ratio to target 100KB (middle of range)
		targetSize := 100 * 1024
		ratio := math.Sqrt(float64(targetSize) / float64(len(compressed)))
		newWidth := int(float64(originalWidth) * ratio)
		newHeight := int(float64(originalHeight) * ratio)

		// Ensure minimum dimensions
		if newWidth < 600 {
			newWidth = 600
		}
		if newHeight < 400 {
			newHeight = 400
		}

		// Resize the image
		resized := resizeImage(img, newWidth, newHeight)

		// Encode with quality 70
		buf := new(bytes.Buffer)
		err = jpeg.Encode(buf, resized, &jpeg.Options{Quality: 70})
		if err != nil {
			return nil, fmt.Errorf("failed to encode resized image: %w", err)
		}

		compressed = buf.Bytes()
	}

	return compressed, nil
}

// resizeImage resizes an image to the specified dimensions using high-quality interpolation
func resizeImage(src image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	// Use CatmullRom for high-quality downscaling
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}
