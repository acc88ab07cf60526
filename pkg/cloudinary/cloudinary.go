package cloudinary

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/zerolog"
)

// coverTransformation caps stored covers at the largest size the catalog renders.
const coverTransformation = "c_limit,w_1600,h_900,q_auto"

// Config contains credentials required to talk to Cloudinary.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	// Folder is prepended to every object key.
	Folder string
}

// Service stores course media on Cloudinary.
type Service struct {
	client *cloudinary.Cloudinary
	root   string
	logger zerolog.Logger
}

func New(cfg Config, logger zerolog.Logger) (*Service, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials must be provided")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true

	return &Service{
		client: cld,
		root:   strings.Trim(cfg.Folder, "/"),
		logger: logger.With().Str("component", "cloudinary").Logger(),
	}, nil
}

// Upload stores an image under the given object key and returns its https URL.
// Size and content type are detected by Cloudinary itself.
func (s *Service) Upload(ctx context.Context, key string, reader io.Reader, _ int64, _ string) (string, error) {
	folder, publicID := SplitKey(s.root, key)

	result, err := s.client.Upload.Upload(ctx, reader, uploader.UploadParams{
		Folder:         folder,
		PublicID:       publicID,
		ResourceType:   "image",
		Overwrite:      api.Bool(true),
		UniqueFilename: api.Bool(false),
		Transformation: coverTransformation,
		Tags:           api.CldAPIArray{"learnhub", "course-cover"},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload asset: %w", err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("cloudinary rejected asset: %s", result.Error.Message)
	}

	s.logger.Info().
		Str("public_id", result.PublicID).
		Int("bytes", result.Bytes).
		Msg("course image stored")
	return result.SecureURL, nil
}

// SplitKey maps an object key such as "courses/4/cover-1700000000.png" onto a Cloudinary
// folder and an extension-less public id. Characters Cloudinary rejects become dashes.
func SplitKey(root, key string) (folder, publicID string) {
	key = strings.Trim(path.Clean("/"+key), "/")
	dir, file := path.Split(key)

	publicID = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, strings.TrimSuffix(file, path.Ext(file)))
	publicID = strings.Trim(publicID, "-")
	if publicID == "" {
		publicID = "upload"
	}

	folder = strings.Trim(path.Join(root, dir), "/")
	return folder, publicID
}
