// Package backup implements the "sync now" database backup: dump the
// database and push the dump to Google Drive.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const driveUploadURL = "https://www.googleapis.com/upload/drive/v3/files?uploadType=multipart&fields=id"

// DriveUploader uploads files to Google Drive using a stored OAuth2
// refresh token.
type DriveUploader struct {
	config       *oauth2.Config
	refreshToken string
	folderID     string
}

// NewDriveUploaderFromEnv builds an uploader from GOOGLE_CLIENT_ID,
// GOOGLE_CLIENT_SECRET, DRIVE_REFRESH_TOKEN and optional DRIVE_FOLDER_ID.
func NewDriveUploaderFromEnv() *DriveUploader {
	return &DriveUploader{
		config: &oauth2.Config{
			ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			Scopes:       []string{"https://www.googleapis.com/auth/drive.file"},
			Endpoint:     google.Endpoint,
		},
		refreshToken: os.Getenv("DRIVE_REFRESH_TOKEN"),
		folderID:     os.Getenv("DRIVE_FOLDER_ID"),
	}
}

// Configured reports whether Drive credentials are present.
func (u *DriveUploader) Configured() bool {
	return u.config.ClientID != "" && u.config.ClientSecret != "" && u.refreshToken != ""
}

// Upload pushes the file content to Drive and returns the created file id.
func (u *DriveUploader) Upload(ctx context.Context, name string, content io.Reader) (string, error) {
	client := u.config.Client(ctx, &oauth2.Token{RefreshToken: u.refreshToken})

	metadata := map[string]interface{}{"name": name}
	if u.folderID != "" {
		metadata["parents"] = []string{u.folderID}
	}
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return "", err
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	metaHeader := textproto.MIMEHeader{}
	metaHeader.Set("Content-Type", "application/json; charset=UTF-8")
	metaPart, err := writer.CreatePart(metaHeader)
	if err != nil {
		return "", err
	}
	if _, err := metaPart.Write(metaJSON); err != nil {
		return "", err
	}

	fileHeader := textproto.MIMEHeader{}
	fileHeader.Set("Content-Type", "application/octet-stream")
	filePart, err := writer.CreatePart(fileHeader)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(filePart, content); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, driveUploadURL, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "multipart/related; boundary="+writer.Boundary())

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("drive upload failed: %s: %s", resp.Status, respBody)
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", err
	}
	return created.ID, nil
}
